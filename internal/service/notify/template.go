package notify

import "html/template"

// alertTemplate is an email-client safe layout: tables and inline styles only.
var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="format-detection" content="telephone=no, date=no, address=no, email=no">
  <title>Unrelated Query Detection Alert</title>
</head>
<body style="margin: 0; padding: 40px 20px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background: #f5f5f5;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0">
    <tr>
      <td align="center" style="padding: 0;">
        <table role="presentation" width="680" cellpadding="0" cellspacing="0" border="0" style="max-width: 680px; width: 100%; background: #ffffff; border-radius: 8px; border: 1px solid #e5e7eb;">
          <tr>
            <td style="padding: 40px 45px; background: #2563eb; border-bottom: 1px solid #dbeafe;">
              <div style="font-size: 22px; font-weight: 600; margin-bottom: 20px;">
                <span style="color: #ffffff;">Below</span><span style="color: #93c5fd;">MSRP</span>
              </div>
              <div style="display: inline-block; background: #fef3c7; border: 1px solid #fbbf24; color: #92400e; padding: 6px 14px; border-radius: 4px; font-size: 10px; font-weight: 600; margin-bottom: 16px;">
                🚨 PRIORITY ALERT
              </div>
              <h1 style="color: #ffffff; font-size: 24px; font-weight: 600; margin: 0; line-height: 1.4;">Unrelated Query Detection Alert</h1>
              <p style="color: #dbeafe; font-size: 14px; margin-top: 8px;">System Notification · Chatbot Monitoring</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 40px 45px;">
              <p style="font-size: 14px; color: #4b5563; line-height: 1.7; margin: 0 0 28px 0;">
                A user query has been flagged by the BelowMSRP chatbot system as falling outside the defined service parameters. Your review and assessment are requested to determine the appropriate course of action.
              </p>
              <table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0" style="background: #f9fafb; border-radius: 8px; margin-bottom: 24px; border: 1px solid #e5e7eb;">
                <tr>
                  <td style="font-weight: 600; color: #6b7280; padding: 16px 20px; background: #f3f4f6; width: 160px; font-size: 11px; border-bottom: 1px solid #e5e7eb;">USER EMAIL</td>
                  <td style="color: #1f2937; padding: 16px 20px; font-size: 14px; word-break: break-word; border-bottom: 1px solid #e5e7eb;">{{.Contact}}</td>
                </tr>
                <tr>
                  <td style="font-weight: 600; color: #6b7280; padding: 16px 20px; background: #f3f4f6; width: 160px; font-size: 11px; border-bottom: 1px solid #e5e7eb;">USER MESSAGE</td>
                  <td style="color: #1f2937; padding: 16px 20px; font-size: 14px; word-break: break-word; border-bottom: 1px solid #e5e7eb;">{{.Message}}</td>
                </tr>
                <tr>
                  <td style="font-weight: 600; color: #6b7280; padding: 16px 20px; background: #f3f4f6; width: 160px; font-size: 11px;">TIMESTAMP</td>
                  <td style="color: #1f2937; padding: 16px 20px; font-size: 14px; word-break: break-word;">{{.Timestamp}}</td>
                </tr>
              </table>
              <table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0">
                <tr>
                  <td style="background: #fffbeb; border: 1px solid #fcd34d; border-left: 4px solid #f59e0b; padding: 20px; border-radius: 6px;">
                    <div style="font-size: 14px; color: #78350f; line-height: 1.6;">
                      <strong style="display: block; margin-bottom: 8px;">Administrative Action Required</strong>
                      Please evaluate this query and contact the user if necessary. Assessment should include whether this indicates a service coverage gap or represents a potential enhancement opportunity for the platform.
                    </div>
                  </td>
                </tr>
              </table>
            </td>
          </tr>
          <tr>
            <td style="background: #f9fafb; padding: 32px 45px; text-align: center; border-top: 1px solid #e5e7eb;">
              <p style="font-size: 13px; color: #6b7280; margin: 0; line-height: 1.6;">
                &copy; {{.Year}} <span style="color: #2563eb; font-weight: 600;">BelowMSRP</span> • All Rights Reserved<br>
                Automated Notification System • This is an unmonitored mailbox
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))
