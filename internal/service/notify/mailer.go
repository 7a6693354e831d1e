package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/belowmsrp/chatbot/backend/internal/config"
)

const alertSubject = "🚨 BelowMSRP Chatbot: Unrelated Query Alert"

// sender is the part of *mail.Client used by Mailer.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer emails alerts to the configured administrator address.
type Mailer struct {
	client sender
	from   string
	to     string
}

// NewMailer creates an SMTP mailer using STARTTLS and PLAIN auth.
func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("notify: smtp host, admin email and credentials are required")
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: create smtp client: %w", err)
	}

	return newMailer(client, cfg), nil
}

func newMailer(client sender, cfg config.MailConfig) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.AdminEmail
	}
	return &Mailer{client: client, from: from, to: cfg.AdminEmail}
}

// Notify renders the alert and delivers it to the administrator.
func (m *Mailer) Notify(ctx context.Context, alert Alert) error {
	body, err := renderAlert(alert)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("notify: invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(m.to); err != nil {
		return fmt.Errorf("notify: invalid recipient %q: %w", m.to, err)
	}
	msg.Subject(alertSubject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: send alert: %w", err)
	}

	log.Printf("[notify] alert sent to=%s contact=%s", m.to, alert.contact())
	return nil
}

type alertView struct {
	Contact   string
	Message   string
	Timestamp string
	Year      int
}

func renderAlert(alert Alert) (string, error) {
	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	err := alertTemplate.Execute(&buf, alertView{
		Contact:   alert.contact(),
		Message:   alert.Message,
		Timestamp: ts.Format("1/2/2006, 3:04:05 PM MST"),
		Year:      ts.Year(),
	})
	if err != nil {
		return "", fmt.Errorf("notify: render alert: %w", err)
	}
	return buf.String(), nil
}
