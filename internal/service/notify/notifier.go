package notify

import (
	"context"
	"log"
	"time"
)

// UnknownContact stands in for the visitor's address when none was saved.
const UnknownContact = "Unknown User"

// Alert describes one off-topic query escalated to the administrator.
type Alert struct {
	Contact   string
	Message   string
	Timestamp time.Time
}

// contact returns the visitor address or UnknownContact.
func (a Alert) contact() string {
	if a.Contact == "" {
		return UnknownContact
	}
	return a.Contact
}

// LogNotifier only logs alerts. It is used when no SMTP relay is configured.
type LogNotifier struct{}

// Notify logs the alert and never fails.
func (LogNotifier) Notify(_ context.Context, alert Alert) error {
	log.Printf("[notify] mail disabled, off-topic query contact=%s at=%s message=%q",
		alert.contact(), alert.Timestamp.Format(time.RFC3339), alert.Message)
	return nil
}
