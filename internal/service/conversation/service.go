package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/belowmsrp/chatbot/backend/internal/analysis/escalation"
	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
	"github.com/belowmsrp/chatbot/backend/internal/observability"
	"github.com/belowmsrp/chatbot/backend/internal/service/notify"
)

const (
	apologyPrefix        = "Sorry, I encountered an error: "
	defaultNotifyTimeout = 30 * time.Second
)

// SessionStore holds the per-session transcripts and contact addresses.
type SessionStore interface {
	CreateSession() string
	ResetSession(id string) bool
	GetHistory(id string) []chat.Turn
	SaveContactEmail(id, email string) bool
	ContactEmail(id string) (string, bool)
	AppendTurn(id string, turn chat.Turn)
	Len() int
}

// Completer produces the assistant reply for a new user message.
type Completer interface {
	Complete(ctx context.Context, systemInstruction string, history []chat.Turn, userText string) (string, error)
}

// Notifier delivers admin alerts.
type Notifier interface {
	Notify(ctx context.Context, alert notify.Alert) error
}

// Config tunes the orchestrator.
type Config struct {
	SystemPrompt  string
	NotifyTimeout time.Duration
}

// Reply is the outcome of one user turn. Err is set when the completion
// service failed; Text then holds the apology that was stored in its place.
type Reply struct {
	SessionID string
	Text      string
	Err       error
}

// Service coordinates the session store, the completion client and the
// admin notifier for each user message.
type Service struct {
	store         SessionStore
	completer     Completer
	notifier      Notifier
	systemPrompt  string
	notifyTimeout time.Duration
	now           func() time.Time

	mu      sync.Mutex
	closing bool
	pending sync.WaitGroup
}

// NewService wires the orchestrator to its collaborators.
func NewService(store SessionStore, completer Completer, notifier Notifier, cfg Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("conversation: session store must not be nil")
	}
	if completer == nil {
		return nil, errors.New("conversation: completer must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("conversation: notifier must not be nil")
	}
	if cfg.SystemPrompt == "" {
		return nil, errors.New("conversation: system prompt must not be empty")
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}

	return &Service{
		store:         store,
		completer:     completer,
		notifier:      notifier,
		systemPrompt:  cfg.SystemPrompt,
		notifyTimeout: cfg.NotifyTimeout,
		now:           time.Now,
	}, nil
}

// CreateSession starts an empty conversation.
func (s *Service) CreateSession() string {
	id := s.store.CreateSession()
	observability.SetSessions(s.store.Len())
	return id
}

// ResetSession clears the transcript of sessionID, reporting whether it exists.
func (s *Service) ResetSession(sessionID string) bool {
	return s.store.ResetSession(sessionID)
}

// History returns the transcript of sessionID.
func (s *Service) History(sessionID string) []chat.Turn {
	return s.store.GetHistory(sessionID)
}

// SaveContactEmail records where the administrator can reach the visitor.
func (s *Service) SaveContactEmail(sessionID, email string) bool {
	return s.store.SaveContactEmail(sessionID, email)
}

// SendMessage runs one user turn: it records the message, asks the completion
// service for a reply with the full prior transcript, stores the reply (or an
// apology when the service fails) and alerts the administrator when the reply
// carries the escalation marker. History always grows by exactly two turns.
func (s *Service) SendMessage(ctx context.Context, sessionID, text string) Reply {
	if sessionID == "" {
		sessionID = s.CreateSession()
	}

	prior := s.store.GetHistory(sessionID)
	s.store.AppendTurn(sessionID, chat.UserTurn(text))
	observability.SetSessions(s.store.Len())

	started := s.now()
	replyText, err := s.completer.Complete(ctx, s.systemPrompt, prior, text)
	elapsed := s.now().Sub(started)

	if err != nil {
		log.Printf("[chat] completion failed session=%s: %v", sessionID, err)
		apology := apologyPrefix + err.Error()
		s.store.AppendTurn(sessionID, chat.AssistantTurn(apology))
		observability.RecordTurn("completion_failed", elapsed)
		return Reply{SessionID: sessionID, Text: apology, Err: err}
	}

	s.store.AppendTurn(sessionID, chat.AssistantTurn(replyText))
	observability.RecordTurn("ok", elapsed)

	if escalation.IsEscalation(replyText) {
		observability.RecordEscalation()
		s.dispatchAlert(ctx, sessionID, text)
	}

	return Reply{SessionID: sessionID, Text: replyText}
}

// dispatchAlert notifies the administrator on a detached goroutine. The
// request path never waits for it and never sees its outcome.
func (s *Service) dispatchAlert(ctx context.Context, sessionID, message string) {
	contact, ok := s.store.ContactEmail(sessionID)
	if !ok || contact == "" {
		contact = notify.UnknownContact
	}
	alert := notify.Alert{Contact: contact, Message: message, Timestamp: s.now()}

	detached := context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		// Late turns during shutdown deliver inline.
		s.deliver(detached, sessionID, alert)
		return
	}
	s.pending.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.pending.Done()
		s.deliver(detached, sessionID, alert)
	}()
}

func (s *Service) deliver(ctx context.Context, sessionID string, alert notify.Alert) {
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.safeNotify(notifyCtx, alert); err != nil {
		log.Printf("[notify] admin alert failed session=%s: %v", sessionID, err)
		observability.RecordNotification("failed")
		return
	}
	observability.RecordNotification("sent")
}

func (s *Service) safeNotify(ctx context.Context, alert notify.Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return s.notifier.Notify(ctx, alert)
}

// Wait blocks until every dispatched notification has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Shutdown stops background dispatch and waits for pending notifications.
// Alerts raised afterwards, e.g. by a WebSocket still open, are delivered on
// the caller's goroutine.
func (s *Service) Shutdown() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.pending.Wait()
}
