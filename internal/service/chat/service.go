package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
)

// Service keeps every visitor session in memory for the lifetime of the
// process. Sessions are never evicted.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
	contacts map[string]string
}

var newID = func() string {
	return uuid.NewString()
}

// NewService bootstraps an empty in-memory session store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*chat.Session),
		contacts: make(map[string]string),
	}
}

// CreateSession provisions an empty session under a fresh identifier.
func (s *Service) CreateSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	for {
		if _, taken := s.sessions[id]; !taken {
			break
		}
		id = newID()
	}

	s.sessions[id] = newSession(id)
	return id
}

// ResetSession empties the history of a known session. The identifier and any
// saved contact address survive. Unknown ids report false and change nothing.
func (s *Service) ResetSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	session.History = make([]chat.Turn, 0, 16)
	return true
}

// GetHistory returns a copy of the transcript, or an empty slice for unknown ids.
func (s *Service) GetHistory(id string) []chat.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return []chat.Turn{}
	}

	copied := make([]chat.Turn, len(session.History))
	copy(copied, session.History)
	return copied
}

// SaveContactEmail records the visitor's contact address. Only an empty id is
// rejected: the session does not have to exist and the address is not
// validated.
func (s *Service) SaveContactEmail(id, email string) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	s.contacts[id] = email
	s.mu.Unlock()
	return true
}

// ContactEmail returns the contact address saved for id, if any.
func (s *Service) ContactEmail(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.contacts[id]
	return email, ok
}

// AppendTurn extends the history of id, creating the session on first use.
func (s *Service) AppendTurn(id string, turn chat.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		session = newSession(id)
		s.sessions[id] = session
	}
	session.History = append(session.History, turn)
}

// Len reports how many sessions are held.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func newSession(id string) *chat.Session {
	return &chat.Session{
		ID:        id,
		History:   make([]chat.Turn, 0, 16),
		CreatedAt: time.Now().UTC(),
	}
}
