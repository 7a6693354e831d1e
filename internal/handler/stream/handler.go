package stream

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/belowmsrp/chatbot/backend/internal/service/conversation"
	"github.com/belowmsrp/chatbot/backend/pkg/utils"
)

// Conversation is the part of the orchestrator the streaming transports use.
type Conversation interface {
	CreateSession() string
	ResetSession(sessionID string) bool
	SaveContactEmail(sessionID, email string) bool
	SendMessage(ctx context.Context, sessionID, text string) conversation.Reply
}

// Handler serves one orchestrated turn as Server-Sent Events.
type Handler struct {
	conv Conversation
}

// New creates a new stream handler
func New(conv Conversation) *Handler {
	return &Handler{conv: conv}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId"`
	Content   string `json:"content,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ServeHTTP handles GET /chat/stream?sessionId=&message=.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sessionID := query.Get("sessionId")
	message := query.Get("message")

	if strings.TrimSpace(message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if sessionID == "" {
		sessionID = h.conv.CreateSession()
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	utils.SendSSEEvent(w, flusher, "start", StreamResponse{Event: "start", SessionID: sessionID})

	reply := h.conv.SendMessage(r.Context(), sessionID, message)

	utils.SendSSEEvent(w, flusher, "message", StreamResponse{
		Event:     "message",
		SessionID: reply.SessionID,
		Content:   reply.Text,
	})

	if reply.Err != nil {
		log.Printf("[stream] completion failed session=%s: %v", reply.SessionID, reply.Err)
		utils.SendSSEEvent(w, flusher, "error", StreamResponse{
			Event:     "error",
			SessionID: reply.SessionID,
			Error:     reply.Err.Error(),
		})
	}

	utils.SendSSEEvent(w, flusher, "end", StreamResponse{
		Event:     "end",
		SessionID: reply.SessionID,
		Finished:  true,
	})
}
