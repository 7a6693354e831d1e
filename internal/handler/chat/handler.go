package chat

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
	"github.com/belowmsrp/chatbot/backend/internal/service/conversation"
	"github.com/belowmsrp/chatbot/backend/pkg/utils"
)

// Conversation is the orchestrator surface the HTTP layer drives.
type Conversation interface {
	CreateSession() string
	ResetSession(sessionID string) bool
	History(sessionID string) []chat.Turn
	SaveContactEmail(sessionID, email string) bool
	SendMessage(ctx context.Context, sessionID, text string) conversation.Reply
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	conv Conversation
}

// New 创建聊天处理器
func New(conv Conversation) *Handler {
	return &Handler{conv: conv}
}

// RegisterRoutes mounts the chat endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/email", h.handleSaveEmail)
	r.Post("/message", h.handleMessage)
	r.Get("/history", h.handleHistory)
	r.Post("/reset", h.handleReset)
}

type sessionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId"`
}

type messageResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Error     string `json:"error,omitempty"`
}

type historyResponse struct {
	Status    string      `json:"status"`
	SessionID string      `json:"sessionId"`
	History   []chat.Turn `json:"history"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := h.conv.CreateSession()
	utils.RespondJSON(w, http.StatusOK, sessionResponse{Status: utils.StatusOK, SessionID: sessionID})
}

func (h *Handler) handleSaveEmail(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Email     string `json:"email"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(payload.Email)
	if payload.SessionID == "" || email == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId and email are required")
		return
	}

	// Contacts may be saved ahead of the session's first message.
	h.conv.SaveContactEmail(payload.SessionID, email)
	utils.RespondJSON(w, http.StatusOK, sessionResponse{Status: utils.StatusOK, SessionID: payload.SessionID})
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply := h.conv.SendMessage(r.Context(), payload.SessionID, payload.Message)

	resp := messageResponse{
		Status:    utils.StatusOK,
		SessionID: reply.SessionID,
		Reply:     reply.Text,
	}
	if reply.Err != nil {
		resp.Error = reply.Err.Error()
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	utils.RespondJSON(w, http.StatusOK, historyResponse{
		Status:    utils.StatusOK,
		SessionID: sessionID,
		History:   h.conv.History(sessionID),
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	status := utils.StatusOK
	if !h.conv.ResetSession(payload.SessionID) {
		status = utils.StatusNotFound
	}
	utils.RespondJSON(w, http.StatusOK, sessionResponse{Status: status, SessionID: payload.SessionID})
}
