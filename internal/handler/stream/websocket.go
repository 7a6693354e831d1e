package stream

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/belowmsrp/chatbot/backend/pkg/utils"
)

const (
	defaultReadTimeout = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler carries a whole conversation over one socket.
type WebSocketHandler struct {
	conv        Conversation
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(conv Conversation) *WebSocketHandler {
	return &WebSocketHandler{
		conv:        conv,
		readTimeout: defaultReadTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type inboundMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Email     string `json:"email"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ServeHTTP upgrades the request and serves messages until the client leaves.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go pingLoop(ctx, conn)

	sessionID := r.URL.Query().Get("sessionId")
	h.send(conn, "connected", sessionID, nil)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		if msg.SessionID == "" {
			msg.SessionID = sessionID
		}
		sessionID = h.handleMessage(ctx, conn, &msg)

		// A completion can outlast the read timeout.
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

// handleMessage dispatches one inbound frame and returns the session id the
// connection should remember.
func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, msg *inboundMessage) string {
	switch msg.Type {
	case "message":
		if strings.TrimSpace(msg.Text) == "" {
			h.sendError(conn, msg.SessionID, "text is required")
			return msg.SessionID
		}
		reply := h.conv.SendMessage(ctx, msg.SessionID, msg.Text)
		data := map[string]string{"reply": reply.Text}
		if reply.Err != nil {
			data["error"] = reply.Err.Error()
		}
		h.send(conn, "reply", reply.SessionID, data)
		return reply.SessionID

	case "email":
		email := strings.TrimSpace(msg.Email)
		if msg.SessionID == "" || email == "" {
			h.sendError(conn, msg.SessionID, "sessionId and email are required")
			return msg.SessionID
		}
		h.conv.SaveContactEmail(msg.SessionID, email)
		h.send(conn, "email", msg.SessionID, map[string]string{"status": utils.StatusOK})
		return msg.SessionID

	case "reset":
		if msg.SessionID == "" {
			h.sendError(conn, "", "sessionId is required")
			return msg.SessionID
		}
		status := utils.StatusOK
		if !h.conv.ResetSession(msg.SessionID) {
			status = utils.StatusNotFound
		}
		h.send(conn, "reset", msg.SessionID, map[string]string{"status": status})
		return msg.SessionID

	default:
		h.sendError(conn, msg.SessionID, "unsupported message type: "+msg.Type)
		return msg.SessionID
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msgType, sessionID string, data interface{}) {
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", msgType, err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, sessionID, message string) {
	h.send(conn, "error", sessionID, map[string]string{"message": message})
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// WriteControl is safe alongside the reader loop's WriteJSON.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
