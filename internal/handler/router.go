package handler

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/belowmsrp/chatbot/backend/internal/handler/chat"
	"github.com/belowmsrp/chatbot/backend/internal/handler/stream"
	middlewarePkg "github.com/belowmsrp/chatbot/backend/internal/middleware"
	"github.com/belowmsrp/chatbot/backend/internal/observability"
	"github.com/belowmsrp/chatbot/backend/internal/service/conversation"
	"github.com/belowmsrp/chatbot/backend/pkg/utils"
)

// Options controls the optional parts of the HTTP surface.
type Options struct {
	// StaticDir, when set, is served at "/" for the chat widget.
	StaticDir string
}

// NewRouter wires HTTP routes to the conversation service.
func NewRouter(conv *conversation.Service, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(middlewarePkg.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": utils.StatusOK})
	})
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())

	chatHandler := chat.New(conv)
	streamHandler := stream.New(conv)
	wsHandler := stream.NewWebSocketHandler(conv)

	r.Route("/chat", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)

		api.Method(http.MethodGet, "/stream", streamHandler)
		api.Method(http.MethodGet, "/ws", wsHandler)
	})

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err != nil || !info.IsDir() {
			log.Printf("[http] static dir %q unavailable, skipping: %v", opts.StaticDir, err)
		} else {
			r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
		}
	}

	return r
}
