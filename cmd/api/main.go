package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/belowmsrp/chatbot/backend/internal/app"
	"github.com/belowmsrp/chatbot/backend/internal/config"
	"github.com/belowmsrp/chatbot/backend/internal/handler"
	"github.com/belowmsrp/chatbot/backend/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := app.ResolveSecrets(ctx, cfg); err != nil {
		log.Fatalf("failed to resolve secrets: %v", err)
	}

	conv, err := app.NewConversation(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize conversation service: %v", err)
	}

	observability.InitMetrics()

	router := handler.NewRouter(conv, handler.Options{StaticDir: cfg.Server.StaticDir})

	startServer(ctx, cfg.Server, router)

	// Let in-flight admin alerts finish before exiting.
	log.Println("waiting for pending admin notifications")
	conv.Shutdown()
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("BelowMSRP chatbot listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
