package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
	chatservice "github.com/belowmsrp/chatbot/backend/internal/service/chat"
	"github.com/belowmsrp/chatbot/backend/internal/service/conversation"
	"github.com/belowmsrp/chatbot/backend/internal/service/notify"
)

type fixedCompleter struct{}

func (fixedCompleter) Complete(context.Context, string, []chat.Turn, string) (string, error) {
	return "We have three Civics in stock.", nil
}

func newTestRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()

	conv, err := conversation.NewService(chatservice.NewService(), fixedCompleter{}, notify.LogNotifier{}, conversation.Config{SystemPrompt: "sell cars"})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return NewRouter(conv, opts)
}

func TestRouterMountsChatRoutes(t *testing.T) {
	r := newTestRouter(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"message":"Civic?"}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "three Civics") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS header")
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, Options{})

	for _, path := range []string{"/healthz", "/metrics"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestRouterServesStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>BelowMSRP</h1>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := newTestRouter(t, Options{StaticDir: dir})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "BelowMSRP") {
		t.Fatalf("expected index page, got %d %q", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/chat/history", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("chat routes must win over static files, got %d", resp.Code)
	}
}

func TestRouterMissingStaticDir(t *testing.T) {
	r := newTestRouter(t, Options{StaticDir: filepath.Join(t.TempDir(), "missing")})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
