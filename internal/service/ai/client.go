package ai

import (
	"context"
	"fmt"

	"github.com/belowmsrp/chatbot/backend/internal/config"
	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
)

// Client turns a system instruction, the prior transcript and a new user
// message into assistant text. Every failure is a *CompletionError.
type Client interface {
	Complete(ctx context.Context, systemInstruction string, history []chat.Turn, userText string) (string, error)
}

// NewClient builds the client for cfg.Provider. It fails when credentials are
// missing so callers can decide whether to fall back to Unavailable.
func NewClient(ctx context.Context, cfg config.AIConfig) (Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%s credentials or model missing", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		svc, err := NewService(ctx, config.ProviderArk, chatModel)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}

// Unavailable is the client used when no completion backend could be built.
// Each call fails with ReasonNotConfigured.
type Unavailable struct {
	Provider string
}

// Complete always fails.
func (u Unavailable) Complete(context.Context, string, []chat.Turn, string) (string, error) {
	return "", newCompletionError(u.Provider, ReasonNotConfigured, nil)
}
