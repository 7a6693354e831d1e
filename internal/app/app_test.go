package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belowmsrp/chatbot/backend/internal/config"
	"github.com/belowmsrp/chatbot/backend/internal/service/ai"
	"github.com/belowmsrp/chatbot/backend/internal/service/notify"
)

func TestNewCompleterFallsBackWithoutCredentials(t *testing.T) {
	completer := NewCompleter(context.Background(), config.AIConfig{Provider: config.ProviderGemini, Model: "gemini-2.5-flash"})
	assert.Equal(t, ai.Unavailable{Provider: config.ProviderGemini}, completer)
}

func TestNewCompleterOpenAI(t *testing.T) {
	completer := NewCompleter(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k"})
	assert.IsType(t, &ai.OpenAIClient{}, completer)
}

func TestNewNotifier(t *testing.T) {
	assert.Equal(t, notify.LogNotifier{}, NewNotifier(config.MailConfig{}))

	mailer := NewNotifier(config.MailConfig{
		Host:       "smtp.example.com",
		Port:       587,
		Username:   "admin@example.com",
		Password:   "secret",
		AdminEmail: "admin@example.com",
		From:       "admin@example.com",
		Timeout:    time.Second,
	})
	assert.IsType(t, &notify.Mailer{}, mailer)
}

func TestNewConversationWithoutProvider(t *testing.T) {
	conv, err := NewConversation(context.Background(), &config.Config{
		AI: config.AIConfig{Provider: config.ProviderGemini, Model: "gemini-2.5-flash"},
	})
	require.NoError(t, err)

	reply := conv.SendMessage(context.Background(), "", "Do you have a Camry?")
	require.Error(t, reply.Err)
	assert.True(t, strings.HasPrefix(reply.Text, "Sorry, I encountered an error: "))
	assert.Len(t, conv.History(reply.SessionID), 2)
}

func TestNewConversationBadPromptFile(t *testing.T) {
	_, err := NewConversation(context.Background(), &config.Config{
		AI: config.AIConfig{SystemPromptFile: filepath.Join(t.TempDir(), "missing.txt")},
	})
	require.Error(t, err)
}

func TestResolveSecretsDisabled(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, ResolveSecrets(context.Background(), cfg))
}
