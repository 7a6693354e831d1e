package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belowmsrp/chatbot/backend/internal/analysis/escalation"
	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{f.reply}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestServiceCompleteBuildsOrderedPrompt(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("We have a 2021 RAV4.", nil)}
	svc, err := NewService(context.Background(), "ark", fake)
	require.NoError(t, err)

	history := []chat.Turn{
		chat.UserTurn("hi"),
		chat.AssistantTurn("Hello and welcome to BelowMSRP!"),
	}

	reply, err := svc.Complete(context.Background(), "be helpful", history, "SUVs under $30k?")
	require.NoError(t, err)
	assert.Equal(t, "We have a 2021 RAV4.", reply)

	require.Len(t, fake.input, 4)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, "be helpful", fake.input[0].Content)
	assert.Equal(t, schema.User, fake.input[1].Role)
	assert.Equal(t, "hi", fake.input[1].Content)
	assert.Equal(t, schema.Assistant, fake.input[2].Role)
	assert.Equal(t, schema.User, fake.input[3].Role)
	assert.Equal(t, "SUVs under $30k?", fake.input[3].Content)
}

func TestServiceCompleteWrapsFailures(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("status 429: too many requests")}
	svc, err := NewService(context.Background(), "ark", fake)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "sys", nil, "hello")
	require.Error(t, err)

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, "ark", completionErr.Provider)
	assert.Equal(t, ReasonRateLimited, completionErr.Reason)
}

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := NewService(context.Background(), "ark", nil)
	require.Error(t, err)
}

func TestMessageTextFallbacks(t *testing.T) {
	text, ok := messageText(&schema.Message{Role: schema.Assistant, Content: "plain"})
	require.True(t, ok)
	assert.Equal(t, "plain", text)

	text, ok = messageText(&schema.Message{
		Role: schema.Assistant,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: "part one, "},
			{Type: schema.ChatMessagePartTypeImageURL},
			{Type: schema.ChatMessagePartTypeText, Text: "part two"},
		},
	})
	require.True(t, ok)
	assert.Equal(t, "part one, part two", text)

	text, ok = messageText(&schema.Message{Role: schema.Assistant})
	require.True(t, ok)
	assert.Contains(t, text, `"role":"assistant"`)

	_, ok = messageText(nil)
	assert.False(t, ok)
}

func TestUnavailableAlwaysFails(t *testing.T) {
	_, err := Unavailable{Provider: "gemini"}.Complete(context.Background(), "sys", nil, "hi")

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, ReasonNotConfigured, completionErr.Reason)
	assert.Equal(t, "ai: gemini not_configured", err.Error())
}

func TestCompletionErrorUnwraps(t *testing.T) {
	root := errors.New("dial tcp: connection refused")
	err := requestError("openai", root)

	assert.ErrorIs(t, err, root)
	assert.Equal(t, ReasonRequestFailed, err.Reason)
	assert.True(t, strings.HasSuffix(err.Error(), "connection refused"))

	// Already classified errors pass through untouched.
	assert.Same(t, err, requestError("gemini", err))
}

func TestDefaultSystemPromptCarriesMarker(t *testing.T) {
	assert.Contains(t, DefaultSystemPrompt, escalation.Marker)
	assert.True(t, escalation.IsEscalation(DefaultSystemPrompt))
	assert.Contains(t, DefaultSystemPrompt, "BelowMSRP")
}

func TestLoadSystemPrompt(t *testing.T) {
	prompt, err := LoadSystemPrompt("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemPrompt, prompt)

	dir := t.TempDir()

	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("Sell cars.\nOff-topic: append "+escalation.Marker+"\n"), 0o600))
	prompt, err = LoadSystemPrompt(good)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "Sell cars."))

	noMarker := filepath.Join(dir, "nomarker.txt")
	require.NoError(t, os.WriteFile(noMarker, []byte("Sell cars."), 0o600))
	_, err = LoadSystemPrompt(noMarker)
	require.Error(t, err)

	_, err = LoadSystemPrompt(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}
