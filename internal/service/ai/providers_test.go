package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/belowmsrp/chatbot/backend/internal/config"
	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
)

type stubGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (s *stubGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model = model
	s.contents = contents
	s.config = cfg
	return s.resp, s.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func floatPtr(v float64) *float64 { return &v }

func TestGeminiCompleteMapsRoles(t *testing.T) {
	stub := &stubGenerator{resp: textResponse("Sure, ", "the Civic is available.")}
	client := newGeminiClient(stub, config.AIConfig{Model: "gemini-2.5-flash", Temperature: floatPtr(0.6)})

	history := []chat.Turn{chat.UserTurn("hi"), chat.AssistantTurn("hello")}
	reply, err := client.Complete(context.Background(), "sys", history, "civic?")
	require.NoError(t, err)
	assert.Equal(t, "Sure, the Civic is available.", reply)

	assert.Equal(t, "gemini-2.5-flash", stub.model)
	require.Len(t, stub.contents, 3)
	assert.Equal(t, "user", stub.contents[0].Role)
	assert.Equal(t, "model", stub.contents[1].Role)
	assert.Equal(t, "user", stub.contents[2].Role)
	assert.Equal(t, "civic?", stub.contents[2].Parts[0].Text)

	require.NotNil(t, stub.config.SystemInstruction)
	assert.Equal(t, "sys", stub.config.SystemInstruction.Parts[0].Text)
	require.NotNil(t, stub.config.Temperature)
	assert.InDelta(t, 0.6, *stub.config.Temperature, 1e-6)
}

func TestGeminiCompleteFailures(t *testing.T) {
	client := newGeminiClient(&stubGenerator{err: errors.New("Error 429, RESOURCE_EXHAUSTED")}, config.AIConfig{Model: "m"})
	_, err := client.Complete(context.Background(), "sys", nil, "hi")

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, config.ProviderGemini, completionErr.Provider)
	assert.Equal(t, ReasonRateLimited, completionErr.Reason)

	client = newGeminiClient(&stubGenerator{}, config.AIConfig{Model: "m"})
	_, err = client.Complete(context.Background(), "sys", nil, "hi")
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, ReasonEmptyResponse, completionErr.Reason)
}

func TestGeminiResponseTextFallsBackToJSON(t *testing.T) {
	text, ok := responseText(&genai.GenerateContentResponse{ResponseID: "resp-1"})
	require.True(t, ok)
	assert.Contains(t, text, "resp-1")
}

func TestGeminiResponseTextEmptyAndThoughtOnly(t *testing.T) {
	_, ok := responseText(&genai.GenerateContentResponse{})
	assert.False(t, ok)

	resp := &genai.GenerateContentResponse{
		ResponseID: "resp-2",
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{
				{Text: "internal reasoning about the visitor", Thought: true},
			}},
		}},
	}
	text, ok := responseText(resp)
	require.True(t, ok)
	assert.Contains(t, text, "resp-2")
	assert.NotContains(t, text, "internal reasoning")
	// The caller's response is left untouched.
	assert.Len(t, resp.Candidates[0].Content.Parts, 1)

	client := newGeminiClient(&stubGenerator{resp: &genai.GenerateContentResponse{}}, config.AIConfig{Model: "m"})
	_, err := client.Complete(context.Background(), "sys", nil, "hi")
	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, ReasonEmptyResponse, completionErr.Reason)
}

type stubCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
	req  openai.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestOpenAICompleteBuildsMessages(t *testing.T) {
	stub := &stubCompleter{resp: openai.ChatCompletionResponse{
		ID:      "chatcmpl-1",
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "We finance up to 7 years."}}},
	}}
	client := newOpenAIClient(stub, config.AIConfig{Model: "gpt-4o-mini", Temperature: floatPtr(0.6)})

	reply, err := client.Complete(context.Background(), "sys", []chat.Turn{chat.UserTurn("a"), chat.AssistantTurn("b")}, "financing?")
	require.NoError(t, err)
	assert.Equal(t, "We finance up to 7 years.", reply)

	assert.Equal(t, "gpt-4o-mini", stub.req.Model)
	require.Len(t, stub.req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, stub.req.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, stub.req.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, stub.req.Messages[2].Role)
	assert.Equal(t, "financing?", stub.req.Messages[3].Content)
	assert.InDelta(t, 0.6, stub.req.Temperature, 1e-6)
}

func TestOpenAICompleteFailures(t *testing.T) {
	client := newOpenAIClient(&stubCompleter{err: &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}}, config.AIConfig{Model: "m"})
	_, err := client.Complete(context.Background(), "sys", nil, "hi")

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, ReasonRateLimited, completionErr.Reason)

	client = newOpenAIClient(&stubCompleter{err: &openai.APIError{HTTPStatusCode: 500, Message: "boom"}}, config.AIConfig{Model: "m"})
	_, err = client.Complete(context.Background(), "sys", nil, "hi")
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, ReasonRequestFailed, completionErr.Reason)

	client = newOpenAIClient(&stubCompleter{}, config.AIConfig{Model: "m"})
	_, err = client.Complete(context.Background(), "sys", nil, "hi")
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, ReasonEmptyResponse, completionErr.Reason)
}

func TestOpenAICompletionTextFallsBackToJSON(t *testing.T) {
	text, ok := completionText(openai.ChatCompletionResponse{
		ID:      "chatcmpl-2",
		Choices: []openai.ChatCompletionChoice{{FinishReason: openai.FinishReasonContentFilter}},
	})
	require.True(t, ok)
	assert.Contains(t, text, "chatcmpl-2")
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), config.AIConfig{Provider: config.ProviderGemini, Model: "gemini-2.5-flash"})
	require.Error(t, err)
}

func TestNewClientOpenAI(t *testing.T) {
	client, err := NewClient(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
}
