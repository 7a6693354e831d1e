package ai

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/belowmsrp/chatbot/backend/internal/config"
	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
)

// chatCompleter is the part of *openai.Client used by OpenAIClient.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient completes turns against an OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	api         chatCompleter
	model       string
	temperature float32
	topP        float32
	maxTokens   int
}

// NewOpenAIClient creates a client for the OpenAI Chat Completions API.
func NewOpenAIClient(cfg config.AIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return newOpenAIClient(openai.NewClientWithConfig(clientCfg), cfg)
}

func newOpenAIClient(api chatCompleter, cfg config.AIConfig) *OpenAIClient {
	c := &OpenAIClient{api: api, model: cfg.Model}
	if cfg.Temperature != nil {
		c.temperature = float32(*cfg.Temperature)
	}
	if cfg.TopP != nil {
		c.topP = float32(*cfg.TopP)
	}
	if cfg.MaxTokens != nil {
		c.maxTokens = *cfg.MaxTokens
	}
	return c
}

// Complete generates the assistant reply to userText.
func (c *OpenAIClient) Complete(ctx context.Context, systemInstruction string, history []chat.Turn, userText string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    buildChatMessages(systemInstruction, history, userText),
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", requestError(config.ProviderOpenAI, err)
	}

	text, ok := completionText(resp)
	if !ok {
		return "", newCompletionError(config.ProviderOpenAI, ReasonEmptyResponse, nil)
	}

	log.Printf("[ai] generated response provider=%s history=%d length=%d", config.ProviderOpenAI, len(history), len(text))
	return text, nil
}

func buildChatMessages(systemInstruction string, history []chat.Turn, userText string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstruction,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == chat.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})
}

// completionText returns the first choice content, falling back to the JSON
// form of the response.
func completionText(resp openai.ChatCompletionResponse) (string, bool) {
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		return resp.Choices[0].Message.Content, true
	}
	if len(resp.Choices) == 0 && resp.ID == "" {
		return "", false
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return "", false
	}
	return string(raw), true
}
