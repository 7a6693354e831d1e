package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/belowmsrp/chatbot/backend/internal/config"
	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
)

// contentGenerator is the part of *genai.Models used by GeminiClient.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient completes turns with the Gemini API through the Gen AI SDK.
type GeminiClient struct {
	models      contentGenerator
	model       string
	temperature *float32
	topP        *float32
	maxTokens   int32
}

// NewGeminiClient creates a client for the Gemini Developer API.
func NewGeminiClient(ctx context.Context, cfg config.AIConfig) (*GeminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGeminiClient(client.Models, cfg), nil
}

func newGeminiClient(models contentGenerator, cfg config.AIConfig) *GeminiClient {
	c := &GeminiClient{models: models, model: cfg.Model}
	if cfg.Temperature != nil {
		c.temperature = genai.Ptr(float32(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		c.topP = genai.Ptr(float32(*cfg.TopP))
	}
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 && *cfg.MaxTokens <= math.MaxInt32 {
		c.maxTokens = int32(*cfg.MaxTokens)
	}
	return c
}

// Complete generates the assistant reply to userText.
func (c *GeminiClient) Complete(ctx context.Context, systemInstruction string, history []chat.Turn, userText string) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		Temperature:       c.temperature,
		TopP:              c.topP,
		MaxOutputTokens:   c.maxTokens,
	}

	resp, err := c.models.GenerateContent(ctx, c.model, buildContents(history, userText), genCfg)
	if err != nil {
		return "", requestError(config.ProviderGemini, err)
	}

	text, ok := responseText(resp)
	if !ok {
		return "", newCompletionError(config.ProviderGemini, ReasonEmptyResponse, nil)
	}

	log.Printf("[ai] generated response provider=%s history=%d length=%d", config.ProviderGemini, len(history), len(text))
	return text, nil
}

// buildContents maps the transcript onto Gemini's user/model roles.
func buildContents(history []chat.Turn, userText string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == chat.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Content}},
		})
	}

	return append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: userText}},
	})
}

// responseText joins the text parts of the first candidate, falling back to
// the JSON form of the response with thought parts removed. A response with
// nothing left to serialize is empty.
func responseText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil {
		return "", false
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var builder strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				builder.WriteString(part.Text)
			}
		}
		if builder.Len() > 0 {
			return builder.String(), true
		}
	}

	visible := withoutThoughts(resp)
	if isEmptyResponse(visible) {
		return "", false
	}

	raw, err := json.Marshal(visible)
	if err != nil || len(raw) == 0 || string(raw) == "{}" || string(raw) == "null" {
		return "", false
	}
	return string(raw), true
}

// withoutThoughts copies resp, dropping thought parts and contents left empty.
func withoutThoughts(resp *genai.GenerateContentResponse) *genai.GenerateContentResponse {
	out := *resp
	out.Candidates = nil
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		c := *candidate
		if candidate.Content != nil {
			var parts []*genai.Part
			for _, part := range candidate.Content.Parts {
				if part != nil && !part.Thought {
					parts = append(parts, part)
				}
			}
			if len(parts) == 0 {
				c.Content = nil
			} else {
				content := *candidate.Content
				content.Parts = parts
				c.Content = &content
			}
		}
		out.Candidates = append(out.Candidates, &c)
	}
	return &out
}

func isEmptyResponse(resp *genai.GenerateContentResponse) bool {
	return len(resp.Candidates) == 0 &&
		resp.ResponseID == "" &&
		resp.ModelVersion == "" &&
		resp.PromptFeedback == nil &&
		resp.UsageMetadata == nil
}
