package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
)

// Service runs completions through an eino chain: system instruction, the
// history placeholder, then the new user message.
type Service struct {
	provider string
	chain    compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the prompt chain around chatModel.
func NewService(ctx context.Context, provider string, chatModel model.ChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model must not be nil")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		provider: provider,
		chain:    runnable,
	}, nil
}

// Complete generates the assistant reply to userText.
func (s *Service) Complete(ctx context.Context, systemInstruction string, history []chat.Turn, userText string) (string, error) {
	input := map[string]any{
		"system":  systemInstruction,
		"history": buildHistoryMessages(history),
		"query":   userText,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", requestError(s.provider, fmt.Errorf("failed to run AI chain: %w", err))
	}

	text, ok := messageText(response)
	if !ok {
		return "", newCompletionError(s.provider, ReasonEmptyResponse, nil)
	}

	log.Printf("[ai] generated response provider=%s history=%d length=%d", s.provider, len(history), len(text))
	return text, nil
}

func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return history
}

// messageText prefers Content, then the text parts of MultiContent, then the
// JSON form of the whole message.
func messageText(msg *schema.Message) (string, bool) {
	if msg == nil {
		return "", false
	}
	if msg.Content != "" {
		return msg.Content, true
	}

	var builder strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText {
			builder.WriteString(part.Text)
		}
	}
	if builder.Len() > 0 {
		return builder.String(), true
	}

	raw, err := json.Marshal(msg)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}
