// Package app assembles the conversation service from configuration. Both the
// HTTP server and the terminal client start from here.
package app

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/belowmsrp/chatbot/backend/internal/config"
	"github.com/belowmsrp/chatbot/backend/internal/service/ai"
	"github.com/belowmsrp/chatbot/backend/internal/service/chat"
	"github.com/belowmsrp/chatbot/backend/internal/service/conversation"
	"github.com/belowmsrp/chatbot/backend/internal/service/notify"
)

// ResolveSecrets fills credentials missing from the environment from SSM
// Parameter Store when PARAM_PREFIX is set.
func ResolveSecrets(ctx context.Context, cfg *config.Config) error {
	if !cfg.Secrets.Enabled() {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	params, err := config.NewParamStore(ssm.NewFromConfig(awsCfg))
	if err != nil {
		return err
	}
	if err := cfg.ResolveSecrets(ctx, params); err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}

	log.Printf("[config] resolved secrets from parameter store prefix=%s", cfg.Secrets.ParamPrefix)
	return nil
}

// NewCompleter returns the configured completion client, or an Unavailable
// client that answers every turn with a not_configured failure.
func NewCompleter(ctx context.Context, cfg config.AIConfig) conversation.Completer {
	if !cfg.Enabled() {
		log.Printf("[ai] credentials for provider=%s not configured, replies will carry an apology", cfg.Provider)
		return ai.Unavailable{Provider: cfg.Provider}
	}

	client, err := ai.NewClient(ctx, cfg)
	if err != nil {
		log.Printf("[ai] warning: failed to initialize provider=%s: %v", cfg.Provider, err)
		return ai.Unavailable{Provider: cfg.Provider}
	}

	log.Printf("[ai] provider=%s model=%s initialized", cfg.Provider, cfg.Model)
	return client
}

// NewNotifier returns an SMTP mailer when mail is configured and a log-only
// notifier otherwise.
func NewNotifier(cfg config.MailConfig) conversation.Notifier {
	if !cfg.Enabled() {
		log.Println("[notify] SMTP not configured, admin alerts will only be logged")
		return notify.LogNotifier{}
	}

	mailer, err := notify.NewMailer(cfg)
	if err != nil {
		log.Printf("[notify] warning: failed to initialize mailer: %v", err)
		return notify.LogNotifier{}
	}
	return mailer
}

// NewConversation builds the orchestrator with in-memory sessions.
func NewConversation(ctx context.Context, cfg *config.Config) (*conversation.Service, error) {
	systemPrompt, err := ai.LoadSystemPrompt(cfg.AI.SystemPromptFile)
	if err != nil {
		return nil, err
	}

	return conversation.NewService(
		chat.NewService(),
		NewCompleter(ctx, cfg.AI),
		NewNotifier(cfg.Mail),
		conversation.Config{
			SystemPrompt:  systemPrompt,
			NotifyTimeout: cfg.Mail.Timeout,
		},
	)
}
