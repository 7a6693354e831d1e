package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/belowmsrp/chatbot/backend/internal/app"
	"github.com/belowmsrp/chatbot/backend/internal/config"
	"github.com/belowmsrp/chatbot/backend/internal/model/chat"
	"github.com/belowmsrp/chatbot/backend/internal/service/conversation"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile   string
		sessionID string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "chatcli",
		Short: "Talk to the BelowMSRP assistant from a terminal",
		Long: "chatcli runs the same conversation pipeline as the HTTP server against the\n" +
			"configured completion provider. Commands: /history, /reset, /email <addr>, /quit.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil {
				log.Printf("[WARN] failed to load %s, using system environment: %v", envFile, err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if err := app.ResolveSecrets(cmd.Context(), cfg); err != nil {
				return err
			}

			conv, err := app.NewConversation(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conv.Shutdown()

			if sessionID == "" {
				sessionID = conv.CreateSession()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s (provider %s)\n", sessionID, cfg.AI.Provider)

			return repl(cmd.Context(), conv, &session{id: sessionID, timeout: timeout}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.Flags().StringVar(&sessionID, "session", "", "reuse an existing session id")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "per-message completion timeout")

	return cmd
}

type session struct {
	id      string
	timeout time.Duration
}

func repl(ctx context.Context, conv *conversation.Service, s *session, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("you> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if quit := handleLine(ctx, conv, s, input, out); quit {
			return nil
		}
	}
}

// handleLine runs one REPL entry and reports whether the user asked to quit.
func handleLine(ctx context.Context, conv *conversation.Service, s *session, input string, out io.Writer) bool {
	command, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return true
	case "/history":
		printHistory(out, conv.History(s.id))
	case "/reset":
		if conv.ResetSession(s.id) {
			fmt.Fprintln(out, "history cleared")
		} else {
			fmt.Fprintln(out, "nothing to reset")
		}
	case "/email":
		if arg == "" {
			fmt.Fprintln(out, "usage: /email <address>")
			return false
		}
		conv.SaveContactEmail(s.id, arg)
		fmt.Fprintf(out, "contact saved: %s\n", arg)
	default:
		turnCtx, cancel := context.WithTimeout(ctx, s.timeout)
		reply := conv.SendMessage(turnCtx, s.id, input)
		cancel()

		s.id = reply.SessionID
		fmt.Fprintf(out, "bot> %s\n", reply.Text)
		if reply.Err != nil {
			log.Printf("[chat] completion failed: %v", reply.Err)
		}
	}
	return false
}

func printHistory(out io.Writer, turns []chat.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	for i, turn := range turns {
		fmt.Fprintf(out, "%3d %-9s %s\n", i+1, turn.Role, turn.Content)
	}
}
