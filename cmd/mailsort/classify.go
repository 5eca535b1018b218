package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	app "mailsort/internal/application/email"
	"mailsort/internal/display"
	"mailsort/internal/domain/email"
	"mailsort/internal/infrastructure/gmail"
)

var (
	classifyFile    string
	classifySample  bool
	classifyGmailID string
	classifyAPIKey  string
	classifyJSON    bool
)

type classifyOutput struct {
	ID       string `json:"id"`
	Category string `json:"category,omitempty"`
	Known    bool   `json:"known"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify one email read from a file, stdin, the sample or Gmail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		text, err := readEmailText(ctx, cmd.InOrStdin())
		if err != nil {
			return err
		}

		credential := classifyAPIKey
		if credential == "" {
			credential = cfg.Credential()
		}

		uc, err := newClassifier()
		if err != nil {
			return err
		}

		session := app.NewSession(func(busy bool) {
			if busy && !classifyJSON {
				fmt.Fprintln(cmd.ErrOrStderr(), display.Muted.Render("Categorizing..."))
			}
		})
		result := uc.Execute(ctx, session, email.Request{Credential: credential, EmailText: text})

		if classifyJSON {
			out := classifyOutput{ID: result.ID, Known: result.Known}
			if result.Failed() {
				out.Kind = string(result.Err.Kind)
				out.Error = result.Err.Message
			} else {
				out.Category = result.Category.String()
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), display.Result(result))
		}

		if result.Failed() {
			return result.Err
		}
		return nil
	},
}

// readEmailText picks the first configured source: --sample, --gmail-id, --file, then stdin.
func readEmailText(ctx context.Context, stdin io.Reader) (string, error) {
	switch {
	case classifySample:
		return email.SampleEmail, nil
	case classifyGmailID != "":
		srv, err := gmail.NewService(ctx, cfg.Gmail.CredentialsPath, cfg.Gmail.TokenPath, logger)
		if err != nil {
			return "", err
		}
		msg, err := gmail.NewClient(srv, logger).FetchEmail(ctx, classifyGmailID)
		if err != nil {
			return "", err
		}
		logger.Debug("fetched message", zap.String("gmail_id", classifyGmailID))
		return msg.Text(), nil
	case classifyFile != "" && classifyFile != "-":
		b, err := os.ReadFile(classifyFile)
		if err != nil {
			return "", fmt.Errorf("read email file: %w", err)
		}
		return string(b), nil
	default:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "Read the email from a file ('-' for stdin)")
	classifyCmd.Flags().BoolVar(&classifySample, "sample", false, "Classify the built-in sample email")
	classifyCmd.Flags().StringVar(&classifyGmailID, "gmail-id", "", "Fetch the email from Gmail by message id")
	classifyCmd.Flags().StringVar(&classifyAPIKey, "api-key", "", "API key (default: from config or environment)")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Output in JSON format")

	rootCmd.AddCommand(classifyCmd)
}
