package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	app "mailsort/internal/application/email"
	"mailsort/internal/domain/email"
	"mailsort/internal/infrastructure/config"
	"mailsort/internal/infrastructure/llm"
	"mailsort/internal/infrastructure/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	configPath string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "mailsort",
	Short:         "mailsort - classify emails into inbox categories",
	Long:          "Classify email text as Primary, Promotions, Social, Updates, Forums or Spam using a hosted language model.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		logger, err = logging.New(cfg.Log.Level)
		if err != nil {
			return err
		}
		if !cfg.DotEnvLoaded() {
			logger.Debug("no .env file found, using environment variables")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mailsort version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mailsort.yaml", "Config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd)
}

// newClassifier wires the configured provider into the classification use case.
func newClassifier() (*app.ClassifyEmailUseCase, error) {
	if err := cfg.ValidateRetry(); err != nil {
		return nil, err
	}
	completer, err := llm.NewCompleter(llm.Config{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.Endpoint(),
		Model:    cfg.Model(),
		Timeout:  cfg.LLM.Timeout,
		Policy: llm.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxJitter:   cfg.Retry.MaxJitter,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	return app.NewClassifyEmailUseCase(completer, logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Classification failures were already rendered by the command.
		var ce *email.ClassificationError
		if !errors.As(err, &ce) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
