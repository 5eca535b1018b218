package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config selects and tunes the remote completion provider.
type Config struct {
	Provider string
	Endpoint string
	Model    string
	Timeout  time.Duration
	Policy   Policy
}

// Completer is implemented by every provider client. It has the method set of the
// application's Completer port so NewCompleter's result plugs into the use cases
// without infrastructure importing the application layer.
type Completer interface {
	Complete(ctx context.Context, credential, prompt string) (string, error)
}

func NewCompleter(cfg Config, logger *zap.Logger) (Completer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	retrier := NewRetrier(cfg.Policy, logger.With(zap.String("provider", cfg.Provider)))

	switch cfg.Provider {
	case "", ProviderGemini:
		return NewGeminiClient(cfg.Endpoint, cfg.Model, httpClient, retrier, logger), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.Model, cfg.Endpoint, httpClient, retrier, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
