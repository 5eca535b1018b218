package llm

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"mailsort/internal/infrastructure/metrics"
)

const (
	ProviderOpenAI     = "openai"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIClient sends the same prompt through the chat completions API. The SDK's own
// retries are disabled so the shared Retrier owns the attempt budget.
type OpenAIClient struct {
	api     openai.Client
	model   string
	retrier *Retrier
	logger  *zap.Logger
}

func NewOpenAIClient(model, baseURL string, httpClient *http.Client, retrier *Retrier, logger *zap.Logger) *OpenAIClient {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("provider", ProviderOpenAI), zap.String("model", model))
	if retrier == nil {
		retrier = NewRetrier(DefaultPolicy, logger)
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAIClient{
		api:     openai.NewClient(opts...),
		model:   model,
		retrier: retrier,
		logger:  logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, credential, prompt string) (string, error) {
	return c.retrier.Do(ctx, func(ctx context.Context, attempt int) Outcome {
		start := time.Now()

		resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: c.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		}, option.WithAPIKey(credential))
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) {
				out := statusOutcome(apiErr.StatusCode, err)
				if apiErr.StatusCode == http.StatusBadRequest {
					c.logger.Error("API error details", zap.Int("attempt", attempt+1), zap.String("body", apiErr.RawJSON()))
				}
				metrics.RecordAttempt(ProviderOpenAI, out.Kind.String(), strconv.Itoa(apiErr.StatusCode), time.Since(start))
				return out
			}
			out := transportOutcome(ctx, err)
			metrics.RecordAttempt(ProviderOpenAI, out.Kind.String(), "transport_error", time.Since(start))
			return out
		}

		metrics.RecordAttempt(ProviderOpenAI, OutcomeSuccess.String(), "200", time.Since(start))
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return emptyCompletion(errEmptyCompletion)
		}
		return Success(resp.Choices[0].Message.Content)
	})
}
