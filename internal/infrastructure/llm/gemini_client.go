package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailsort/internal/domain/email"
	"mailsort/internal/infrastructure/metrics"
)

const (
	ProviderGemini = "gemini"

	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultGeminiModel    = "gemini-2.5-flash-preview-05-20"

	maxErrorBody = 64 << 10
)

var errEmptyCompletion = errors.New("empty completion")

// GeminiClient calls the generateContent endpoint. The credential travels as the
// "key" query parameter.
type GeminiClient struct {
	endpoint string
	model    string
	http     *http.Client
	retrier  *Retrier
	logger   *zap.Logger
}

func NewGeminiClient(endpoint, model string, httpClient *http.Client, retrier *Retrier, logger *zap.Logger) *GeminiClient {
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("provider", ProviderGemini), zap.String("model", model))
	if retrier == nil {
		retrier = NewRetrier(DefaultPolicy, logger)
	}
	return &GeminiClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		http:     httpClient,
		retrier:  retrier,
		logger:   logger,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) Complete(ctx context.Context, credential, prompt string) (string, error) {
	body, err := encodeGeminiRequest(prompt)
	if err != nil {
		return "", email.NewError(email.KindBadRequest, "API request failed with status 400 (Bad Request).", err)
	}
	target := c.url(credential)

	return c.retrier.Do(ctx, func(ctx context.Context, attempt int) Outcome {
		return c.attempt(ctx, target, body, attempt)
	})
}

func (c *GeminiClient) attempt(ctx context.Context, target string, body []byte, n int) Outcome {
	start := time.Now()
	log := c.logger.With(zap.Int("attempt", n+1))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Fatal(email.NewError(email.KindBadRequest, "API request failed with status 400 (Bad Request).", redact(err)))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		out := transportOutcome(ctx, redact(err))
		metrics.RecordAttempt(ProviderGemini, out.Kind.String(), "transport_error", time.Since(start))
		log.Debug("transport failure", zap.Error(out.Err))
		return out
	}
	defer resp.Body.Close()

	out := c.responseOutcome(resp, log)
	metrics.RecordAttempt(ProviderGemini, out.Kind.String(), strconv.Itoa(resp.StatusCode), time.Since(start))
	return out
}

func (c *GeminiClient) responseOutcome(resp *http.Response, log *zap.Logger) Outcome {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		text, err := decodeGeminiCompletion(resp.Body)
		if err != nil {
			return emptyCompletion(err)
		}
		return Success(text)

	case resp.StatusCode == http.StatusBadRequest:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr geminiError
		cause := fmt.Errorf("gemini bad request: %s", bytes.TrimSpace(raw))
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			cause = fmt.Errorf("gemini bad request: %s (%s)", apiErr.Error.Message, apiErr.Error.Status)
		}
		log.Error("API error details",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return statusOutcome(resp.StatusCode, cause)

	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return statusOutcome(resp.StatusCode, fmt.Errorf("gemini returned status %d", resp.StatusCode))
	}
}

func (c *GeminiClient) url(credential string) string {
	q := url.Values{}
	q.Set("key", credential)
	return fmt.Sprintf("%s/%s:generateContent?%s", c.endpoint, url.PathEscape(c.model), q.Encode())
}

func encodeGeminiRequest(prompt string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeGeminiCompletion(r io.Reader) (string, error) {
	var out geminiResponse
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errEmptyCompletion
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

// redact strips the request URL from transport errors; the query string holds the credential.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return err
}
