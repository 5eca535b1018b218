package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"mailsort/internal/domain/email"
)

// OutcomeKind is the verdict on a single network attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryable
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome is produced once per attempt. Text is set on success, Err otherwise.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

func Success(text string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

func Retryable(reason error) Outcome {
	return Outcome{Kind: OutcomeRetryable, Err: reason}
}

func Fatal(reason *email.ClassificationError) Outcome {
	return Outcome{Kind: OutcomeFatal, Err: reason}
}

// State of the retry loop.
type State int

const (
	StateAttempting State = iota
	StateSucceeded
	StateFailedRetryable
	StateFailedFatal
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateFailedRetryable:
		return "failed_retryable"
	case StateFailedFatal:
		return "failed_fatal"
	}
	return "unknown"
}

// MaxBackoff caps the exponential part of a delay.
const MaxBackoff = 5 * time.Minute

// Policy bounds the retry loop. The delay before retry n (0-indexed) is
// BaseDelay*2^n, capped at MaxBackoff, plus a uniform jitter in [0, MaxJitter).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

var DefaultPolicy = Policy{
	MaxAttempts: 5,
	BaseDelay:   time.Second,
	MaxJitter:   time.Second,
}

func (p Policy) Backoff(attempt int, jitter float64) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt && d > 0 && d < MaxBackoff; i++ {
		d *= 2
	}
	if d > MaxBackoff {
		d = MaxBackoff
	}
	return d + time.Duration(jitter*float64(p.MaxJitter))
}

// AttemptFunc performs attempt n (0-indexed). It must not retry on its own.
type AttemptFunc func(ctx context.Context, attempt int) Outcome

type Retrier struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
	logger *zap.Logger
}

type RetrierOption func(*Retrier)

// WithSleep replaces the wall-clock sleep. The function must return ctx.Err() if ctx ends first.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetrierOption {
	return func(r *Retrier) { r.sleep = sleep }
}

// WithJitter replaces the jitter source; it must return values in [0, 1).
func WithJitter(jitter func() float64) RetrierOption {
	return func(r *Retrier) { r.jitter = jitter }
}

func NewRetrier(policy Policy, logger *zap.Logger, opts ...RetrierOption) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retrier{
		policy: policy,
		sleep:  sleepContext,
		jitter: rand.Float64,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do drives attempts until one succeeds, one fails fatally, or the attempt budget is spent.
// Cancellation is checked before every attempt and interrupts backoff sleeps.
func (r *Retrier) Do(ctx context.Context, attempt AttemptFunc) (string, error) {
	var (
		state   = StateAttempting
		n       int
		outcome Outcome
		lastErr error
	)

	for {
		switch state {
		case StateAttempting:
			if err := ctx.Err(); err != nil {
				return "", Cancelled(err)
			}
			outcome = attempt(ctx, n)
			switch outcome.Kind {
			case OutcomeSuccess:
				state = StateSucceeded
			case OutcomeRetryable:
				state = StateFailedRetryable
			default:
				state = StateFailedFatal
			}

		case StateSucceeded:
			return outcome.Text, nil

		case StateFailedRetryable:
			lastErr = outcome.Err
			if n+1 >= r.policy.MaxAttempts {
				r.logger.Warn("retries exhausted", zap.Int("attempts", n+1), zap.Error(lastErr))
				return "", email.NewError(email.KindTransientService,
					"Failed to get a response from the API after multiple attempts.", lastErr)
			}
			delay := r.policy.Backoff(n, r.jitter())
			r.logger.Info("retrying after transient failure",
				zap.Int("attempt", n+1),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			if err := r.sleep(ctx, delay); err != nil {
				return "", Cancelled(err)
			}
			n++
			state = StateAttempting

		case StateFailedFatal:
			if outcome.Err == nil {
				return "", errors.New("attempt failed without a reason")
			}
			return "", outcome.Err
		}
	}
}

// Cancelled reports a context that ended before the classification finished.
func Cancelled(cause error) *email.ClassificationError {
	return email.NewError(email.KindCancelled, "The classification was cancelled.", cause)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
