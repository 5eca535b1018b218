package llm

import (
	"context"
	"fmt"
	"net/http"

	"mailsort/internal/domain/email"
)

// statusOutcome maps a non-2xx HTTP status to the retry decision shared by all providers.
func statusOutcome(code int, cause error) Outcome {
	switch {
	case code == http.StatusUnauthorized:
		ce := email.NewStatusError(email.KindAuth, code, "API request failed with status 401. Check your API key.")
		ce.Err = cause
		return Fatal(ce)
	case code == http.StatusBadRequest:
		ce := email.NewStatusError(email.KindBadRequest, code, "API request failed with status 400 (Bad Request).")
		ce.Err = cause
		return Fatal(ce)
	case code == http.StatusTooManyRequests || code >= 500:
		ce := email.NewStatusError(email.KindTransientService, code, fmt.Sprintf("API request failed with status %d", code))
		ce.Err = cause
		return Retryable(ce)
	default:
		ce := email.NewStatusError(email.KindUnexpectedStatus, code, fmt.Sprintf("API request failed with status %d", code))
		ce.Err = cause
		return Fatal(ce)
	}
}

// transportOutcome handles failures where no HTTP status was received.
func transportOutcome(ctx context.Context, err error) Outcome {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Fatal(Cancelled(ctxErr))
	}
	return Retryable(err)
}

func emptyCompletion(cause error) Outcome {
	return Fatal(email.NewError(email.KindEmptyCompletion, "The AI returned an empty response.", cause))
}
