package email

import (
	"context"

	"mailsort/internal/domain/email"
)

// Completer sends a prompt to a remote generation service and returns its raw text.
// Failures are reported as *email.ClassificationError.
type Completer interface {
	Complete(ctx context.Context, credential, prompt string) (string, error)
}

type GmailService interface {
	FetchEmail(ctx context.Context, messageID string) (*email.Email, error)
	ApplyCategory(ctx context.Context, messageID string, category email.Category) error
}
