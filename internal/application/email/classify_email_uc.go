package email

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailsort/internal/domain/email"
	"mailsort/internal/infrastructure/metrics"
)

// ClassifyEmailUseCase validates a request, prompts the model and normalizes its answer.
type ClassifyEmailUseCase struct {
	llm    Completer
	logger *zap.Logger
	newID  func() string
}

func NewClassifyEmailUseCase(llm Completer, logger *zap.Logger) *ClassifyEmailUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifyEmailUseCase{
		llm:    llm,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Execute classifies req and mirrors progress into session. A session must not be
// shared by two concurrent Execute calls.
func (uc *ClassifyEmailUseCase) Execute(ctx context.Context, session *Session, req email.Request) email.Result {
	if session == nil {
		session = NewSession(nil)
	}
	id := uc.newID()
	log := uc.logger.With(zap.String("request_id", id))

	if err := req.Validate(); err != nil {
		ce := email.AsClassificationError(err)
		session.fail(ce)
		metrics.IncrementClassification(string(ce.Kind))
		log.Debug("request rejected", zap.String("reason", ce.Message))
		return email.NewFailedResult(id, ce)
	}

	session.begin()
	defer session.finish()

	raw, err := uc.llm.Complete(ctx, req.Credential, BuildPrompt(req.EmailText))
	if err != nil {
		ce := email.AsClassificationError(err)
		session.fail(ce)
		metrics.IncrementClassification(string(ce.Kind))
		log.Warn("classification failed", zap.String("kind", string(ce.Kind)), zap.Error(err))
		return email.NewFailedResult(id, ce)
	}

	category := Normalize(raw)
	session.succeed(category)
	metrics.IncrementClassification("success")

	if !category.IsKnown() {
		log.Warn("model answered outside the taxonomy", zap.String("raw", raw), zap.String("category", category.String()))
	} else {
		log.Info("email classified", zap.String("category", category.String()))
	}

	return email.NewResult(id, category)
}
