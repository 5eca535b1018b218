package email

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mailsort/internal/domain/email"
)

// ClassifyMessageUseCase classifies a mailbox message by id and labels it in Gmail.
type ClassifyMessageUseCase struct {
	classifier   *ClassifyEmailUseCase
	gmailService GmailService
	credential   string
	applyLabels  bool
	logger       *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewClassifyMessageUseCase(
	classifier *ClassifyEmailUseCase,
	gmailService GmailService,
	credential string,
	applyLabels bool,
	logger *zap.Logger,
) *ClassifyMessageUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifyMessageUseCase{
		classifier:   classifier,
		gmailService: gmailService,
		credential:   credential,
		applyLabels:  applyLabels,
		logger:       logger,
		seen:         make(map[string]struct{}),
	}
}

func (uc *ClassifyMessageUseCase) Execute(ctx context.Context, gmailID string) error {
	log := uc.logger.With(zap.String("gmail_id", gmailID))

	if !uc.markSeen(gmailID) {
		log.Debug("message already handled in this run, skipping")
		return nil
	}

	msg, err := uc.gmailService.FetchEmail(ctx, gmailID)
	if err != nil {
		uc.forget(gmailID)
		return fmt.Errorf("fetch email: %w", err)
	}

	if msg.IsEmpty() {
		log.Info("empty body, skipping")
		return nil
	}

	result := uc.classifier.Execute(ctx, nil, email.Request{
		Credential: uc.credential,
		EmailText:  msg.Text(),
	})
	if result.Failed() {
		uc.forget(gmailID)
		return fmt.Errorf("classify email: %w", result.Err)
	}

	msg.Classify(result.Category)

	if !uc.applyLabels {
		log.Info("classified", zap.String("category", result.DisplayCategory()))
		return nil
	}
	if !result.Known {
		log.Warn("no label for category, skipping", zap.String("category", result.DisplayCategory()))
		return nil
	}
	if err := uc.gmailService.ApplyCategory(ctx, gmailID, msg.Category); err != nil {
		log.Error("failed to apply label", zap.String("category", msg.Category.String()), zap.Error(err))
		return nil
	}

	log.Info("classified and labeled", zap.String("category", msg.Category.String()))
	return nil
}

func (uc *ClassifyMessageUseCase) markSeen(id string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, ok := uc.seen[id]; ok {
		return false
	}
	uc.seen[id] = struct{}{}
	return true
}

func (uc *ClassifyMessageUseCase) forget(id string) {
	uc.mu.Lock()
	delete(uc.seen, id)
	uc.mu.Unlock()
}
