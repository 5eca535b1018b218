package pubsub

import (
	"context"

	"go.uber.org/zap"

	"mailsort/internal/interfaces/worker"
)

type Submitter interface {
	Submit(ctx context.Context, job worker.EmailJob) error
}

type HistoryFetcher interface {
	FetchNewMessagesSince(ctx context.Context, historyID uint64) ([]string, error)
}

type Handler struct {
	pool         Submitter
	gmailFetcher HistoryFetcher
	logger       *zap.Logger
}

func NewHandler(pool Submitter, gmailFetcher HistoryFetcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		pool:         pool,
		gmailFetcher: gmailFetcher,
		logger:       logger,
	}
}

func (h *Handler) HandleNotification(ctx context.Context, historyID uint64) {
	log := h.logger.With(zap.Uint64("history_id", historyID))

	messageIDs, err := h.gmailFetcher.FetchNewMessagesSince(ctx, historyID)
	if err != nil {
		log.Error("fetch history", zap.Error(err))
		return
	}

	if len(messageIDs) == 0 {
		log.Debug("no new messages")
		return
	}

	log.Info("new messages", zap.Int("count", len(messageIDs)))

	for _, msgID := range messageIDs {
		if err := h.pool.Submit(ctx, worker.EmailJob{GmailID: msgID}); err != nil {
			log.Warn("submit dropped", zap.String("gmail_id", msgID), zap.Error(err))
			return
		}
	}
}
