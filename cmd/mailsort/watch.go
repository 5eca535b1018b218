package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	app "mailsort/internal/application/email"
	"mailsort/internal/infrastructure/gmail"
	"mailsort/internal/infrastructure/pubsub"
	pubsubHandler "mailsort/internal/interfaces/pubsub"
	"mailsort/internal/interfaces/worker"
)

var watchMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Classify incoming Gmail messages and apply category labels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateWatch(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		classifier, err := newClassifier()
		if err != nil {
			return err
		}

		gmailService, err := gmail.NewService(ctx, cfg.Gmail.CredentialsPath, cfg.Gmail.TokenPath, logger)
		if err != nil {
			return err
		}
		gmailClient := gmail.NewClient(gmailService, logger)

		// Enable Gmail watch for push notifications
		if err := gmailClient.EnableWatch(ctx, cfg.PubSub.Topic); err != nil {
			logger.Warn("enable watch failed", zap.Error(err))
		}

		messageUC := app.NewClassifyMessageUseCase(classifier, gmailClient, cfg.Credential(), cfg.Gmail.ApplyLabels, logger)

		pool := worker.NewPool(cfg.NumWorkers, messageUC, 200*time.Millisecond, logger)
		pool.Start(ctx)
		defer pool.Shutdown()

		subscriber, err := pubsub.NewSubscriber(ctx, cfg.PubSub.Project, cfg.PubSub.SubscriptionID, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := subscriber.Close(); err != nil {
				logger.Warn("close subscriber", zap.Error(err))
			}
		}()

		handler := pubsubHandler.NewHandler(pool, gmailClient, logger)

		logger.Info("processing initial batch", zap.Int64("max", cfg.InitialEmailsToFetch))
		if err := processInitialEmails(ctx, gmailClient, pool, cfg.InitialEmailsToFetch); err != nil {
			logger.Warn("initial batch failed", zap.Error(err))
		}

		if watchMetricsAddr != "" {
			go serveMetrics(ctx, watchMetricsAddr)
		}

		listenDone := make(chan struct{})
		go func() {
			defer close(listenDone)
			if err := subscriber.Listen(ctx, func(historyID uint64) {
				handler.HandleNotification(ctx, historyID)
			}); err != nil && ctx.Err() == nil {
				logger.Error("pub/sub listener stopped", zap.Error(err))
				stop()
			}
		}()

		logger.Info("mailsort is watching the inbox, press Ctrl+C to stop")

		<-ctx.Done()
		logger.Info("shutting down")
		// The pool is closed by a deferred Shutdown; no notification may submit after that.
		<-listenDone
		return nil
	},
}

func processInitialEmails(ctx context.Context, gmailClient *gmail.Client, pool *worker.Pool, maxResults int64) error {
	if maxResults <= 0 {
		return nil
	}
	messageIDs, err := gmailClient.ListMessagesFromInbox(ctx, maxResults)
	if err != nil {
		return err
	}

	logger.Info("initial messages found", zap.Int("count", len(messageIDs)))

	for _, msgID := range messageIDs {
		if err := pool.Submit(ctx, worker.EmailJob{GmailID: msgID}); err != nil {
			return err
		}
	}

	return nil
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", ":9090", "Address for the /metrics endpoint (empty disables it)")

	rootCmd.AddCommand(watchCmd)
}
