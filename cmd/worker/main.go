package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cassiomorais/payment-orchestrator/internal/bootstrap"
	"github.com/cassiomorais/payment-orchestrator/internal/domain/payment"
	infraRedis "github.com/cassiomorais/payment-orchestrator/internal/infrastructure/redis"
	"github.com/cassiomorais/payment-orchestrator/internal/repository/postgres"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const reconcileBatchSize = 500

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "payment-orchestrator-worker", "payments_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	paymentRepo := postgres.NewPaymentRepository(app.Pool)

	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.PaymentEventStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group")
	}

	app.Logger.Info().
		Str("stream", infraRedis.PaymentEventStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Event auditor (reads terminal payment events from Redis Streams).
	g.Go(func() error {
		return runEventAuditor(gCtx, app, consumer)
	})

	// 2. Pending reconciler (reports payments stuck in PENDING).
	g.Go(func() error {
		return runPendingReconciler(gCtx, app.Logger, app, paymentRepo, workerCfg.ReconcileInterval, workerCfg.PendingAge)
	})

	// 3. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

// runEventAuditor consumes terminal payment events and records them in the
// audit log. Events are acked only after they are logged.
func runEventAuditor(ctx context.Context, app *bootstrap.App, consumer *infraRedis.StreamConsumer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			app.Logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				paymentID, _ := msg.Values["payment_id"].(string)
				status, _ := msg.Values["status"].(string)
				transactionID, _ := msg.Values["transaction_id"].(string)

				app.Logger.Info().
					Str("message_id", msg.ID).
					Str("payment_id", paymentID).
					Str("status", status).
					Str("transaction_id", transactionID).
					Msg("Payment event consumed")
				app.Metrics.WorkerEventsConsumed.WithLabelValues(stream.Stream, status).Inc()

				if err := consumer.Ack(ctx, msg.ID); err != nil {
					app.Logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to ack message")
				}
			}
		}
	}
}

// runPendingReconciler periodically reports payments that have sat in PENDING
// longer than pendingAge. These are gateway-exhausted or crashed requests; a
// terminal state cannot be inferred without querying the gateway, so the
// reconciler only surfaces them for operator review.
func runPendingReconciler(
	ctx context.Context,
	logger zerolog.Logger,
	app *bootstrap.App,
	repo payment.Repository,
	interval time.Duration,
	pendingAge time.Duration,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		pending, err := repo.GetByStatus(ctx, payment.StatusPending, reconcileBatchSize)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list pending payments")
			continue
		}

		cutoff := time.Now().Add(-pendingAge)
		stale := 0
		for _, p := range pending {
			if p.UpdatedAt().After(cutoff) {
				continue
			}
			stale++
			logger.Warn().
				Str("payment_id", p.ID().String()).
				Str("idempotency_key", p.IdempotencyKey().Value()).
				Str("gateway", string(p.Gateway())).
				Time("updated_at", p.UpdatedAt()).
				Msg("Payment stuck in PENDING")
		}

		app.Metrics.PendingPayments.Set(float64(stale))
		if stale > 0 {
			logger.Warn().Int("count", stale).Msg("Stale pending payments detected")
		}
	}
}
