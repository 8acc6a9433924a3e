package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	paymentApp "github.com/cassiomorais/payment-orchestrator/internal/application/payment"
	"github.com/cassiomorais/payment-orchestrator/internal/bootstrap"
	"github.com/cassiomorais/payment-orchestrator/internal/controller"
	"github.com/cassiomorais/payment-orchestrator/internal/infrastructure/gateway"
	infraRedis "github.com/cassiomorais/payment-orchestrator/internal/infrastructure/redis"
	"github.com/cassiomorais/payment-orchestrator/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "payment-orchestrator-api", "payments")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Infrastructure ---
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	store := infraRedis.NewStore(app.Redis)
	publisher := infraRedis.NewStreamPublisher(app.Redis)
	gatewayFactory := gateway.NewFactory()

	// --- Use cases ---
	processPaymentUC := paymentApp.NewProcessPaymentUseCase(
		paymentRepo,
		store,
		publisher,
		gatewayFactory,
		app.Logger,
		app.Metrics,
		paymentApp.Config{
			LockTTL:    app.Config.Payment.LockTTL,
			CacheTTL:   app.Config.Payment.CacheTTL,
			MaxRetries: uint(app.Config.Payment.MaxRetries),
			RetryDelay: app.Config.Payment.RetryDelay,
		},
	)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:           app.Pool,
		RedisClient:    app.Redis,
		PaymentRepo:    paymentRepo,
		ProcessPayment: processPaymentUC,
		Metrics:        app.Metrics,
		CORSConfig:     app.Config.Server.CORS,
		Logger:         app.Logger,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
