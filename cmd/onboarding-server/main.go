// cmd/onboarding-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	awsclients "receptionist-onboarding/internal/common/aws"
	"receptionist-onboarding/internal/common/config"
	"receptionist-onboarding/internal/common/database"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/common/observability"

	"receptionist-onboarding/internal/api"
	"receptionist-onboarding/internal/collaborators/gcal"
	"receptionist-onboarding/internal/collaborators/identity"
	"receptionist-onboarding/internal/collaborators/places"
	"receptionist-onboarding/internal/notify"
	"receptionist-onboarding/internal/provisioning"
	"receptionist-onboarding/internal/wizard"
)

// retryWithBackoff retries an init step with exponential backoff so the
// server survives infra that comes up a little later than it does.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.Wrap(zapLog)

	zapLog.Info("starting onboarding server",
		zap.String("env", cfg.App.Environment),
		zap.String("addr", cfg.Server.Addr()),
	)

	obs := observability.New("onboarding-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Redis (wizard state) ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()

	// --- Postgres (provisioning records) ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	// --- Wizard core ---
	store := wizard.NewRedisStore(redisClient.GetClient(), cfg.Wizard.StateKeyPrefix, cfg.Wizard.TTL(), log)
	provisioner := provisioning.NewStore(pg.GetDB(), log)

	controllerOpts := []wizard.ControllerOption{
		wizard.WithProvisioner(provisioner),
		wizard.WithObservability(obs),
	}

	// --- Notifications (optional) ---
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		notifier := notify.NewNotifier(cfg.Notifications, sesClient, snsClient, log)
		controllerOpts = append(controllerOpts, wizard.WithNotifier(notifier))
	}

	controller := wizard.NewController(store, store, log, controllerOpts...)

	// --- Collaborators ---
	serverOpts := []api.ServerOption{}

	if cfg.Google.Places.APIKey != "" {
		placesClient := places.NewClient(
			cfg.Google.Places.APIKey,
			cfg.Google.Places.BaseURL,
			config.GetDuration(cfg.Google.Places.Timeout),
			log,
		)
		serverOpts = append(serverOpts, api.WithDirectory(placesClient))
	} else {
		zapLog.Warn("google places api key not set, business search disabled")
	}

	if cfg.Identity.Clerk.SecretKey != "" {
		clerkClient := identity.NewClerkClient(
			cfg.Identity.Clerk.BaseURL,
			cfg.Identity.Clerk.SecretKey,
			cfg.Identity.Clerk.WebhookSecret,
			log,
		)
		serverOpts = append(serverOpts, api.WithWebhookVerifier(clerkClient))
	} else {
		zapLog.Warn("clerk secret key not set, identity webhooks disabled")
	}

	if cfg.Google.Calendar.ClientID != "" {
		connector := gcal.NewConnector(
			cfg.Google.Calendar.ClientID,
			cfg.Google.Calendar.ClientSecret,
			cfg.Google.Calendar.RedirectURL,
			cfg.Google.Calendar.CalendarID,
			log,
		)
		tokens := gcal.NewRedisTokenStore(redisClient.GetClient(), cfg.Wizard.StateKeyPrefix, cfg.Wizard.TTL(), log)
		serverOpts = append(serverOpts, api.WithCalendarConnector(connector), api.WithCalendarTokens(tokens))
	}

	// --- HTTP server ---
	server := api.NewServer(cfg.Server.Addr(), controller, log, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("onboarding server stopped")
}
