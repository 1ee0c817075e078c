package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"example.com/exercisetracker/internal/api"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
	"example.com/exercisetracker/internal/logging"
	"example.com/exercisetracker/internal/persistence"
	httptransport "example.com/exercisetracker/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("exercise tracker stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.StoreTimeout*2)
	repo, backend, err := persistence.Open(connectCtx, persistence.Options{
		URL:           cfg.DatabaseURL,
		MongoDatabase: cfg.MongoDatabase,
	})
	cancelConnect()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("close store")
		}
	}()
	logger.Info().Str("backend", string(backend)).Msg("store ready")

	var notifier domain.Notifier = domain.NoopNotifier{}
	if cfg.EventsEnabled() {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn().Err(err).Msg("close event publisher")
			}
		}()
		notifier = publisher
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.EventsTopic).Msg("event publishing enabled")
	}

	service := domain.NewService(repo,
		domain.WithNotifier(notifier),
		domain.WithStoreTimeout(cfg.StoreTimeout),
		domain.WithNotifyTimeout(cfg.PublishTimeout),
		domain.WithDefaultLimit(cfg.DefaultLogLimit),
	)
	service.OnNotifyError(func(event string, err error) {
		logger.Warn().Err(err).Str("event_type", event).Msg("event publish failed")
	})

	var errs api.ErrorWriter = api.StructuredErrors{}
	if cfg.ErrorMode == config.ErrorModeLegacy {
		errs = api.LegacyErrors{}
	}

	router := api.NewRouter(api.RouterConfig{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		Logger:            logger,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, api.NewHandler(service, errs))

	serverCfg := httptransport.DefaultServerConfig(cfg.HTTPAddress)
	serverCfg.ShutdownTimeout = cfg.ShutdownTimeout

	return httptransport.Run(ctx, serverCfg, router, logger)
}
