package cmd

import (
	"context"
	"fmt"
	"time"

	"challenger/api"
	"challenger/bot"
	"challenger/config"
	"challenger/database"
	"challenger/events"
	"challenger/infrastructure"
	"challenger/infrastructure/observability"
	"challenger/models"
	"challenger/repository"
	"challenger/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the HTTP service
func Run(ctx context.Context) error {
	log.Info("Starting arena...")

	cfg := config.Get()
	cfg.ConfigureLogging()

	log.Info("Connecting to database...")
	db, err := database.NewConnectionWithOptions(ctx, cfg.GetDatabaseURL(), database.Options{
		StatementTimeout: cfg.StatementTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()

	log.Info("Initializing metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()
	metrics.Attach(eventBus)

	natsClient, err := startEventForwarding(ctx, cfg, eventBus, metrics)
	if err != nil {
		return err
	}

	var notifier *bot.Notifier
	if cfg.DiscordToken != "" {
		log.Info("Initializing Discord notifier...")
		notifier, err = bot.New(bot.Config{Token: cfg.DiscordToken, ChannelID: cfg.DiscordChannelID})
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		notifier.Attach(eventBus)
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	log.Info("Initializing services...")
	services := api.Services{
		Matches:        service.NewMatchService(uowFactory, cfg),
		Wallets:        service.NewWalletService(uowFactory),
		Reconciliation: service.NewReconciliationService(uowFactory),
		Authorization:  service.NewAuthorizationService(uowFactory, cfg),
	}

	stopReconciliation := func() {}
	if cfg.ReconciliationInterval > 0 {
		stopReconciliation = service.StartReconciliationWorker(ctx, services.Reconciliation, cfg.ReconciliationInterval, cfg.ReconciliationAutoFix)
	}

	server := api.NewServer(cfg, api.NewRouter(cfg, services, metrics))
	server.Start()

	log.WithField("environment", cfg.Environment).Info("Arena is running")
	<-ctx.Done()

	log.Info("Shutting down arena...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	stopReconciliation()

	if notifier != nil {
		if err := notifier.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord notifier")
		}
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

// startEventForwarding connects to NATS and mirrors committed events to JetStream.
// Returns a nil client when NATS is not configured.
func startEventForwarding(ctx context.Context, cfg *config.Config, bus *events.Bus, metrics *observability.MetricsProvider) (*infrastructure.NATSClient, error) {
	if cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, event forwarding disabled")
		return nil, nil
	}

	log.Info("Connecting to NATS...")
	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.EventStreamName, mapper.GetAllSubjects()); err != nil {
		client.Close()
		return nil, err
	}

	publisher := infrastructure.NewNATSEventPublisher(client, mapper)
	publisher.OnPublished(metrics.RecordNATSMessagePublished)
	publisher.Attach(bus)
	return client, nil
}

// RunAudit runs one reconciliation pass from the command line
func RunAudit(ctx context.Context, fix bool) (*models.DuplicateReport, error) {
	cfg := config.Get()
	cfg.ConfigureLogging()

	db, err := database.NewConnectionWithOptions(ctx, cfg.GetDatabaseURL(), database.Options{
		StatementTimeout: cfg.StatementTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	svc := service.NewReconciliationService(repository.NewUnitOfWorkFactory(db, events.NewBus()))
	if fix {
		return svc.FixDuplicates(ctx)
	}
	return svc.AnalyzeDuplicates(ctx)
}
