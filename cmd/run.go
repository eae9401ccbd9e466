package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"wagerbot/bot"
	"wagerbot/config"
	"wagerbot/database"
	"wagerbot/events"
	"wagerbot/infrastructure"
	"wagerbot/infrastructure/observability"
	"wagerbot/repository"
	"wagerbot/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	cleanups := &cleanupStack{}
	defer func() {
		// Give cleanup operations time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cleanups.run(shutdownCtx)
		log.Info("Shutdown completed")
	}()

	if err := start(ctx, cfg, cleanups); err != nil {
		return err
	}

	log.Info("Bot is running. Press CTRL-C to exit.")

	// Wait for context cancellation
	<-ctx.Done()

	log.Info("Shutting down...")
	return nil
}

// discordBot is the part of the bot Run needs to stop it
type discordBot interface {
	Close() error
}

// newDiscordBot connects the Discord delivery layer
var newDiscordBot = func(cfg *config.Config, betEngine service.BetEngine, statsService service.StatsService, metrics *observability.MetricsProvider) (discordBot, error) {
	botConfig := bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.DiscordGuildID,
	}
	return bot.New(botConfig, cfg, betEngine, statsService, metrics)
}

// start brings every component up, registering each one's cleanup as soon
// as it exists so that a later failure still releases it
func start(ctx context.Context, cfg *config.Config, cleanups *cleanupStack) error {
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageBackend,
	}).Info("Starting wagerbot...")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	cleanups.push("metrics", metrics.Shutdown)
	metrics.Register(eventBus)

	// Initialize storage
	betRepo, statsRepo, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	cleanups.push("storage", func(context.Context) error {
		closeStorage()
		return nil
	})

	// Initialize services
	statsService, err := service.NewStatsService(ctx, statsRepo, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize stats service: %w", err)
	}
	betEngine, err := service.NewBetEngine(ctx, betRepo, statsService, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize bet engine: %w", err)
	}
	activeBets := len(betEngine.ListActive(ctx))
	metrics.SetInitialActiveBets(activeBets)
	log.WithField("active_bets", activeBets).Info("Services initialized")

	// Forward committed events to NATS when configured
	if cfg.NATSServers != "" {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		cleanups.push("nats", func(context.Context) error {
			return natsClient.Close()
		})
		infrastructure.NewEventForwarder(natsClient, cfg.OTelServiceName).Register(eventBus)
		log.WithField("servers", cfg.NATSServers).Info("Forwarding bet events to NATS")
	}

	// Create and start Discord bot
	discord, err := newDiscordBot(cfg, betEngine, statsService, metrics)
	if err != nil {
		return fmt.Errorf("failed to create Discord bot: %w", err)
	}
	cleanups.push("discord", func(context.Context) error {
		return discord.Close()
	})
	return nil
}

// openStorage builds the repositories for the configured backend
func openStorage(ctx context.Context, cfg *config.Config) (service.BetRepository, service.StatsRepository, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageBackendPostgres:
		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Database connection established successfully")
		return repository.NewPostgresBetRepository(db), repository.NewPostgresStatsRepository(db), db.Close, nil

	default:
		log.WithFields(log.Fields{
			"bets_file":  cfg.BetsFile,
			"stats_file": cfg.StatsFile,
		}).Info("Using JSON file storage")
		return repository.NewFileBetRepository(cfg.BetsFile), repository.NewFileStatsRepository(cfg.StatsFile), func() {}, nil
	}
}

// configureLogging applies the configured level and format to the global logger
func configureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
