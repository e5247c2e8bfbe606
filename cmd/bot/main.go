package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/app"
	"github.com/ksumini/mapleland-discord-bot/internal/infra/config"
	idb "github.com/ksumini/mapleland-discord-bot/internal/infra/database"
	infradiscord "github.com/ksumini/mapleland-discord-bot/internal/infra/discord"
	"github.com/ksumini/mapleland-discord-bot/internal/infra/health"
	"github.com/ksumini/mapleland-discord-bot/internal/infra/logger"
	"github.com/ksumini/mapleland-discord-bot/internal/infra/scheduler"
	"github.com/ksumini/mapleland-discord-bot/migrator/postgres"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get().WithField("component", "main")
	log.WithFields(logrus.Fields{
		"environment":   cfg.Environment,
		"timezone":      cfg.Timezone.String(),
		"tick_interval": cfg.TickInterval.String(),
	}).Info("MapleLand raid bot starting")

	// Database
	db, err := idb.NewPostgresConnection(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.WithError(err).Fatal("Could not run database migrations")
	}
	log.Info("Database connection established and migrations applied")

	// Repositories
	raidRepo := idb.NewPostgresRaidRepository(db)
	memberRepo := idb.NewPostgresMemberRepository(db)
	distRepo := idb.NewPostgresDistributionRepository(db)

	// Discord session
	session, err := infradiscord.NewSession(cfg.DiscordToken)
	if err != nil {
		log.WithError(err).Fatal("Could not create Discord session")
	}
	notifier := infradiscord.NewSessionNotifier(session)
	announcer := infradiscord.NewChannelAnnouncer(session, cfg.AnnouncementChannelID)

	// Application services
	baseLogger := logger.Get().WithField("component", "app")
	raidSvc := app.NewRaidService(raidRepo, announcer, notifier, baseLogger.WithField("service", "raid"), cfg.Timezone)
	rosterSvc := app.NewRosterService(raidRepo, memberRepo, baseLogger.WithField("service", "roster"))
	memberSvc := app.NewMemberService(memberRepo, baseLogger.WithField("service", "member"))
	distSvc := app.NewDistributionService(distRepo, baseLogger.WithField("service", "distribution"))
	reminderSvc := app.NewReminderService(raidRepo, notifier, baseLogger.WithField("service", "reminder"))

	// Gateway handlers
	handler := infradiscord.NewHandler(raidSvc, rosterSvc, memberSvc, distSvc, cfg.Timezone, logger.Get().WithField("component", "discord"))
	handler.Register(session)

	if err := session.Open(); err != nil {
		log.WithError(err).Fatal("Could not open Discord gateway connection")
	}
	defer session.Close()

	if err := infradiscord.RegisterCommands(session); err != nil {
		log.WithError(err).Fatal("Could not register slash commands")
	}
	log.Info("Slash commands registered")

	// Reminder scheduler
	reminderScheduler := scheduler.NewReminderScheduler(
		reminderSvc,
		logger.Get().WithField("component", "scheduler"),
		cfg.TickInterval,
		cfg.Timezone,
	)
	if err := reminderScheduler.Start(); err != nil {
		log.WithError(err).Fatal("Could not start reminder scheduler")
	}

	// Health endpoint
	healthSrv := health.NewServer(cfg.HealthAddr, logger.Get().WithField("component", "health"))
	healthSrv.Start()

	log.Info("Application setup complete")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application")
	reminderScheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	healthSrv.Stop(shutdownCtx)
	log.Info("Application shut down gracefully")
}
