package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"museumhub/internal/analytics"
	"museumhub/internal/booking"
	"museumhub/internal/channel"
	"museumhub/internal/config"
	"museumhub/internal/constants"
	"museumhub/internal/database"
	"museumhub/internal/dialogue"
	"museumhub/internal/models"
	"museumhub/internal/service"
	"museumhub/internal/session"
	"museumhub/internal/tracing"
	"museumhub/pkg/instagram"
	"museumhub/pkg/speech"
	"museumhub/pkg/wshub"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.json", "path to configuration file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := run(*configPath, *verbose, logger); err != nil {
		logger.WithError(err).Fatal("Service failed")
	}
}

func run(configPath string, verbose bool, logger *logrus.Logger) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Tracing shutdown failed")
		}
	}()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("Database close failed")
		}
	}()

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.WithError(err).Warn("Analytics publisher close failed")
		}
	}()

	igClient := instagram.NewClient(
		cfg.Instagram.APIBaseURL,
		cfg.Instagram.APIVersion,
		cfg.Instagram.PageAccessToken,
		time.Duration(cfg.Instagram.TimeoutSec)*time.Second,
	)
	speechTimeout := time.Duration(cfg.Speech.TimeoutSec) * time.Second
	transcriber, err := speech.NewTranscriber(cfg.Speech.ASRProvider, cfg.Speech.ASRBaseURL, cfg.Speech.ASRAPIKey, speechTimeout)
	if err != nil {
		return err
	}
	synthesizer, err := speech.NewSynthesizer(cfg.Speech.TTSProvider, cfg.Speech.TTSBaseURL, cfg.Speech.TTSAPIKey, speechTimeout)
	if err != nil {
		return err
	}

	website := channel.NewWebsiteChannel(db, logger)
	ig := channel.NewInstagramChannel(db, igClient, cfg.Instagram.VerifyToken, logger)
	voice := channel.NewVoiceChannel(db, transcriber, synthesizer, speechTimeout, logger)

	registry := channel.NewRegistry()
	for _, ch := range []channel.Channel{website, ig, voice} {
		if err := registry.Register(ch); err != nil {
			return err
		}
	}

	manager := session.NewManager(db, registry, publisher, logger)
	inventory := booking.NewService(db, cfg.Booking.TicketPrice, cfg.Booking.Currency, logger)
	engine := dialogue.NewEngine(inventory, logger)
	hub := wshub.New(logger)

	scheduler := service.NewScheduler(manager, cfg.Cleanup.DaysInactive, cfg.Cleanup.Schedule, logger)
	if err := scheduler.Start(); err != nil {
		return err
	}

	srv := NewServer(cfg, manager, engine, inventory, hub, website, ig, voice, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		scheduler.Stop(context.Background())
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultGracefulShutdownSec*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}

// newPublisher connects the analytics publisher, or a noop when disabled.
func newPublisher(cfg *models.Config, logger *logrus.Logger) (analytics.Publisher, error) {
	if !cfg.Analytics.Enabled {
		logger.Info("Analytics publishing is disabled")
		return analytics.NoopPublisher{}, nil
	}
	return analytics.NewAMQPPublisher(cfg.Analytics.AMQPURL, cfg.Analytics.Exchange, logger)
}
