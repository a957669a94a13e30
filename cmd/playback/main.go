package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-track-playback/internal/adapter/dataset"
	httpadapter "github.com/couchcryptid/storm-track-playback/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-track-playback/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-playback/internal/config"
	"github.com/couchcryptid/storm-track-playback/internal/observability"
	"github.com/couchcryptid/storm-track-playback/internal/playback"
	"github.com/couchcryptid/storm-track-playback/internal/session"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if _, err := session.ParseYear(cfg.PlaybackDefaultYear); err != nil {
		logger.Error("invalid PLAYBACK_DEFAULT_YEAR", "error", err)
		os.Exit(1)
	}

	// Dataset source: remote URL when configured, otherwise a local file.
	var fetcher dataset.Fetcher
	if cfg.DatasetURL != "" {
		client := dataset.NewHTTPFetcher(cfg.DatasetURL, cfg.DatasetTimeout, logger)
		fetcher = dataset.WithRetry(client, cfg.DatasetAttempts, logger)
		logger.Info("dataset source", "url", cfg.DatasetURL, "timeout", cfg.DatasetTimeout, "attempts", cfg.DatasetAttempts)
	} else {
		fetcher = dataset.FileFetcher{Path: cfg.DatasetPath}
		logger.Info("dataset source", "path", cfg.DatasetPath)
	}
	source := dataset.NewSource(fetcher, cfg.DatasetCacheSize, logger, metrics)

	engine := playback.New(playback.Options{
		BaseInterval: cfg.PlaybackBaseInterval,
		Clock:        clockwork.NewRealClock(),
		Logger:       logger,
		Metrics:      metrics,
	})

	// Playback event sink (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		engine.Subscribe(publisher.Listener())
		logger.Info("kafka event sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka event sink disabled")
	}

	ctrl := session.NewController(engine, source, cfg.PlaybackDefaultYear, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ctrl, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial load. An unreadable dataset is the one fatal condition.
	go func() {
		if err := ctrl.Init(ctx); err != nil {
			logger.Error("initial dataset load failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	engine.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
