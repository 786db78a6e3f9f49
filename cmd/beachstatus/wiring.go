package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"github.com/couchcryptid/beach-status-etl/internal/adapter/dynamo"
	"github.com/couchcryptid/beach-status-etl/internal/adapter/filestore"
	kafkaadapter "github.com/couchcryptid/beach-status-etl/internal/adapter/kafka"
	"github.com/couchcryptid/beach-status-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/beach-status-etl/internal/adapter/ntfy"
	"github.com/couchcryptid/beach-status-etl/internal/adapter/pdf"
	"github.com/couchcryptid/beach-status-etl/internal/adapter/source"
	"github.com/couchcryptid/beach-status-etl/internal/adapter/subscribers"
	"github.com/couchcryptid/beach-status-etl/internal/config"
	"github.com/couchcryptid/beach-status-etl/internal/domain"
	"github.com/couchcryptid/beach-status-etl/internal/observability"
	"github.com/couchcryptid/beach-status-etl/internal/pipeline"
)

var (
	metricsOnce sync.Once
	metrics     *observability.Metrics
)

// processMetrics registers metrics once per process.
func processMetrics() *observability.Metrics {
	metricsOnce.Do(func() { metrics = observability.NewMetrics() })
	return metrics
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	store    *filestore.Store
	pipeline *pipeline.Pipeline
	closers  []io.Closer
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, observability.NewLogger(cfg), nil
}

// newApp wires every collaborator from configuration. A nil fetcher means
// the configured source URL.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, fetcher pipeline.Fetcher) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: processMetrics(),
		store:   filestore.New(cfg.SnapshotPath, cfg.HistoryPath, logger),
	}

	if fetcher == nil {
		fetcher = source.NewHTTPFetcher(cfg.SourceURL, cfg.FetchTimeout, logger)
	}

	stages := pipeline.Stages{
		Fetcher:     fetcher,
		Extractor:   pdf.NewExtractor(logger),
		Store:       a.store,
		Subscribers: newDirectory(cfg, logger),
		Notifier:    a.notifier(),
	}

	if cfg.KafkaEnabled() {
		pub := kafkaadapter.NewPublisher(cfg, logger)
		stages.Publisher = pub
		a.closers = append(a.closers, pub)
		logger.Info("kafka change feed enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	if cfg.DynamoHistoryTable != "" {
		mirror, err := dynamo.NewHistoryMirror(ctx, cfg.DynamoHistoryTable, logger)
		if err != nil {
			return nil, err
		}
		stages.Mirror = mirror
		logger.Info("dynamodb history mirror enabled", "table", cfg.DynamoHistoryTable)
	}

	a.pipeline = pipeline.New(stages, pipeline.Options{
		Tracked:        cfg.TrackedBeach,
		DailySnapshots: cfg.DailySnapshots,
		NotifyTitle:    cfg.NtfyTitle,
		Coordinates:    cfg.Coordinates,
		Geocoder:       newGeocoder(cfg, a.metrics, logger),
	}, logger, a.metrics)

	return a, nil
}

func (a *app) notifier() pipeline.Notifier {
	return pipeline.MultiNotifier{
		ntfy.NewNotifier(a.cfg.NtfyBaseURL, a.cfg.NtfyTopic, a.cfg.NtfyTimeout, a.logger),
		pipeline.LogNotifier{Logger: a.logger},
	}
}

func (a *app) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

func newDirectory(cfg *config.Config, logger *slog.Logger) pipeline.SubscriberDirectory {
	switch cfg.SubscriberSource {
	case config.SubscriberSourceHTTP:
		return subscribers.NewHTTPDirectory(cfg.SubscribersURL, cfg.SubscribersToken, cfg.SubscribersTimeout, logger)
	case config.SubscriberSourceStatic:
		return subscribers.Static(cfg.StaticSubscribers)
	default:
		return subscribers.Static(nil)
	}
}

func newGeocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	if !cfg.MapboxEnabled {
		logger.Debug("mapbox geocoding disabled")
		return nil
	}
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxRegion, cfg.MapboxTimeout, metrics, logger)
	logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	return mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
