package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
	"github.com/couchcryptid/beach-status-etl/internal/observability"
)

// Fetcher downloads the raw report document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// TableExtractor turns document bytes into ordered rows of cells.
type TableExtractor interface {
	Extract(ctx context.Context, doc []byte) (domain.Table, error)
}

// StateStore persists the latest snapshot and the append-only history.
type StateStore interface {
	LoadSnapshot(ctx context.Context) (domain.Snapshot, error)
	SaveSnapshot(ctx context.Context, records []domain.BeachStatusRecord) error
	AppendHistory(ctx context.Context, entries ...domain.HistoryEntry) error
	HasSnapshotToday(ctx context.Context, beach string) (bool, error)
}

// SubscriberDirectory resolves the current notification recipients.
type SubscriberDirectory interface {
	Subscribers(ctx context.Context) ([]string, error)
}

// Notifier delivers a notification over one or more channels.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// ChangePublisher emits status changes to a downstream feed.
type ChangePublisher interface {
	PublishChanges(ctx context.Context, changes []domain.StatusChange) error
}

// HistoryMirror copies history rows to a secondary store.
type HistoryMirror interface {
	MirrorHistory(ctx context.Context, entry domain.HistoryEntry) error
}

// Stages bundles the collaborators of a run. Publisher and Mirror are optional.
type Stages struct {
	Fetcher     Fetcher
	Extractor   TableExtractor
	Store       StateStore
	Subscribers SubscriberDirectory
	Notifier    Notifier
	Publisher   ChangePublisher
	Mirror      HistoryMirror
}

// Options tunes normalization and notification.
type Options struct {
	Tracked        domain.TrackedBeach
	DailySnapshots bool
	NotifyTitle    string
	Coordinates    domain.CoordinateTable
	Geocoder       domain.Geocoder // nil disables the fallback
}

// RunResult summarizes one RunOnce call.
type RunResult struct {
	RunID     string
	Records   []domain.BeachStatusRecord
	Changes   []domain.StatusChange
	DailyRows int
	Skipped   int
	Tracked   domain.TrackedOutcome
	Notified  bool
}

// Pipeline runs the fetch, normalize, reconcile, persist, notify sequence.
type Pipeline struct {
	stages     Stages
	opts       Options
	reconciler *Reconciler
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(stages Stages, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.NotifyTitle == "" {
		opts.NotifyTitle = "Beach Status Change!"
	}
	return &Pipeline{
		stages:     stages,
		opts:       opts,
		reconciler: NewReconciler(stages.Store, opts.DailySnapshots, logger, metrics),
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful run yet")
	}
	return nil
}

// Collect fetches and normalizes the current report without touching state.
func (p *Pipeline) Collect(ctx context.Context) ([]domain.BeachStatusRecord, error) {
	records, _, err := p.collect(ctx, p.logger)
	return records, err
}

// RunOnce performs a single end-to-end pass. Fetch and extraction failures
// abort before any state is written and report an error tracked outcome.
func (p *Pipeline) RunOnce(ctx context.Context) (RunResult, error) {
	start := time.Now()
	res := RunResult{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", res.RunID)
	logger.Info("run started")

	prior, err := p.stages.Store.LoadSnapshot(ctx)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("store_error").Inc()
		return res, fmt.Errorf("load snapshot: %w", err)
	}

	records, skipped, err := p.collect(ctx, logger)
	res.Skipped = skipped
	if err != nil {
		res.Tracked = domain.ErrorOutcome(prior, p.opts.Tracked)
		p.metrics.RunsTotal.WithLabelValues(failureOutcome(err)).Inc()
		logger.Error("run aborted", "error", err, "tracked_status", res.Tracked.Current)
		return res, err
	}
	res.Records = records

	rec, err := p.reconciler.Reconcile(ctx, prior, records)
	res.Changes = rec.Changes
	res.DailyRows = rec.Daily
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("store_error").Inc()
		return res, err
	}

	if err := p.stages.Store.SaveSnapshot(ctx, records); err != nil {
		p.metrics.RunsTotal.WithLabelValues("store_error").Inc()
		return res, fmt.Errorf("save snapshot: %w", err)
	}

	p.publish(ctx, logger, rec)

	res.Tracked = domain.EvaluateTracked(prior, records, p.opts.Tracked)
	if res.Tracked.Notify {
		res.Notified = p.notify(ctx, logger, res.Tracked.Message)
	}

	p.ready.Store(true)
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastSuccessTimestamp.SetToCurrentTime()

	logger.Info("run complete",
		"beaches", len(records),
		"changes", len(res.Changes),
		"daily_rows", res.DailyRows,
		"tracked_status", res.Tracked.Current,
		"notified", res.Notified,
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Pipeline) collect(ctx context.Context, logger *slog.Logger) ([]domain.BeachStatusRecord, int, error) {
	fetchStart := time.Now()
	doc, err := p.stages.Fetcher.Fetch(ctx)
	p.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, 0, err
	}

	table, err := p.stages.Extractor.Extract(ctx, doc)
	if err != nil {
		return nil, 0, err
	}

	records, rowErrs, err := domain.NormalizeTable(table, p.opts.Coordinates)
	for _, re := range rowErrs {
		logger.Warn("skipping malformed row", "row", re.Index, "reason", re.Reason, "cells", len(re.Row))
	}
	p.metrics.RowsSkipped.Add(float64(len(rowErrs)))
	if err != nil {
		return nil, len(rowErrs), err
	}

	for i := range records {
		records[i] = domain.ResolveCoordinates(ctx, records[i], p.opts.Geocoder, logger)
	}
	p.metrics.BeachesExtracted.Set(float64(len(records)))
	return records, len(rowErrs), nil
}

// publish forwards changes and history rows to the optional secondary sinks.
// Failures are logged; the local state files stay authoritative.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, rec Reconciliation) {
	if p.stages.Publisher != nil && len(rec.Changes) > 0 {
		if err := p.stages.Publisher.PublishChanges(ctx, rec.Changes); err != nil {
			logger.Error("publish changes failed", "error", err, "changes", len(rec.Changes))
			p.metrics.SinkWrites.WithLabelValues("kafka", "error").Inc()
		} else {
			p.metrics.SinkWrites.WithLabelValues("kafka", "success").Inc()
		}
	}

	if p.stages.Mirror == nil {
		return
	}
	for _, entry := range rec.History {
		if err := p.stages.Mirror.MirrorHistory(ctx, entry); err != nil {
			logger.Warn("mirror history failed", "beach", entry.BeachName, "error", err)
			p.metrics.SinkWrites.WithLabelValues("dynamodb", "error").Inc()
			continue
		}
		p.metrics.SinkWrites.WithLabelValues("dynamodb", "success").Inc()
	}
}

// notify resolves recipients and dispatches the tracked-beach message.
// It reports whether delivery fully succeeded.
func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, message string) bool {
	recipients, err := p.stages.Subscribers.Subscribers(ctx)
	if err != nil {
		logger.Warn("subscriber lookup failed, sending push only", "error", err)
		p.metrics.SubscriberLookupFailures.Inc()
		recipients = nil
	}

	n := domain.Notification{
		Title:      p.opts.NotifyTitle,
		Message:    message,
		Recipients: recipients,
	}
	if err := p.stages.Notifier.Notify(ctx, n); err != nil {
		logger.Error("notification delivery failed", "error", err, "recipients", len(recipients))
		p.metrics.Notifications.WithLabelValues("ntfy", "error").Inc()
		return false
	}
	p.metrics.Notifications.WithLabelValues("ntfy", "success").Inc()
	logger.Info("notification sent", "message", message, "recipients", len(recipients))
	return true
}

func failureOutcome(err error) string {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return "fetch_error"
	}
	return "extraction_error"
}
