package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
	"github.com/couchcryptid/beach-status-etl/internal/observability"
)

// HistoryWriter is the subset of StateStore the reconciler needs.
// AppendHistory writes the given entries as a single batch.
type HistoryWriter interface {
	AppendHistory(ctx context.Context, entries ...domain.HistoryEntry) error
	HasSnapshotToday(ctx context.Context, beach string) (bool, error)
}

// Reconciliation is what a reconcile pass decided and wrote.
type Reconciliation struct {
	Changes []domain.StatusChange
	History []domain.HistoryEntry // rows appended, changes and daily rows alike
	Daily   int
}

// Reconciler compares fresh records against the prior snapshot and appends
// history rows for changed beaches and, optionally, one daily row per beach.
type Reconciler struct {
	store   HistoryWriter
	daily   bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReconciler creates a Reconciler. daily enables the once-per-UTC-day row
// for beaches that did not change.
func NewReconciler(store HistoryWriter, daily bool, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	return &Reconciler{store: store, daily: daily, logger: logger, metrics: metrics}
}

// Reconcile writes at most one history row per beach. Rows are decided for
// every beach first and then appended as one batch, so a failed append leaves
// nothing behind for the next run to duplicate. An append failure aborts so
// the caller can skip the snapshot save and re-detect the change later.
func (r *Reconciler) Reconcile(ctx context.Context, prior domain.Snapshot, records []domain.BeachStatusRecord) (Reconciliation, error) {
	var out Reconciliation
	now := domain.Now()

	for _, rec := range records {
		old, seen := prior[rec.BeachName]
		changed := !seen || old.Status != rec.Status || old.Note != rec.Note

		if !changed {
			if !r.daily || r.loggedToday(ctx, rec.BeachName) {
				continue
			}
			out.History = append(out.History, domain.NewHistoryEntry(rec, now))
			out.Daily++
			continue
		}

		out.History = append(out.History, domain.NewHistoryEntry(rec, now))
		prev := domain.StatusUnknown
		if seen {
			prev = old.Status
		}
		out.Changes = append(out.Changes, domain.StatusChange{
			ID:             uuid.NewString(),
			BeachName:      rec.BeachName,
			PreviousStatus: prev,
			Status:         rec.Status,
			PreviousNote:   old.Note,
			Note:           rec.Note,
			Date:           rec.Date,
			Coordinates:    rec.Coordinates,
			ObservedAt:     now,
		})
	}

	if len(out.History) == 0 {
		return out, nil
	}
	if err := r.store.AppendHistory(ctx, out.History...); err != nil {
		return Reconciliation{}, fmt.Errorf("append %d history rows: %w", len(out.History), err)
	}

	r.metrics.StatusChanges.Add(float64(len(out.Changes)))
	r.metrics.DailySnapshots.Add(float64(out.Daily))
	for _, c := range out.Changes {
		r.logger.Info("status change logged",
			"beach", c.BeachName,
			"previous", c.PreviousStatus,
			"status", c.Status,
		)
	}
	if out.Daily > 0 {
		r.logger.Debug("daily snapshots logged", "rows", out.Daily)
	}
	return out, nil
}

// loggedToday reports whether beach already has a row for the current UTC
// day. A failed check counts as not logged, so the daily row is written.
func (r *Reconciler) loggedToday(ctx context.Context, beach string) bool {
	logged, err := r.store.HasSnapshotToday(ctx, beach)
	if err != nil {
		r.logger.Warn("daily snapshot check failed, logging row", "beach", beach, "error", err)
		return false
	}
	return logged
}
