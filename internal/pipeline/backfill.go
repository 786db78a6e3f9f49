package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// SourceDateLayout matches the "last updated" column of the published report.
const SourceDateLayout = "Jan 02 2006 03:04PM"

// HistoryAppender is the subset of StateStore that backfill writes to.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, entries ...domain.HistoryEntry) error
}

// BackfillOptions configures synthetic history generation.
type BackfillOptions struct {
	Days    int
	Seed    uint64 // zero picks a random seed
	Beaches []string
}

var (
	yellowNotes = []string{"Alert Category 1 BGA level", "Advisory posted"}
	redNotes    = []string{"Alert Category 3 BGA level", "Closed due to contamination"}
)

// Backfill appends one synthetic row per beach per day for the past Days
// days, mostly green with occasional yellow and red. It returns the number
// of rows written.
func Backfill(ctx context.Context, store HistoryAppender, opts BackfillOptions, logger *slog.Logger) (int, error) {
	if opts.Days <= 0 {
		return 0, errors.New("days must be positive")
	}
	if len(opts.Beaches) == 0 {
		return 0, errors.New("no beaches to backfill")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	base := domain.Now().Add(-time.Duration(opts.Days) * 24 * time.Hour)
	written := 0
	for day := range opts.Days {
		at := base.Add(time.Duration(day) * 24 * time.Hour)
		for _, beach := range opts.Beaches {
			if err := ctx.Err(); err != nil {
				return written, err
			}
			status, note := syntheticStatus(rng)
			entry := domain.HistoryEntry{
				RecordedAt:         at,
				BeachName:          beach,
				Status:             status,
				LastUpdatedFromPDF: at.Format(SourceDateLayout),
				Note:               note,
			}
			if err := store.AppendHistory(ctx, entry); err != nil {
				return written, fmt.Errorf("append backfill row: %w", err)
			}
			written++
		}
		logger.Debug("backfilled day", "day", day+1, "of", opts.Days, "date", at.Format(time.DateOnly))
	}

	logger.Info("backfill complete", "rows", written, "days", opts.Days, "seed", seed)
	return written, nil
}

// syntheticStatus draws green 85%, yellow 12%, red 3%.
func syntheticStatus(rng *rand.Rand) (domain.Status, string) {
	switch n := rng.IntN(100); {
	case n < 85:
		return domain.StatusGreen, "Open"
	case n < 97:
		return domain.StatusYellow, yellowNotes[rng.IntN(len(yellowNotes))]
	default:
		return domain.StatusRed, redNotes[rng.IntN(len(redNotes))]
	}
}
