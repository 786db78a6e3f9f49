package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
	"github.com/couchcryptid/beach-status-etl/internal/pipeline"
)

func freezeClock(t *testing.T) time.Time {
	t.Helper()
	now := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })
	return now
}

func TestBackfill_WritesOneRowPerBeachPerDay(t *testing.T) {
	now := freezeClock(t)
	store := newMemStore()

	n, err := pipeline.Backfill(context.Background(), store, pipeline.BackfillOptions{
		Days:    3,
		Seed:    7,
		Beaches: []string{"Leddy Beach South", "North Beach"},
	}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 6, n)
	require.Len(t, store.history, 6)

	first := store.history[0]
	assert.Equal(t, now.Add(-72*time.Hour), first.RecordedAt)
	assert.Equal(t, "Jun 28 2025 12:00PM", first.LastUpdatedFromPDF)
	assert.Equal(t, "Leddy Beach South", first.BeachName)
	assert.Equal(t, "North Beach", store.history[1].BeachName)
	assert.Equal(t, now.Add(-24*time.Hour), store.history[5].RecordedAt)

	for _, e := range store.history {
		switch e.Status {
		case domain.StatusGreen:
			assert.Equal(t, "Open", e.Note)
		case domain.StatusYellow:
			assert.Contains(t, []string{"Alert Category 1 BGA level", "Advisory posted"}, e.Note)
		case domain.StatusRed:
			assert.Contains(t, []string{"Alert Category 3 BGA level", "Closed due to contamination"}, e.Note)
		default:
			t.Errorf("unexpected status %q", e.Status)
		}
	}
}

func TestBackfill_DeterministicWithSeed(t *testing.T) {
	freezeClock(t)
	opts := pipeline.BackfillOptions{Days: 20, Seed: 42, Beaches: []string{"A", "B", "C"}}

	a, b := newMemStore(), newMemStore()
	_, err := pipeline.Backfill(context.Background(), a, opts, discardLogger())
	require.NoError(t, err)
	_, err = pipeline.Backfill(context.Background(), b, opts, discardLogger())
	require.NoError(t, err)

	if diff := cmp.Diff(a.history, b.history); diff != "" {
		t.Errorf("same seed produced different history (-a +b):\n%s", diff)
	}
}

func TestBackfill_Weights(t *testing.T) {
	freezeClock(t)
	beaches := make([]string, 10)
	for i := range beaches {
		beaches[i] = string(rune('A' + i))
	}
	store := newMemStore()
	_, err := pipeline.Backfill(context.Background(), store, pipeline.BackfillOptions{
		Days: 1000, Seed: 1, Beaches: beaches,
	}, discardLogger())
	require.NoError(t, err)

	counts := map[domain.Status]int{}
	for _, e := range store.history {
		counts[e.Status]++
	}
	total := float64(len(store.history))
	assert.InDelta(t, 0.85, float64(counts[domain.StatusGreen])/total, 0.02)
	assert.InDelta(t, 0.12, float64(counts[domain.StatusYellow])/total, 0.02)
	assert.InDelta(t, 0.03, float64(counts[domain.StatusRed])/total, 0.01)
}

func TestBackfill_InvalidOptions(t *testing.T) {
	store := newMemStore()
	_, err := pipeline.Backfill(context.Background(), store, pipeline.BackfillOptions{Days: 0, Beaches: []string{"A"}}, discardLogger())
	require.Error(t, err)
	_, err = pipeline.Backfill(context.Background(), store, pipeline.BackfillOptions{Days: 3}, discardLogger())
	require.Error(t, err)
}

func TestBackfill_StopsOnAppendError(t *testing.T) {
	freezeClock(t)
	store := newMemStore()
	store.appendErr = errBoom
	n, err := pipeline.Backfill(context.Background(), store, pipeline.BackfillOptions{Days: 2, Seed: 1, Beaches: []string{"A"}}, discardLogger())
	require.ErrorIs(t, err, errBoom)
	assert.Zero(t, n)
}
