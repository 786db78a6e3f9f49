package filestore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

const testBeach = "Leddy Beach South"

var testNow = time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(
		filepath.Join(dir, "status.json"),
		filepath.Join(dir, "historical_status.csv"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestLoadSnapshot_Missing(t *testing.T) {
	s := newTestStore(t)
	snap, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.snapshotPath, []byte("{not json"), 0o600))

	snap, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestLoadSnapshot_LegacyFormat(t *testing.T) {
	s := newTestStore(t)
	legacy := `[{"beach_name": "North Beach", "status": "RED", "date": "Jul 1 2024", "note": "Closed"}]`
	require.NoError(t, os.WriteFile(s.snapshotPath, []byte(legacy), 0o600))

	snap, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Contains(t, snap, "North Beach")
	assert.Equal(t, domain.StatusRed, snap["North Beach"].Status)
	assert.Nil(t, snap["North Beach"].Coordinates)
}

func TestSaveSnapshot_RoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := []domain.BeachStatusRecord{
		{BeachName: testBeach, Status: domain.StatusGreen, Date: "Jul 1 2024", Note: "Open", Coordinates: &domain.Coordinates{Lat: 44.5, Lon: -73.25}},
		{BeachName: "North Beach", Status: domain.StatusRed, Date: "Jul 1 2024", Note: "Closed"},
	}
	require.NoError(t, s.SaveSnapshot(ctx, first))

	snap, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.NewSnapshot(first), snap)

	// North Beach missing from the next run is dropped.
	require.NoError(t, s.SaveSnapshot(ctx, first[:1]))
	snap, err = s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap, 1)
	assert.NotContains(t, snap, "North Beach")

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(s.snapshotPath), ".status.json.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSaveSnapshot_EmptyWritesArray(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveSnapshot(context.Background(), nil))

	data, err := os.ReadFile(s.snapshotPath)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestAppendHistory_HeaderOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := domain.BeachStatusRecord{BeachName: testBeach, Status: domain.StatusRed, Date: "Jul 1 2024", Note: "Closed, due to contamination"}
	require.NoError(t, s.AppendHistory(ctx, domain.NewHistoryEntry(rec, testNow)))
	require.NoError(t, s.AppendHistory(ctx, domain.NewHistoryEntry(rec, testNow.Add(time.Hour))))

	data, err := os.ReadFile(s.historyPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "record_timestamp_utc,beach_name,status,last_updated_from_pdf,note", lines[0])
	assert.Equal(t, `2024-07-01T15:00:00Z,Leddy Beach South,red,Jul 1 2024,"Closed, due to contamination"`, lines[1])

	entries, err := s.History(ctx, testBeach)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Closed, due to contamination", entries[0].Note)
	assert.Equal(t, testNow, entries[0].RecordedAt)
}

func TestAppendHistory_NeverRewrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	existing := "record_timestamp_utc,beach_name,status,last_updated_from_pdf,note\n" +
		"2024-06-01T12:00:00.123456+00:00,North Beach,green,Jun 1 2024,Open\n"
	require.NoError(t, os.WriteFile(s.historyPath, []byte(existing), 0o600))

	require.NoError(t, s.AppendHistory(ctx, domain.HistoryEntry{RecordedAt: testNow, BeachName: testBeach, Status: domain.StatusGreen}))

	data, err := os.ReadFile(s.historyPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), existing))
}

func TestHasSnapshotToday(t *testing.T) {
	ctx := context.Background()
	freezeClock(t, testNow)
	s := newTestStore(t)

	has, err := s.HasSnapshotToday(ctx, testBeach)
	require.NoError(t, err)
	assert.False(t, has, "no history file yet")

	yesterday := testNow.Add(-24 * time.Hour)
	require.NoError(t, s.AppendHistory(ctx, domain.HistoryEntry{RecordedAt: yesterday, BeachName: testBeach, Status: domain.StatusGreen}))
	require.NoError(t, s.AppendHistory(ctx, domain.HistoryEntry{RecordedAt: testNow, BeachName: "North Beach", Status: domain.StatusGreen}))

	has, err = s.HasSnapshotToday(ctx, testBeach)
	require.NoError(t, err)
	assert.False(t, has, "only yesterday's row and another beach's row")

	require.NoError(t, s.AppendHistory(ctx, domain.HistoryEntry{RecordedAt: testNow.Add(-14 * time.Hour), BeachName: testBeach, Status: domain.StatusGreen}))
	has, err = s.HasSnapshotToday(ctx, testBeach)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestHasSnapshotToday_LegacyTimestamps(t *testing.T) {
	ctx := context.Background()
	freezeClock(t, testNow)
	s := newTestStore(t)
	legacy := "record_timestamp_utc,beach_name,status,last_updated_from_pdf,note\n" +
		"garbage,Leddy Beach South,green,x,\n" +
		"2024-07-01T03:04:05.678901+00:00,Leddy Beach South,green,Jul 1 2024,Open\n"
	require.NoError(t, os.WriteFile(s.historyPath, []byte(legacy), 0o600))

	has, err := s.HasSnapshotToday(ctx, testBeach)
	require.NoError(t, err)
	assert.True(t, has)

	all, err := s.History(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1, "garbage row skipped")
}

func TestAppendHistory_TruncatedRowDoesNotBlockLaterRows(t *testing.T) {
	ctx := context.Background()
	freezeClock(t, testNow)
	s := newTestStore(t)
	// An interrupted append left an unterminated quoted note and no newline.
	damaged := "record_timestamp_utc,beach_name,status,last_updated_from_pdf,note\n" +
		`2024-06-30T12:00:00Z,North Beach,red,Jun 30 2024,"Closed, due to`
	require.NoError(t, os.WriteFile(s.historyPath, []byte(damaged), 0o600))

	has, err := s.HasSnapshotToday(ctx, testBeach)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.AppendHistory(ctx, domain.HistoryEntry{RecordedAt: testNow, BeachName: testBeach, Status: domain.StatusRed, Note: "Closed"}))

	data, err := os.ReadFile(s.historyPath)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\"Closed, due to\n2024-07-01T15:00:00Z,Leddy Beach South,red,,Closed\n"))

	has, err = s.HasSnapshotToday(ctx, testBeach)
	require.NoError(t, err)
	assert.True(t, has, "the row after the damaged one is still read")

	entries, err := s.History(ctx, testBeach)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StatusRed, entries[0].Status)
}

func TestHistory_SkipsUnreadableLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	content := "record_timestamp_utc,beach_name,status,last_updated_from_pdf,note\n" +
		"2024-06-29T12:00:00Z,North Beach,green\n" +
		"\n" +
		"2024-06-30T12:00:00Z,North Beach,yellow,Jun 30 2024,\"Advisory, posted\"\n"
	require.NoError(t, os.WriteFile(s.historyPath, []byte(content), 0o600))

	entries, err := s.History(ctx, "North Beach")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Advisory, posted", entries[0].Note)
}

func TestAppendHistory_Batch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AppendHistory(ctx))
	_, err := os.Stat(s.historyPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "an empty batch writes nothing")

	require.NoError(t, s.AppendHistory(ctx,
		domain.HistoryEntry{RecordedAt: testNow, BeachName: testBeach, Status: domain.StatusGreen, Note: "Open\nall day"},
		domain.HistoryEntry{RecordedAt: testNow, BeachName: "North Beach", Status: domain.StatusYellow},
	))

	data, err := os.ReadFile(s.historyPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3, "header plus one line per entry")

	entries, err := s.History(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Open all day", entries[0].Note)
	assert.Equal(t, "North Beach", entries[1].BeachName)
}
