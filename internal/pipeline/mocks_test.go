package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
	"github.com/couchcryptid/beach-status-etl/internal/observability"
)

// --- mocks ---

type mockFetcher struct {
	doc []byte
	err error
}

func (m *mockFetcher) Fetch(_ context.Context) ([]byte, error) {
	return m.doc, m.err
}

// mockExtractor ignores the document and returns a fixed table.
type mockExtractor struct {
	table domain.Table
	err   error
}

func (m *mockExtractor) Extract(_ context.Context, _ []byte) (domain.Table, error) {
	return m.table, m.err
}

// memStore is an in-memory StateStore.
type memStore struct {
	mu        sync.Mutex
	snapshot  domain.Snapshot
	history   []domain.HistoryEntry
	saves     int
	appends   int
	appendErr error
	saveErr   error
	dailyErr  error
}

func newMemStore() *memStore {
	return &memStore{snapshot: domain.Snapshot{}}
}

func (s *memStore) LoadSnapshot(_ context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(domain.Snapshot, len(s.snapshot))
	for k, v := range s.snapshot {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) SaveSnapshot(_ context.Context, records []domain.BeachStatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.snapshot = domain.NewSnapshot(records)
	return nil
}

func (s *memStore) AppendHistory(_ context.Context, entries ...domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	if s.appendErr != nil {
		return s.appendErr
	}
	s.history = append(s.history, entries...)
	return nil
}

func (s *memStore) HasSnapshotToday(_ context.Context, beach string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dailyErr != nil {
		return false, s.dailyErr
	}
	today := domain.Now()
	for _, e := range s.history {
		if e.BeachName == beach && domain.SameUTCDay(e.RecordedAt, today) {
			return true, nil
		}
	}
	return false, nil
}

type mockDirectory struct {
	recipients []string
	err        error
}

func (m *mockDirectory) Subscribers(_ context.Context) ([]string, error) {
	return m.recipients, m.err
}

type mockNotifier struct {
	sent []domain.Notification
	err  error
}

func (m *mockNotifier) Notify(_ context.Context, n domain.Notification) error {
	m.sent = append(m.sent, n)
	return m.err
}

type mockPublisher struct {
	published []domain.StatusChange
	err       error
}

func (m *mockPublisher) PublishChanges(_ context.Context, changes []domain.StatusChange) error {
	m.published = append(m.published, changes...)
	return m.err
}

type mockMirror struct {
	entries []domain.HistoryEntry
}

func (m *mockMirror) MirrorHistory(_ context.Context, e domain.HistoryEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

type stubGeocoder struct {
	coords domain.Coordinates
	err    error
}

func (g stubGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.Coordinates, error) {
	return g.coords, g.err
}

var errBoom = errors.New("boom")

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
