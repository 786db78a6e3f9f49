package filestore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// historyHeader is the fixed column order of the history CSV.
var historyHeader = []string{"record_timestamp_utc", "beach_name", "status", "last_updated_from_pdf", "note"}

// Store persists the latest snapshot as JSON and the history as append-only CSV.
// All operations are serialized by a single mutex.
// It implements pipeline.StateStore.
type Store struct {
	snapshotPath string
	historyPath  string
	logger       *slog.Logger
	mu           sync.Mutex
}

// New creates a Store for the given snapshot and history paths.
func New(snapshotPath, historyPath string, logger *slog.Logger) *Store {
	return &Store{
		snapshotPath: snapshotPath,
		historyPath:  historyPath,
		logger:       logger,
	}
}

// LoadSnapshot returns the last saved snapshot. A missing, unreadable or
// corrupt file yields an empty snapshot rather than an error.
func (s *Store) LoadSnapshot(_ context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.snapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("no prior snapshot, treating all beaches as new", "path", s.snapshotPath)
		return domain.Snapshot{}, nil
	}
	if err != nil {
		s.logger.Warn("snapshot unreadable, treating all beaches as new", "path", s.snapshotPath, "error", err)
		return domain.Snapshot{}, nil
	}

	var records []domain.BeachStatusRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("snapshot corrupt, treating all beaches as new", "path", s.snapshotPath, "error", err)
		return domain.Snapshot{}, nil
	}
	return domain.NewSnapshot(records), nil
}

// SaveSnapshot atomically replaces the snapshot with records. Beaches not in
// records are dropped.
func (s *Store) SaveSnapshot(_ context.Context, records []domain.BeachStatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records == nil {
		records = []domain.BeachStatusRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return writeFileAtomic(s.snapshotPath, append(data, '\n'))
}

// AppendHistory appends entries as one write, writing the header first when
// the file is new. A file left without a trailing newline by an interrupted
// write is terminated first so the new rows start on their own line.
func (s *Store) AppendHistory(_ context.Context, entries ...domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ensureDir(s.historyPath); err != nil {
		return err
	}
	f, err := os.OpenFile(s.historyPath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history: %w", err)
	}

	var buf bytes.Buffer
	if info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err != nil {
			return fmt.Errorf("read history tail: %w", err)
		}
		if last[0] != '\n' {
			s.logger.Warn("history file missing trailing newline, terminating partial row", "path", s.historyPath)
			buf.WriteByte('\n')
		}
	}

	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(historyHeader); err != nil {
			return fmt.Errorf("write history header: %w", err)
		}
	}
	for _, entry := range entries {
		if err := w.Write(entryToRow(entry)); err != nil {
			return fmt.Errorf("write history row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return f.Sync()
}

// HasSnapshotToday reports whether beach already has a history row dated
// today (UTC). The whole file is scanned.
func (s *Store) HasSnapshotToday(_ context.Context, beach string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := domain.Now()
	found := false
	err := s.scanHistory(func(e domain.HistoryEntry) bool {
		if e.BeachName == beach && domain.SameUTCDay(e.RecordedAt, today) {
			found = true
			return false
		}
		return true
	})
	return found, err
}

// History returns the rows for beach in file order, or every row when beach is empty.
func (s *Store) History(_ context.Context, beach string) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.HistoryEntry
	err := s.scanHistory(func(e domain.HistoryEntry) bool {
		if beach == "" || e.BeachName == beach {
			out = append(out, e)
		}
		return true
	})
	return out, err
}

// scanHistory streams parsed rows to fn until it returns false. Every row is
// one physical line and is parsed on its own, so a damaged line is skipped
// without affecting the lines after it.
func (s *Store) scanHistory(fn func(domain.HistoryEntry) bool) error {
	f, err := os.Open(s.historyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxHistoryLine)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, err := parseHistoryLine(line)
		if err != nil {
			s.logger.Warn("skipping unreadable history row", "line", lineNo, "error", err)
			continue
		}
		if lineNo == 1 && len(row) > 0 && row[0] == historyHeader[0] {
			continue
		}
		entry, err := rowToEntry(row)
		if err != nil {
			s.logger.Warn("skipping malformed history row", "line", lineNo, "error", err)
			continue
		}
		if !fn(entry) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	return nil
}

// maxHistoryLine bounds a single history row.
const maxHistoryLine = 1 << 20

func parseHistoryLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty row")
	}
	return row, err
}

func entryToRow(e domain.HistoryEntry) []string {
	return []string{
		e.RecordedAt.UTC().Format(time.RFC3339),
		singleLine(e.BeachName),
		string(e.Status),
		singleLine(e.LastUpdatedFromPDF),
		singleLine(e.Note),
	}
}

// singleLine keeps a field from spanning physical lines.
var singleLine = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace

// rowToEntry parses a CSV row. RFC 3339 with or without fractional seconds
// and numeric offsets is accepted.
func rowToEntry(row []string) (domain.HistoryEntry, error) {
	if len(row) != len(historyHeader) {
		return domain.HistoryEntry{}, fmt.Errorf("expected %d columns, got %d", len(historyHeader), len(row))
	}
	ts, err := time.Parse(time.RFC3339Nano, row[0])
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return domain.HistoryEntry{
		RecordedAt:         ts.UTC(),
		BeachName:          row[1],
		Status:             domain.ParseStatus(row[2]),
		LastUpdatedFromPDF: row[3],
		Note:               row[4],
	}, nil
}

// writeFileAtomic writes to a temp file beside path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
