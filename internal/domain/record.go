package domain

import (
	"sort"
	"time"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat" dynamodbav:"lat"`
	Lon float64 `json:"lon" yaml:"lon" dynamodbav:"lon"`
}

// RawRow is one extracted table row, cells in column order.
type RawRow []string

// Table is the ordered row sequence produced by a table extractor.
// The first row is the header.
type Table []RawRow

// BeachStatusRecord is one beach's observed state for a single run.
type BeachStatusRecord struct {
	BeachName   string       `json:"beach_name"`
	Status      Status       `json:"status"`
	Date        string       `json:"date"` // as published; the source format is inconsistent
	Note        string       `json:"note"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// HistoryEntry is one append-only audit row.
type HistoryEntry struct {
	RecordedAt         time.Time `json:"record_timestamp_utc"`
	BeachName          string    `json:"beach_name"`
	Status             Status    `json:"status"`
	LastUpdatedFromPDF string    `json:"last_updated_from_pdf"`
	Note               string    `json:"note"`
}

// NewHistoryEntry stamps a record with the given write time in UTC.
func NewHistoryEntry(r BeachStatusRecord, at time.Time) HistoryEntry {
	return HistoryEntry{
		RecordedAt:         at.UTC(),
		BeachName:          r.BeachName,
		Status:             r.Status,
		LastUpdatedFromPDF: r.Date,
		Note:               r.Note,
	}
}

// Snapshot maps beach name to its most recent record.
type Snapshot map[string]BeachStatusRecord

// NewSnapshot indexes records by beach name. Later duplicates win.
func NewSnapshot(records []BeachStatusRecord) Snapshot {
	s := make(Snapshot, len(records))
	for _, r := range records {
		s[r.BeachName] = r
	}
	return s
}

// Records returns the snapshot sorted by beach name.
func (s Snapshot) Records() []BeachStatusRecord {
	out := make([]BeachStatusRecord, 0, len(s))
	for _, r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BeachName < out[j].BeachName })
	return out
}

// StatusChange is published for every beach whose status or note moved.
type StatusChange struct {
	ID             string       `json:"id"`
	BeachName      string       `json:"beach_name"`
	PreviousStatus Status       `json:"previous_status"`
	Status         Status       `json:"status"`
	PreviousNote   string       `json:"previous_note,omitempty"`
	Note           string       `json:"note"`
	Date           string       `json:"date"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	ObservedAt     time.Time    `json:"observed_at"`
}

// Notification is a human-readable message and the contacts it goes to.
type Notification struct {
	Title      string
	Message    string
	Recipients []string
}

// TrackedBeach names the single beach whose transitions are notified.
type TrackedBeach struct {
	Name        string // as it appears in the source table
	DisplayName string
}
