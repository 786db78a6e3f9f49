package domain

import (
	"errors"
	"strings"
)

// Indicator glyphs as they appear in the source table's status column.
const (
	glyphGreen  = "🟢"
	glyphBlack  = "⚫"
	glyphYellow = "🟡"
	glyphRed    = "🔴"
)

// dateUnavailable stands in for a missing publication date.
const dateUnavailable = "N/A"

// Note keywords in evaluation order. The first match decides.
var noteRules = []struct {
	keywords []string
	status   Status
}{
	{keywords: []string{"alert", "category 2"}, status: StatusYellow},
	{keywords: []string{"open"}, status: StatusGreen},
	{keywords: []string{"closed"}, status: StatusRed},
}

// ClassifyIndicator maps the glyphs in an indicator cell to a status.
// The black glyph is treated as green.
func ClassifyIndicator(cell string) Status {
	switch {
	case strings.Contains(cell, glyphGreen), strings.Contains(cell, glyphBlack):
		return StatusGreen
	case strings.Contains(cell, glyphYellow):
		return StatusYellow
	case strings.Contains(cell, glyphRed):
		return StatusRed
	default:
		return StatusUnknown
	}
}

// ApplyNotePriority lets the note override the indicator. Source icons are
// sometimes stale while the note is kept current.
func ApplyNotePriority(initial Status, note string) Status {
	lower := strings.ToLower(note)
	for _, rule := range noteRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.status
			}
		}
	}
	return initial
}

// NormalizeRow converts one raw table row into a record. index is the row's
// position in the table and is only used for error reporting.
func NormalizeRow(index int, row RawRow, coords CoordinateTable) (BeachStatusRecord, error) {
	if len(row) < 2 {
		return BeachStatusRecord{}, &RowError{Index: index, Row: row, Reason: "expected at least 2 cells"}
	}

	name := strings.TrimSpace(row[0])
	if name == "" {
		return BeachStatusRecord{}, &RowError{Index: index, Row: row, Reason: "empty beach name"}
	}

	rec := BeachStatusRecord{
		BeachName: name,
		Date:      cellOr(row, 2, dateUnavailable),
		Note:      cellOr(row, 3, ""),
	}
	rec.Status = ApplyNotePriority(ClassifyIndicator(row[1]), rec.Note)

	if c, ok := coords.Lookup(name); ok {
		rec.Coordinates = &c
	}
	return rec, nil
}

// NormalizeTable skips the header and normalizes every remaining row.
// Spacer rows (empty first cell) are dropped silently; other malformed rows
// are returned as RowErrors alongside the good records. An ExtractionError is
// returned when nothing usable is left.
func NormalizeTable(table Table, coords CoordinateTable) ([]BeachStatusRecord, []*RowError, error) {
	if len(table) < 2 {
		return nil, nil, &ExtractionError{Reason: "table has fewer than 2 rows"}
	}

	var (
		records []BeachStatusRecord
		rowErrs []*RowError
	)
	for i, row := range table[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		rec, err := NormalizeRow(i+1, row, coords)
		if err != nil {
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				rowErrs = append(rowErrs, rowErr)
			}
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, rowErrs, &ExtractionError{Reason: "no beach rows found"}
	}
	return records, rowErrs, nil
}

// cellOr returns the trimmed cell at i, or def when it is missing or blank.
func cellOr(row RawRow, i int, def string) string {
	if i >= len(row) {
		return def
	}
	if v := strings.TrimSpace(row[i]); v != "" {
		return v
	}
	return def
}
