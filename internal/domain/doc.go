// Package domain models beach water-quality advisories as published in the
// City of Burlington public report.
//
// # Data Source
//
// The report is a single-page PDF table, one row per beach:
//
//	Beach | Status | Last Updated | Note
//
// The status column carries a colored glyph rather than text. The date column
// is free text whose format changes between publications, so it is kept as an
// opaque display string and never parsed.
//
// # Status Resolution
//
// Indicator glyphs map as follows:
//
//	🟢 green, ⚫ green (neutral/no advisory), 🟡 yellow, 🔴 red, anything else unknown
//
// The note column is more reliable than the glyph, which has been observed to
// lag behind the note. Notes are matched case-insensitively and the first rule
// that matches wins:
//
//	"alert" or "category 2"  → yellow
//	"open"                   → green
//	"closed"                 → red
//	no keyword               → indicator status
//
// # Canonical Statuses
//
// Every record carries one of green, yellow, red, unknown, error or
// not_found. error is reserved for runs that could not fetch or parse the
// report; not_found marks the tracked beach missing from an otherwise good
// table. Neither is ever produced by [NormalizeRow].
//
// # Notifications
//
// Only the tracked beach (see [TrackedBeach]) triggers notifications. The
// decision lives in [EvaluateTracked]; error on either side of a transition
// is never reported as a change.
package domain
