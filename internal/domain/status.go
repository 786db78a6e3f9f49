package domain

import "strings"

// Status is the canonical advisory status of a beach.
type Status string

const (
	StatusGreen    Status = "green"
	StatusYellow   Status = "yellow"
	StatusRed      Status = "red"
	StatusUnknown  Status = "unknown"
	StatusError    Status = "error"
	StatusNotFound Status = "not_found"
)

// ParseStatus maps a stored status string back onto the enumeration.
// Anything unrecognized becomes StatusUnknown.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusGreen, StatusYellow, StatusRed, StatusUnknown, StatusError, StatusNotFound:
		return st
	default:
		return StatusUnknown
	}
}

// Upper returns the status in the form used in notification messages.
func (s Status) Upper() string {
	return strings.ToUpper(string(s))
}

// UnmarshalText keeps decoded snapshots inside the enumeration.
func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}
