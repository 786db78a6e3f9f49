package domain

import (
	"fmt"
	"strings"
)

// FetchError reports a transport failure, timeout, or non-success response
// while retrieving the source document.
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError means no coherent table could be read from the document.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract table: %s: %v", e.Reason, e.Err)
	}
	return "extract table: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RowError describes a single malformed row. It is never fatal to a run.
type RowError struct {
	Index  int
	Row    RawRow
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d [%s]: %s", e.Index, strings.Join(e.Row, " | "), e.Reason)
}

// SubscriberLookupError is returned by subscriber directories. Callers treat
// it as an empty recipient list.
type SubscriberLookupError struct {
	Source string
	Err    error
}

func (e *SubscriberLookupError) Error() string {
	return fmt.Sprintf("subscriber lookup (%s): %v", e.Source, e.Err)
}

func (e *SubscriberLookupError) Unwrap() error { return e.Err }

// DeliveryError is a failed delivery to one recipient or channel.
type DeliveryError struct {
	Channel   string
	Recipient string // empty for broadcast deliveries
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Recipient == "" {
		return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
	}
	return fmt.Sprintf("deliver via %s to %s: %v", e.Channel, e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
