package domain

import "fmt"

// TrackedOutcome is the notification decision for the tracked beach.
type TrackedOutcome struct {
	Previous Status
	Current  Status
	Note     string
	Notify   bool
	Message  string
}

// EvaluateTracked compares the tracked beach's prior and new status.
// A successful extraction that lacks the beach yields StatusNotFound.
// Error on either side never notifies, and neither does a beach that was
// absent before and is still absent.
func EvaluateTracked(prior Snapshot, records []BeachStatusRecord, tracked TrackedBeach) TrackedOutcome {
	prev := StatusUnknown
	old, hadPrior := prior[tracked.Name]
	if hadPrior {
		prev = old.Status
	}

	out := TrackedOutcome{Previous: prev, Current: StatusNotFound}
	for _, r := range records {
		if r.BeachName == tracked.Name {
			out.Current = r.Status
			out.Note = r.Note
			break
		}
	}

	if out.Current == StatusError || prev == StatusError || out.Current == prev {
		return out
	}
	if out.Current == StatusNotFound && !hadPrior {
		return out
	}
	out.Notify = true
	out.Message = ChangeMessage(tracked.DisplayName, prev, out.Current, out.Note)
	return out
}

// ErrorOutcome is the tracked outcome of a run that failed before any
// records were produced.
func ErrorOutcome(prior Snapshot, tracked TrackedBeach) TrackedOutcome {
	prev := StatusUnknown
	if old, ok := prior[tracked.Name]; ok {
		prev = old.Status
	}
	return TrackedOutcome{Previous: prev, Current: StatusError}
}

// ChangeMessage renders the human-readable transition text.
func ChangeMessage(display string, from, to Status, note string) string {
	msg := fmt.Sprintf("%s status changed from %s to %s.", display, from.Upper(), to.Upper())
	if note != "" {
		msg += " Note: " + note
	}
	return msg
}
