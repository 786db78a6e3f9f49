package subscribers

import (
	"context"
	"strings"
)

// Static is a fixed subscriber list. A nil Static is the "none" directory.
type Static []string

// Subscribers returns a copy of the list.
func (s Static) Subscribers(_ context.Context) ([]string, error) {
	return dedupe(s), nil
}

// dedupe drops blanks and repeated addresses, keeping first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
