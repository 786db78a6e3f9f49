package domain

import (
	"context"
	"strings"
)

// Geocoder resolves a place name to coordinates. A zero result with a nil
// error means the provider had no match.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, name string) (Coordinates, error)
}

// BeachLocation is one entry of the static coordinate table.
type BeachLocation struct {
	Name    string   `yaml:"name"`
	Lat     float64  `yaml:"lat"`
	Lon     float64  `yaml:"lon"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// CoordinateTable is the static beach name to coordinate mapping.
// Lookups ignore case and surrounding whitespace.
type CoordinateTable struct {
	byName map[string]Coordinates
	names  []string
}

// NewCoordinateTable indexes locations by name and alias.
func NewCoordinateTable(locs []BeachLocation) CoordinateTable {
	t := CoordinateTable{byName: make(map[string]Coordinates, len(locs))}
	for _, l := range locs {
		c := Coordinates{Lat: l.Lat, Lon: l.Lon}
		t.byName[tableKey(l.Name)] = c
		t.names = append(t.names, l.Name)
		for _, a := range l.Aliases {
			t.byName[tableKey(a)] = c
		}
	}
	return t
}

// Lookup returns the coordinates for name, if mapped.
func (t CoordinateTable) Lookup(name string) (Coordinates, bool) {
	c, ok := t.byName[tableKey(name)]
	return c, ok
}

// Names returns the canonical beach names in file order.
func (t CoordinateTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Len reports the number of canonical entries.
func (t CoordinateTable) Len() int { return len(t.names) }

func tableKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
