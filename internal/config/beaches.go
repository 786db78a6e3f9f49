package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// beachesFile is the YAML layout of the static coordinate table:
//
//	beaches:
//	  - name: Leddy Beach South
//	    lat: 44.5018
//	    lon: -73.2527
//	    aliases: [Leddy South]
type beachesFile struct {
	Beaches []domain.BeachLocation `yaml:"beaches"`
}

// LoadBeaches reads the coordinate table. A missing file yields an empty
// table so deployments without coordinates still run.
func LoadBeaches(path string) ([]domain.BeachLocation, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read beaches file: %w", err)
	}

	var f beachesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse beaches file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(f.Beaches))
	for i, b := range f.Beaches {
		if b.Name == "" {
			return nil, fmt.Errorf("beaches file %s: entry %d has no name", path, i)
		}
		if b.Lat < -90 || b.Lat > 90 || b.Lon < -180 || b.Lon > 180 {
			return nil, fmt.Errorf("beaches file %s: %q has out-of-range coordinates", path, b.Name)
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("beaches file %s: duplicate beach %q", path, b.Name)
		}
		seen[b.Name] = true
	}
	return f.Beaches, nil
}
