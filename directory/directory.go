// Package directory loads the pharmacy and location reference file.
// The file seeds the pharmacy store and the location table at startup.
package directory

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/giygas/medishortage-api/geo"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDirectory []byte

// Directory is the decoded reference file
type Directory struct {
	Locations  []entities.Location `yaml:"locations"`
	Pharmacies []entities.Pharmacy `yaml:"pharmacies"`
}

// Load reads a directory file. An empty path returns the built-in directory.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Parse(defaultDirectory)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file %s: %w", path, err)
	}

	dir, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid directory file %s: %w", path, err)
	}
	return dir, nil
}

// Parse decodes and validates directory YAML
func Parse(raw []byte) (*Directory, error) {
	var dir Directory
	if err := yaml.Unmarshal(raw, &dir); err != nil {
		return nil, fmt.Errorf("failed to decode directory: %w", err)
	}

	if err := dir.validate(); err != nil {
		return nil, err
	}
	return &dir, nil
}

func (d *Directory) validate() error {
	for i, loc := range d.Locations {
		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("location %d has no name", i)
		}
		if err := geo.ValidateCoordinates(loc.Latitude, loc.Longitude); err != nil {
			return fmt.Errorf("location %q: %w", loc.Name, err)
		}
	}

	ids := make(map[int64]bool, len(d.Pharmacies))
	for i, p := range d.Pharmacies {
		if p.ID <= 0 {
			return fmt.Errorf("pharmacy %d has invalid id %d", i, p.ID)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate pharmacy id %d", p.ID)
		}
		ids[p.ID] = true

		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("pharmacy %d has no name", p.ID)
		}
		if err := geo.ValidateCoordinates(p.Latitude, p.Longitude); err != nil {
			return fmt.Errorf("pharmacy %d: %w", p.ID, err)
		}
		for medicine, price := range p.MedicinePrices {
			if strings.TrimSpace(medicine) == "" {
				return fmt.Errorf("pharmacy %d has an unnamed medicine", p.ID)
			}
			if price < 0 {
				return fmt.Errorf("pharmacy %d: negative price for %s", p.ID, medicine)
			}
		}
	}

	return nil
}
