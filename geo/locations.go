package geo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/giygas/medishortage-api/medicineparser/entities"
	"golang.org/x/text/cases"
)

// LocationTable resolves city names to coordinates. It is read-only after creation.
type LocationTable struct {
	byName map[string]entities.Location
	all    []entities.Location
}

// NewLocationTable builds a table from named locations. Later duplicates win.
func NewLocationTable(locations []entities.Location) *LocationTable {
	table := &LocationTable{
		byName: make(map[string]entities.Location, len(locations)),
		all:    make([]entities.Location, 0, len(locations)),
	}

	for _, loc := range locations {
		key := foldLocationName(loc.Name)
		if key == "" {
			continue
		}
		table.byName[key] = loc
	}

	for _, loc := range table.byName {
		table.all = append(table.all, loc)
	}
	sort.Slice(table.all, func(i, j int) bool { return table.all[i].Name < table.all[j].Name })

	return table
}

// Resolve looks a location up by name, ignoring case and surrounding whitespace
func (t *LocationTable) Resolve(name string) (entities.Location, error) {
	if t == nil {
		return entities.Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, name)
	}

	loc, ok := t.byName[foldLocationName(name)]
	if !ok {
		return entities.Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, name)
	}
	return loc, nil
}

// All returns the known locations sorted by name
func (t *LocationTable) All() []entities.Location {
	if t == nil {
		return []entities.Location{}
	}
	return t.all
}

// Len returns the number of known locations
func (t *LocationTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byName)
}

func foldLocationName(name string) string {
	// A Caser keeps state, so one is created per call
	return cases.Fold().String(strings.TrimSpace(name))
}
