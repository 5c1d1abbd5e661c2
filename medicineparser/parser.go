package medicineparser

import (
	"fmt"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/medicineparser/entities"
)

// Compile-time check to ensure MedicinesParser implements CatalogLoader interface
var _ interfaces.CatalogLoader = (*MedicinesParser)(nil)

// MedicinesParser loads the medicine dataset from a file path or URL
type MedicinesParser struct {
	source string
}

// NewMedicinesParser creates a new MedicinesParser reading from source
func NewMedicinesParser(source string) *MedicinesParser {
	return &MedicinesParser{source: source}
}

// LoadMedicines implements the CatalogLoader interface
func (p *MedicinesParser) LoadMedicines() ([]entities.Medicine, error) {
	reader, err := readDataset(p.source)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", p.source, err)
	}

	medicines, err := makeMedicines(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", p.source, err)
	}

	logging.Info("Medicine dataset parsed", "source", p.source, "count", len(medicines))
	return medicines, nil
}
