package medicineparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/medicineparser/entities"
)

// Dataset column names, matched after trimming surrounding whitespace
const (
	columnName         = "Medicine Name"
	columnComposition  = "Composition"
	columnType         = "Type"
	columnManufacturer = "Manufacturer"
	columnImageURL     = "Image URL"
	columnUses         = "Uses"
	columnSideEffects  = "Side_effects"
)

// Defaults for optional columns
const (
	DefaultType         = "Tablet"
	DefaultManufacturer = "Unknown"
)

var dosageRegex = regexp.MustCompile(`(?i)(\d+)\s?mg`)

// ExtractDosage sums every "<N>mg" (or "<N> mg") amount found in a composition
func ExtractDosage(composition string) int {
	total := 0
	for _, match := range dosageRegex.FindAllStringSubmatch(composition, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		total += n
	}
	return total
}

// makeMedicines reads a CSV dataset and converts every usable row into a Medicine
func makeMedicines(r io.Reader) ([]entities.Medicine, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset is empty")
		}
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	for _, required := range []string{columnName, columnComposition} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("dataset is missing required column %q", required)
		}
	}

	field := func(record []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var medicines []entities.Medicine
	lineCount := 0
	skippedMissingName := 0
	skippedFormatErrors := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineCount++
		if err != nil {
			skippedFormatErrors++
			continue
		}

		name := field(record, columnName)
		if name == "" {
			skippedMissingName++
			continue
		}

		composition := field(record, columnComposition)

		medicine := entities.Medicine{
			Name:         name,
			Composition:  composition,
			DosageMg:     ExtractDosage(composition),
			Type:         field(record, columnType),
			Manufacturer: field(record, columnManufacturer),
			ImageURL:     field(record, columnImageURL),
			Uses:         field(record, columnUses),
			SideEffects:  field(record, columnSideEffects),
		}
		if medicine.Type == "" {
			medicine.Type = DefaultType
		}
		if medicine.Manufacturer == "" {
			medicine.Manufacturer = DefaultManufacturer
		}

		medicines = append(medicines, medicine)
	}

	if skippedMissingName > 0 || skippedFormatErrors > 0 {
		logging.Info("Dataset skip statistics",
			"missing_name", skippedMissingName,
			"format_errors", skippedFormatErrors,
			"total_lines", lineCount,
			"records_parsed", len(medicines))
	}

	return medicines, nil
}
