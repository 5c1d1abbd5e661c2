// Package validation provides catalog and user input validation for the medicine shortage API.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/medicineparser/entities"
)

const (
	maxInputLength    = 100
	maxInputWords     = 10
	maxNameLength     = 200
	maxFieldLength    = 2000
	maxRepeatedLetter = 10
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Medicine and location names: letters in any script, digits and the
	// punctuation found in product names ("Betadine 10% Ointment", "Allegra-M 120/10",
	// "Neosporin H & C", "Vitamin B_12", "Dexa 1:1000")
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-\.\+'%/(),_:&]+$`)

	// Substring checks are cheaper than regexes for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "url(", "@import",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "&&", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateMedicine checks if a medicine entity is valid
func (v *DataValidatorImpl) ValidateMedicine(m *entities.Medicine) error {
	if m == nil {
		return fmt.Errorf("medicine is nil")
	}

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("medicine has an empty name")
	}

	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name too long for %.20q: %d characters", m.Name, len(m.Name))
	}

	if !utf8.ValidString(m.Name) || !utf8.ValidString(m.Composition) {
		return fmt.Errorf("invalid UTF-8 in %q", m.Name)
	}

	if m.DosageMg < 0 {
		return fmt.Errorf("negative dosage for %s: %d", m.Name, m.DosageMg)
	}

	for field, value := range map[string]string{
		"composition":  m.Composition,
		"uses":         m.Uses,
		"side effects": m.SideEffects,
	} {
		if len(value) > maxFieldLength {
			return fmt.Errorf("%s too long for %s: %d characters", field, m.Name, len(value))
		}
	}

	return nil
}

// ValidateCatalog performs comprehensive validation of a loaded catalog.
// Duplicate names are tolerated (the first occurrence wins lookups) and only reported.
func (v *DataValidatorImpl) ValidateCatalog(medicines []entities.Medicine) error {
	if len(medicines) == 0 {
		return fmt.Errorf("no medicines found")
	}

	for i := range medicines {
		if err := v.ValidateMedicine(&medicines[i]); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	withComposition := 0
	for _, m := range medicines {
		if strings.TrimSpace(m.Composition) != "" {
			withComposition++
		}
	}
	if withComposition == 0 {
		return fmt.Errorf("no medicine has a composition")
	}

	return nil
}

// ReportDataQuality generates a data quality report with all issues found
func (v *DataValidatorImpl) ReportDataQuality(medicines []entities.Medicine) *interfaces.CatalogQualityReport {
	report := &interfaces.CatalogQualityReport{
		TotalMedicines: len(medicines),
		DuplicateNames: []string{},
	}

	counts := make(map[string]int, len(medicines))
	for _, m := range medicines {
		counts[m.Name]++

		if strings.TrimSpace(m.Composition) == "" {
			report.MedicinesWithoutComposition++
		}
		if m.DosageMg == 0 {
			report.MedicinesWithoutDosage++
		}
	}

	for name, count := range counts {
		if count > 1 {
			report.DuplicateNames = append(report.DuplicateNames, name)
		}
	}
	sort.Strings(report.DuplicateNames)

	if len(report.DuplicateNames) > 0 {
		logging.Warn("Duplicate medicine names in catalog",
			"count", len(report.DuplicateNames),
			"sample", sample(report.DuplicateNames, 10),
		)
	}
	if report.MedicinesWithoutComposition > 0 {
		logging.Warn("Medicines without composition", "count", report.MedicinesWithoutComposition)
	}
	if report.MedicinesWithoutDosage > 0 {
		logging.Info("Medicines without a mg dosage", "count", report.MedicinesWithoutDosage)
	}

	return report
}

// ValidateInput validates user supplied medicine or location names
func (v *DataValidatorImpl) ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if !utf8.ValidString(input) || strings.ContainsRune(input, 0) {
		return fmt.Errorf("input contains invalid characters")
	}

	if utf8.RuneCountInString(input) > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	// Many short words make substring matching expensive
	if len(strings.Fields(input)) > maxInputWords {
		return fmt.Errorf("query too complex: maximum %d words allowed", maxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(trimmed) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . + ' %% / ( ) , _ : & are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition reports a rune repeated more than maxRepeatedLetter times in a row
func hasExcessiveRepetition(input string) bool {
	var last rune
	run := 0
	for _, r := range input {
		if r == last {
			run++
		} else {
			last = r
			run = 1
		}
		if run > maxRepeatedLetter {
			return true
		}
	}
	return false
}

func sample(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
