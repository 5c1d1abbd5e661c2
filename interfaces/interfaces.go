// Package interfaces defines core abstractions for the medicine shortage API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/giygas/medishortage-api/similarity"
)

// CatalogQualityReport provides a summary of data quality issues in the medicine catalog
type CatalogQualityReport struct {
	TotalMedicines              int
	DuplicateNames              []string
	MedicinesWithoutComposition int
	MedicinesWithoutDosage      int // Compositions with no "<N>mg" term
	VocabularySize              int
}

// DataStore defines the contract for catalog storage operations.
// It provides thread-safe access to the similarity index with atomic
// swaps for zero-downtime reloads.
type DataStore interface {
	// Data retrieval methods
	GetCatalog() *similarity.Index
	GetQualityReport() *CatalogQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateData(catalog *similarity.Index, report *CatalogQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogLoader defines the contract for loading the medicine dataset
type CatalogLoader interface {
	LoadMedicines() ([]entities.Medicine, error)
}

// PharmacyDirectory provides the candidate pharmacies for proximity searches
type PharmacyDirectory interface {
	ListPharmacies(ctx context.Context) ([]entities.Pharmacy, error)
}

// InventoryStore updates the medicine prices a pharmacy stocks
type InventoryStore interface {
	UpsertInventory(ctx context.Context, pharmacyID int64, medicine string, price float64) error
}

// ReportStore persists shortage reports and the alerts derived from them
type ReportStore interface {
	SaveReport(ctx context.Context, report entities.ShortageReport) error
	CountReports(ctx context.Context, medicine, location string, since time.Time) (int, error)
	HasActiveAlert(ctx context.Context, medicine, location string) (bool, error)
	CreateAlert(ctx context.Context, alert entities.ShortageAlert) (created bool, err error)
	ListActiveAlerts(ctx context.Context) ([]entities.ShortageAlert, error)
}

// ShortageMonitor records shortage reports and raises alerts once enough of them accumulate
type ShortageMonitor interface {
	Report(ctx context.Context, report entities.ShortageReport) (entities.ShortageReport, *entities.ShortageAlert, error)
	Active(ctx context.Context) ([]entities.ShortageAlert, error)
}

// AlternativesCache memoises alternatives lookups.
// A miss is reported with ok == false and a nil error.
type AlternativesCache interface {
	Get(ctx context.Context, key string) (result entities.AlternativesResult, ok bool, err error)
	Set(ctx context.Context, key string, result entities.AlternativesResult) error
	Purge(ctx context.Context) error
	Len() int
	Name() string
	Close() error
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog reloads and staleness checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// Catalog endpoints
	ListMedicines(w http.ResponseWriter, r *http.Request)
	SuggestMedicines(w http.ResponseWriter, r *http.Request)
	MedicineDetails(w http.ResponseWriter, r *http.Request)
	FindAlternatives(w http.ResponseWriter, r *http.Request)
	FindAlternativesPost(w http.ResponseWriter, r *http.Request)

	// Proximity endpoints
	NearbyPharmacies(w http.ResponseWriter, r *http.Request)
	SearchPharmacies(w http.ResponseWriter, r *http.Request)
	ListLocations(w http.ResponseWriter, r *http.Request)
	UpdateInventory(w http.ResponseWriter, r *http.Request)

	// Shortage reporting
	SubmitReport(w http.ResponseWriter, r *http.Request)
	ListAlerts(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status, details and the HTTP status to send
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled update time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It ensures data integrity and consistency.
type DataValidator interface {
	// ValidateMedicine checks if a medicine entity is valid
	ValidateMedicine(m *entities.Medicine) error

	// ValidateCatalog performs comprehensive validation of a loaded catalog
	ValidateCatalog(medicines []entities.Medicine) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(medicines []entities.Medicine) *CatalogQualityReport

	// ValidateInput validates user supplied medicine or location names
	ValidateInput(input string) error
}
