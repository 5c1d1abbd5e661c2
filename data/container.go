// Package data provides thread-safe storage of the active medicine catalog.
// A reload builds a new similarity index off to the side and swaps it in
// atomically, so readers never block and never see a half-built catalog.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/similarity"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// snapshot is swapped as a whole so the index, its report and timestamp stay consistent
type snapshot struct {
	catalog     *similarity.Index
	report      *interfaces.CatalogQualityReport
	lastUpdated time.Time
}

// DataContainer holds the active catalog behind an atomic pointer for zero-downtime updates
type DataContainer struct {
	current         atomic.Pointer[snapshot]
	updating        atomic.Bool
	serverStartTime atomic.Pointer[time.Time]
}

// NewDataContainer creates a DataContainer with an empty catalog
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(&snapshot{
		catalog: similarity.NewIndex(nil),
		report:  &interfaces.CatalogQualityReport{DuplicateNames: []string{}},
	})
	return dc
}

func (dc *DataContainer) load() *snapshot {
	if s := dc.current.Load(); s != nil {
		return s
	}
	logging.Warn("Data container used before initialization")
	return &snapshot{}
}

// GetCatalog returns the active similarity index. It is never nil but may be empty.
func (dc *DataContainer) GetCatalog() *similarity.Index {
	if s := dc.load(); s.catalog != nil {
		return s.catalog
	}
	return similarity.NewIndex(nil)
}

// GetQualityReport returns the quality report of the active catalog
func (dc *DataContainer) GetQualityReport() *interfaces.CatalogQualityReport {
	if s := dc.load(); s.report != nil {
		return s.report
	}
	return &interfaces.CatalogQualityReport{DuplicateNames: []string{}}
}

// GetLastUpdated returns the timestamp of the last catalog swap
func (dc *DataContainer) GetLastUpdated() time.Time {
	return dc.load().lastUpdated
}

// IsUpdating returns true if a reload is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(&startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if t := dc.serverStartTime.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// UpdateData atomically replaces the catalog. A nil catalog is ignored.
func (dc *DataContainer) UpdateData(catalog *similarity.Index, report *interfaces.CatalogQualityReport) {
	if catalog == nil {
		logging.Warn("Ignoring catalog update without an index")
		return
	}
	if report == nil {
		report = &interfaces.CatalogQualityReport{TotalMedicines: catalog.Len(), DuplicateNames: []string{}}
	}

	dc.current.Store(&snapshot{
		catalog:     catalog,
		report:      report,
		lastUpdated: time.Now(),
	})
}

// BeginUpdate marks the start of a reload.
// Returns true if the reload can proceed, false if another one is in progress.
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a reload
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
