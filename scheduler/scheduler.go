// Package scheduler provides automated catalog reload scheduling and staleness monitoring
// for the medicine shortage API. It handles cron-based reloads, rebuilds the similarity
// index and swaps it into the data container using dependency injection.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/metrics"
	"github.com/giygas/medishortage-api/similarity"
	"github.com/go-co-op/gocron"
)

// DefaultReloadAt matches the RELOAD_AT default
const DefaultReloadAt = "06:00;18:00"

// staleAfter is the data age past which the hourly check starts warning
const staleAfter = 25 * time.Hour

// retryInterval is how often a load is retried while no catalog is served
const retryInterval = 5 * time.Minute

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles catalog reloads and staleness monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	loader    interfaces.CatalogLoader
	validator interfaces.DataValidator
	cache     interfaces.AlternativesCache
	reloadAt  string
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// cache may be nil; reloadAt uses gocron's "HH:MM;HH:MM" format.
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.CatalogLoader, validator interfaces.DataValidator, cache interfaces.AlternativesCache, reloadAt string) *Scheduler {
	if reloadAt == "" {
		reloadAt = DefaultReloadAt
	}
	return &Scheduler{
		dataStore: dataStore,
		loader:    loader,
		validator: validator,
		cache:     cache,
		reloadAt:  reloadAt,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial load then schedules reloads and staleness checks.
// A failed initial load is logged and retried; only scheduling errors are returned,
// so the rest of the API can serve while the catalog is missing.
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial catalog load, serving without catalog", "error", err, "retry_every", retryInterval.String())
	}

	_, err := s.scheduler.Every(1).Days().At(s.reloadAt).Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to reload catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule reloads", "reload_at", s.reloadAt, "error", err)
		return fmt.Errorf("failed to schedule reloads: %w", err)
	}

	_, err = s.scheduler.Every(1).Hour().WaitForSchedule().Do(s.checkStaleness)
	if err != nil {
		return fmt.Errorf("failed to schedule staleness check: %w", err)
	}

	_, err = s.scheduler.Every(retryInterval).WaitForSchedule().Do(s.retryMissingCatalog)
	if err != nil {
		return fmt.Errorf("failed to schedule catalog retry: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Catalog reloads scheduled", "reload_at", s.reloadAt)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// updateData loads the dataset, rebuilds the index and swaps it in
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.dataStore.BeginUpdate() {
		logging.Info("Reload already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting catalog reload at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	medicines, err := s.loader.LoadMedicines()
	if err != nil {
		metrics.CatalogReloadsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to load medicines: %w", err)
	}

	// A broken dataset must not replace a working catalog
	if err := s.validator.ValidateCatalog(medicines); err != nil {
		metrics.CatalogReloadsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("catalog rejected: %w", err)
	}

	index := similarity.NewIndex(medicines)
	report := s.validator.ReportDataQuality(medicines)
	report.VocabularySize = index.VocabularySize()

	s.dataStore.UpdateData(index, report)
	metrics.CatalogMedicines.Set(float64(index.Len()))
	metrics.CatalogReloadsTotal.WithLabelValues("success").Inc()

	if s.cache != nil {
		if err := s.cache.Purge(context.Background()); err != nil {
			logging.Warn("Failed to purge alternatives cache", "cache", s.cache.Name(), "error", err)
		}
	}

	logging.Info("Catalog reload completed",
		"duration", time.Since(start).String(),
		"medicine_count", index.Len(),
		"vocabulary_size", index.VocabularySize(),
		"fingerprint", index.Fingerprint())

	return nil
}

// checkStaleness warns when the catalog has not been reloaded for too long
func (s *Scheduler) checkStaleness() {
	lastUpdate := s.dataStore.GetLastUpdated()
	if time.Since(lastUpdate) > staleAfter {
		logging.Warn("Catalog hasn't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339))
	}
}

// retryMissingCatalog reloads when no catalog has been loaded yet
func (s *Scheduler) retryMissingCatalog() {
	if s.dataStore.GetCatalog().Len() > 0 {
		return
	}

	logging.Info("No catalog loaded, retrying")
	if err := s.updateData(); err != nil {
		logging.Error("Catalog retry failed", "error", err)
	}
}
