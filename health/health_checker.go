// Package health provides health checking functionality for the medicine shortage API.
package health

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
)

// Pinger is implemented by backing stores that can report their availability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Option configures optional dependencies of the health checker
type Option func(*HealthCheckerImpl)

// WithStore adds the report/pharmacy store to the health report
func WithStore(store Pinger) Option {
	return func(h *HealthCheckerImpl) {
		h.store = store
	}
}

// WithCache adds the alternatives cache to the health report
func WithCache(cache interfaces.AlternativesCache) Option {
	return func(h *HealthCheckerImpl) {
		h.cache = cache
	}
}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore   interfaces.DataStore
	store       Pinger
	cache       interfaces.AlternativesCache
	reloadTimes []time.Duration // offsets from midnight, sorted
	now         func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// reloadAt uses the RELOAD_AT format ("06:00;18:00").
func NewHealthChecker(dataStore interfaces.DataStore, reloadAt string, opts ...Option) interfaces.HealthChecker {
	h := &HealthCheckerImpl{
		dataStore:   dataStore,
		reloadTimes: parseReloadTimes(reloadAt),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthCheck returns HTTP-specific health data
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	catalog := h.dataStore.GetCatalog()
	report := h.dataStore.GetQualityReport()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := h.now().Sub(lastUpdate)

	storeStatus := "not_configured"
	if h.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			logging.Warn("Health check: store ping failed", "error", err)
			storeStatus = "unavailable"
		} else {
			storeStatus = "ok"
		}
	}

	switch {
	case catalog.Len() == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case storeStatus == "unavailable":
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":     lastUpdate.Format(time.RFC3339),
		"next_update":     h.CalculateNextUpdate().Format(time.RFC3339),
		"data_age_hours":  math.Round(dataAge.Hours()*10) / 10,
		"medicines":       catalog.Len(),
		"vocabulary_size": catalog.VocabularySize(),
		"is_updating":     isUpdating,
		"store":           storeStatus,
	}
	if report != nil {
		data["duplicate_names"] = len(report.DuplicateNames)
	}
	if h.cache != nil {
		data["cache"] = map[string]any{
			"backend": h.cache.Name(),
			"entries": h.cache.Len(),
		}
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = int64(h.now().Sub(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled update time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := h.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, offset := range h.reloadTimes {
		candidate := midnight.Add(offset)
		if now.Before(candidate) {
			return candidate
		}
	}

	// Past the last reload of the day: first reload tomorrow
	return midnight.AddDate(0, 0, 1).Add(h.reloadTimes[0])
}

// parseReloadTimes turns "HH:MM;HH:MM" into sorted offsets from midnight.
// Unparseable entries are dropped; an empty result falls back to 06:00 and 18:00.
func parseReloadTimes(reloadAt string) []time.Duration {
	var offsets []time.Duration
	for _, entry := range strings.Split(reloadAt, ";") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 2 {
			continue
		}
		hours, errH := strconv.Atoi(parts[0])
		minutes, errM := strconv.Atoi(parts[1])
		if errH != nil || errM != nil || hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
			continue
		}
		offsets = append(offsets, time.Duration(hours)*time.Hour+time.Duration(minutes)*time.Minute)
	}

	if len(offsets) == 0 {
		return []time.Duration{6 * time.Hour, 18 * time.Hour}
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}
