// Package alerts turns patient shortage reports into regional alerts.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/giygas/medishortage-api/metrics"
	"github.com/google/uuid"
)

const (
	DefaultThreshold = 3
	DefaultWindow    = 7 * 24 * time.Hour

	AlertTypeShortage = "shortage"
	SeverityMedium    = "medium"

	alertDescription = "Multiple shortage reports received"
)

// Compile-time check to ensure Monitor implements ShortageMonitor interface
var _ interfaces.ShortageMonitor = (*Monitor)(nil)

// ErrInvalidReport is returned for reports missing required fields or with bad values
var ErrInvalidReport = errors.New("invalid report")

// Monitor stores reports and raises an alert once enough of them accumulate
// for the same medicine and location inside the window.
type Monitor struct {
	store     interfaces.ReportStore
	threshold int
	window    time.Duration
	now       func() time.Time
}

// Option configures a Monitor
type Option func(*Monitor)

// WithThreshold sets how many reports raise an alert
func WithThreshold(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.threshold = n
		}
	}
}

// WithWindow sets how far back reports are counted
func WithWindow(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.window = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMonitor creates a Monitor backed by store
func NewMonitor(store interfaces.ReportStore, opts ...Option) *Monitor {
	m := &Monitor{
		store:     store,
		threshold: DefaultThreshold,
		window:    DefaultWindow,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Report validates and stores report, then checks whether an alert is due.
// The returned alert is nil when none was raised.
func (m *Monitor) Report(ctx context.Context, report entities.ShortageReport) (entities.ShortageReport, *entities.ShortageAlert, error) {
	if err := normalize(&report); err != nil {
		return report, nil, err
	}

	report.ID = uuid.NewString()
	report.CreatedAt = m.now().UTC()

	if err := m.store.SaveReport(ctx, report); err != nil {
		return report, nil, err
	}
	metrics.ShortageReportsTotal.WithLabelValues(report.ReportType).Inc()

	alert, err := m.check(ctx, report.MedicineName, report.LocationName)
	if err != nil {
		// The report itself is stored; alerting is retried on the next report
		logging.Error("Failed to evaluate shortage alert", "medicine", report.MedicineName,
			"location", report.LocationName, "error", err)
		return report, nil, nil
	}
	return report, alert, nil
}

func (m *Monitor) check(ctx context.Context, medicine, location string) (*entities.ShortageAlert, error) {
	since := m.now().UTC().Add(-m.window)
	count, err := m.store.CountReports(ctx, medicine, location, since)
	if err != nil {
		return nil, err
	}
	if count < m.threshold {
		return nil, nil
	}

	// Cheap pre-check; CreateAlert enforces uniqueness under concurrent reports
	active, err := m.store.HasActiveAlert(ctx, medicine, location)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, nil
	}

	alert := entities.ShortageAlert{
		ID:           uuid.NewString(),
		MedicineName: medicine,
		LocationName: location,
		AlertType:    AlertTypeShortage,
		Severity:     SeverityMedium,
		Description:  alertDescription,
		IsActive:     true,
		CreatedAt:    m.now().UTC(),
	}
	created, err := m.store.CreateAlert(ctx, alert)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}

	metrics.ShortageAlertsTotal.Inc()
	logging.Warn("Shortage alert raised", "medicine", medicine, "location", location, "reports", count)
	return &alert, nil
}

// Active returns the active alerts, most severe first
func (m *Monitor) Active(ctx context.Context) ([]entities.ShortageAlert, error) {
	return m.store.ListActiveAlerts(ctx)
}

func normalize(r *entities.ShortageReport) error {
	r.MedicineName = strings.TrimSpace(r.MedicineName)
	r.LocationName = strings.TrimSpace(r.LocationName)
	r.Description = strings.TrimSpace(r.Description)
	r.ReportType = strings.ToLower(strings.TrimSpace(r.ReportType))

	if r.MedicineName == "" {
		return fmt.Errorf("%w: medicine_name is required", ErrInvalidReport)
	}
	if r.LocationName == "" {
		return fmt.Errorf("%w: location_name is required", ErrInvalidReport)
	}
	if r.ReportType == "" {
		r.ReportType = entities.ReportTypeShortage
	}
	if r.ReportType != entities.ReportTypeShortage && r.ReportType != entities.ReportTypePriceSpike {
		return fmt.Errorf("%w: unknown report_type %q", ErrInvalidReport, r.ReportType)
	}

	for field, price := range map[string]*float64{"reported_price": r.ReportedPrice, "expected_price": r.ExpectedPrice} {
		if price != nil && (math.IsNaN(*price) || math.IsInf(*price, 0) || *price < 0) {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidReport, field)
		}
	}
	if r.PharmacyID != nil && *r.PharmacyID <= 0 {
		return fmt.Errorf("%w: pharmacy_id must be positive", ErrInvalidReport)
	}

	return nil
}
