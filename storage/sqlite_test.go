package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testPharmacies() []entities.Pharmacy {
	return []entities.Pharmacy{
		{ID: 2, Name: "Second", Address: "B", Latitude: 19.09, Longitude: 72.86,
			MedicinePrices: map[string]float64{"insulin": 520}},
		{ID: 1, Name: "First", Address: "A", Latitude: 19.07, Longitude: 72.88,
			MedicinePrices: map[string]float64{"insulin": 500, "thyroxine": 300}},
		{ID: 3, Name: "Empty", Latitude: 28.6, Longitude: 77.2},
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}

func TestSeedAndListPharmacies(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SeedPharmacies(ctx, testPharmacies()))

	pharmacies, err := store.ListPharmacies(ctx)
	require.NoError(t, err)
	require.Len(t, pharmacies, 3)

	assert.Equal(t, int64(1), pharmacies[0].ID)
	assert.Equal(t, "First", pharmacies[0].Name)
	assert.Equal(t, map[string]float64{"insulin": 500, "thyroxine": 300}, pharmacies[0].MedicinePrices)
	assert.Equal(t, int64(2), pharmacies[1].ID)
	assert.NotNil(t, pharmacies[2].MedicinePrices)
	assert.Empty(t, pharmacies[2].MedicinePrices)
}

func TestSeedPharmaciesIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SeedPharmacies(ctx, testPharmacies()))

	updated := []entities.Pharmacy{
		{ID: 1, Name: "First Renamed", Latitude: 19.07, Longitude: 72.88,
			MedicinePrices: map[string]float64{"insulin": 450}},
	}
	require.NoError(t, store.SeedPharmacies(ctx, updated))

	pharmacies, err := store.ListPharmacies(ctx)
	require.NoError(t, err)
	require.Len(t, pharmacies, 3)
	assert.Equal(t, "First Renamed", pharmacies[0].Name)
	assert.Equal(t, map[string]float64{"insulin": 450}, pharmacies[0].MedicinePrices)
}

func TestFileBackedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortage.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SeedPharmacies(ctx, testPharmacies()))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	pharmacies, err := reopened.ListPharmacies(ctx)
	require.NoError(t, err)
	assert.Len(t, pharmacies, 3)
	assert.NoError(t, reopened.Ping(ctx))
}

func TestReportsCountWithinWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	price := 650.0
	pharmacyID := int64(1)
	reports := []entities.ShortageReport{
		{ID: "r1", MedicineName: "Insulin", LocationName: "Mumbai", ReportType: entities.ReportTypeShortage, CreatedAt: now.Add(-time.Hour)},
		{ID: "r2", MedicineName: "insulin", LocationName: "mumbai", ReportType: entities.ReportTypePriceSpike,
			PharmacyID: &pharmacyID, ReportedPrice: &price, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "r3", MedicineName: "Insulin", LocationName: "Mumbai", ReportType: entities.ReportTypeShortage, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "r4", MedicineName: "Insulin", LocationName: "Delhi", ReportType: entities.ReportTypeShortage, CreatedAt: now},
	}
	for _, r := range reports {
		require.NoError(t, store.SaveReport(ctx, r))
	}

	count, err := store.CountReports(ctx, "INSULIN", "Mumbai", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountReports(ctx, "Insulin", "Delhi", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.CountReports(ctx, "Thyroxine", "Mumbai", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDuplicateReportID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := entities.ShortageReport{ID: "dup", MedicineName: "Insulin", LocationName: "Mumbai",
		ReportType: entities.ReportTypeShortage, CreatedAt: time.Now()}
	require.NoError(t, store.SaveReport(ctx, report))
	assert.Error(t, store.SaveReport(ctx, report))
}

func TestAlerts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	active, err := store.HasActiveAlert(ctx, "Insulin", "Mumbai")
	require.NoError(t, err)
	assert.False(t, active)

	alerts := []entities.ShortageAlert{
		{ID: "a1", MedicineName: "Insulin", LocationName: "Mumbai", AlertType: "shortage", Severity: "medium", IsActive: true, CreatedAt: base},
		{ID: "a2", MedicineName: "Thyroxine", LocationName: "Delhi", AlertType: "shortage", Severity: "high", IsActive: true, CreatedAt: base.Add(-time.Hour)},
		{ID: "a3", MedicineName: "Paracetamol", LocationName: "Delhi", AlertType: "shortage", Severity: "medium", IsActive: true, CreatedAt: base.Add(time.Hour)},
		{ID: "a4", MedicineName: "Amoxicillin", LocationName: "Delhi", AlertType: "shortage", Severity: "critical", IsActive: false, CreatedAt: base},
	}
	for _, a := range alerts {
		created, err := store.CreateAlert(ctx, a)
		require.NoError(t, err)
		assert.True(t, created)
	}

	active, err = store.HasActiveAlert(ctx, "insulin", "MUMBAI")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = store.HasActiveAlert(ctx, "Amoxicillin", "Delhi")
	require.NoError(t, err)
	assert.False(t, active)

	listed, err := store.ListActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "a2", listed[0].ID)
	assert.Equal(t, "a3", listed[1].ID)
	assert.Equal(t, "a1", listed[2].ID)
	assert.True(t, listed[2].CreatedAt.Equal(base))
	assert.True(t, listed[0].IsActive)
}

func TestCreateAlertKeepsOneActivePerPair(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	alert := func(id, medicine, location string, active bool) entities.ShortageAlert {
		return entities.ShortageAlert{ID: id, MedicineName: medicine, LocationName: location,
			AlertType: "shortage", Severity: "medium", IsActive: active, CreatedAt: now}
	}

	created, err := store.CreateAlert(ctx, alert("a1", "Insulin", "Mumbai", true))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateAlert(ctx, alert("a2", "insulin", "MUMBAI", true))
	require.NoError(t, err)
	assert.False(t, created, "same pair in another case is still the same pair")

	created, err = store.CreateAlert(ctx, alert("a3", "Insulin", "Mumbai", false))
	require.NoError(t, err)
	assert.True(t, created, "inactive alerts are not limited")

	created, err = store.CreateAlert(ctx, alert("a4", "Insulin", "Delhi", true))
	require.NoError(t, err)
	assert.True(t, created)

	listed, err := store.ListActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestSchemaDeactivatesDuplicateActiveAlerts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A database written before active alerts were unique
	legacy, err := sqlx.Connect("sqlite3", path)
	require.NoError(t, err)
	for _, stmt := range schema[:len(schema)-2] {
		_, err := legacy.Exec(stmt)
		require.NoError(t, err)
	}
	for i, id := range []string{"old", "dup1", "dup2"} {
		_, err := legacy.Exec(`INSERT INTO shortage_alerts
			(id, medicine_name, location_name, alert_type, severity, is_active, created_at)
			VALUES (?, 'Insulin', 'Mumbai', 'shortage', 'medium', 1, ?)`, id, i)
		require.NoError(t, err)
	}
	require.NoError(t, legacy.Close())

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	listed, err := store.ListActiveAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "old", listed[0].ID)
}

func TestUpsertInventory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SeedPharmacies(ctx, testPharmacies()))

	// New medicine, then a price change through a differently cased name
	require.NoError(t, store.UpsertInventory(ctx, 3, " Thyroxine 50mcg ", 120))
	require.NoError(t, store.UpsertInventory(ctx, 1, "INSULIN", 480))

	pharmacies, err := store.ListPharmacies(ctx)
	require.NoError(t, err)
	require.Len(t, pharmacies, 3)
	assert.Equal(t, map[string]float64{"insulin": 480, "thyroxine": 300}, pharmacies[0].MedicinePrices)
	assert.Equal(t, map[string]float64{"Thyroxine 50mcg": 120}, pharmacies[2].MedicinePrices)

	err = store.UpsertInventory(ctx, 99, "Insulin", 10)
	assert.True(t, errors.Is(err, ErrPharmacyNotFound), "got %v", err)

	// Reseeding from the directory keeps the updated prices
	require.NoError(t, store.SeedPharmacies(ctx, testPharmacies()))
	pharmacies, err = store.ListPharmacies(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"insulin": 480, "thyroxine": 300}, pharmacies[0].MedicinePrices)
	assert.Equal(t, map[string]float64{"Thyroxine 50mcg": 120}, pharmacies[2].MedicinePrices)
}
