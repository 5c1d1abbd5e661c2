package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medishortage-api/alerts"
	"github.com/giygas/medishortage-api/data"
	"github.com/giygas/medishortage-api/geo"
	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/giygas/medishortage-api/similarity"
	"github.com/giygas/medishortage-api/storage"
	"github.com/giygas/medishortage-api/validation"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

// TestDataFactory creates consistent test data across all tests
type TestDataFactory struct{}

func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

// CreateMedicines returns a small catalog with a few composition families
func (f *TestDataFactory) CreateMedicines() []entities.Medicine {
	return []entities.Medicine{
		{Name: "Crocin 500mg Tablet", Composition: "Paracetamol (500mg)", DosageMg: 500, Type: "Tablet", Manufacturer: "GSK"},
		{Name: "Calpol 500mg Tablet", Composition: "Paracetamol (500mg)", DosageMg: 500, Type: "Tablet", Manufacturer: "GSK"},
		{Name: "Dolo 650 Tablet", Composition: "Paracetamol (650mg)", DosageMg: 650, Type: "Tablet", Manufacturer: "Micro Labs"},
		{Name: "Brufen 400 Tablet", Composition: "Ibuprofen (400mg)", DosageMg: 400, Type: "Tablet", Manufacturer: "Abbott"},
		{Name: "Augmentin 625 Duo Tablet", Composition: "Amoxycillin (500mg) + Clavulanic Acid (125mg)", DosageMg: 625, Type: "Tablet", Manufacturer: "GSK"},
		{Name: "Azithral 500 Tablet", Composition: "Azithromycin (500mg)", DosageMg: 500, Type: "Tablet", Manufacturer: "Alembic"},
		{Name: "Insulin Actrapid", Composition: "Human Insulin (40IU)", Type: "Injection", Manufacturer: "Novo Nordisk"},
	}
}

// CreateDataContainer creates a data container holding the test catalog
func (f *TestDataFactory) CreateDataContainer() *data.DataContainer {
	dataContainer := data.NewDataContainer()
	dataContainer.UpdateData(similarity.NewIndex(f.CreateMedicines()), nil)
	return dataContainer
}

// CreatePharmacies returns pharmacies around Mumbai and one in Delhi
func (f *TestDataFactory) CreatePharmacies() []entities.Pharmacy {
	return []entities.Pharmacy{
		{ID: 1, Name: "Test Pharmacy Mumbai", Address: "Andheri", Latitude: 19.07, Longitude: 72.88,
			MedicinePrices: map[string]float64{"insulin": 500, "Crocin 500mg Tablet": 30}},
		{ID: 2, Name: "Bandra Chemist", Address: "Bandra", Latitude: 19.0596, Longitude: 72.8295,
			MedicinePrices: map[string]float64{"Crocin 500mg Tablet": 28}},
		{ID: 3, Name: "Delhi Medicals", Address: "Connaught Place", Latitude: 28.6315, Longitude: 77.2167,
			MedicinePrices: map[string]float64{"insulin": 480}},
	}
}

// CreateLocations returns the named locations used by the tests
func (f *TestDataFactory) CreateLocations() *geo.LocationTable {
	return geo.NewLocationTable([]entities.Location{
		{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777},
		{Name: "Delhi", Latitude: 28.6139, Longitude: 77.2090},
	})
}

// ============================================================================
// MOCKS
// ============================================================================

// mockPharmacyDirectory serves a fixed list of pharmacies
type mockPharmacyDirectory struct {
	pharmacies []entities.Pharmacy
	err        error
}

func (m *mockPharmacyDirectory) ListPharmacies(ctx context.Context) ([]entities.Pharmacy, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pharmacies, nil
}

// mockAlternativesCache records cache traffic
type mockAlternativesCache struct {
	entries map[string]entities.AlternativesResult
	gets    int
	hits    int
	sets    int
	getErr  error
}

func newMockAlternativesCache() *mockAlternativesCache {
	return &mockAlternativesCache{entries: make(map[string]entities.AlternativesResult)}
}

func (m *mockAlternativesCache) Get(ctx context.Context, key string) (entities.AlternativesResult, bool, error) {
	m.gets++
	if m.getErr != nil {
		return entities.AlternativesResult{}, false, m.getErr
	}
	result, ok := m.entries[key]
	if ok {
		m.hits++
	}
	return result, ok, nil
}

func (m *mockAlternativesCache) Set(ctx context.Context, key string, result entities.AlternativesResult) error {
	m.sets++
	m.entries[key] = result
	return nil
}

func (m *mockAlternativesCache) Purge(ctx context.Context) error {
	m.entries = make(map[string]entities.AlternativesResult)
	return nil
}

func (m *mockAlternativesCache) Len() int     { return len(m.entries) }
func (m *mockAlternativesCache) Name() string { return "mock" }
func (m *mockAlternativesCache) Close() error { return nil }

// mockHealthChecker returns a fixed health status
type mockHealthChecker struct {
	status     string
	httpStatus int
}

func (m *mockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, map[string]any{"medicines": 7}, m.httpStatus
}

func (m *mockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Now().Add(time.Hour)
}

// failingMonitor fails every call
type failingMonitor struct{}

func (failingMonitor) Report(ctx context.Context, report entities.ShortageReport) (entities.ShortageReport, *entities.ShortageAlert, error) {
	return report, nil, errors.New("database is locked")
}

func (failingMonitor) Active(ctx context.Context) ([]entities.ShortageAlert, error) {
	return nil, errors.New("database is locked")
}

// ============================================================================
// HANDLER SETUP
// ============================================================================

// testEnv bundles a handler with the collaborators tests inspect
type testEnv struct {
	handler   *HTTPHandlerImpl
	router    http.Handler
	cache     *mockAlternativesCache
	directory *mockPharmacyDirectory
	store     *storage.SQLiteStore
}

// newTestEnv builds a handler over the factory data, a real validator, and a
// real shortage monitor and inventory on a seeded in-memory SQLite store
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	factory := NewTestDataFactory()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.SeedPharmacies(context.Background(), factory.CreatePharmacies()); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}

	env := &testEnv{
		cache:     newMockAlternativesCache(),
		directory: &mockPharmacyDirectory{pharmacies: factory.CreatePharmacies()},
		store:     store,
	}

	env.handler = NewHTTPHandler(Dependencies{
		DataStore:     factory.CreateDataContainer(),
		Validator:     validation.NewDataValidator(),
		Cache:         env.cache,
		Pharmacies:    env.directory,
		Inventory:     store,
		Locations:     factory.CreateLocations(),
		Monitor:       alerts.NewMonitor(store),
		HealthChecker: &mockHealthChecker{status: "healthy", httpStatus: http.StatusOK},
	}, Settings{}).(*HTTPHandlerImpl)
	env.router = newTestRouter(env.handler)

	return env
}

// newTestRouter mounts the handler the same way the server does
func newTestRouter(h interfaces.HTTPHandler) http.Handler {
	router := chi.NewRouter()
	router.Get("/medicines", h.ListMedicines)
	router.Get("/medicines/suggestions", h.SuggestMedicines)
	router.Get("/medicines/{name}", h.MedicineDetails)
	router.Get("/alternatives/{name}", h.FindAlternatives)
	router.Post("/alternatives", h.FindAlternativesPost)
	router.Get("/pharmacies/nearby", h.NearbyPharmacies)
	router.Post("/pharmacies/search", h.SearchPharmacies)
	router.Put("/pharmacies/{id}/medicines", h.UpdateInventory)
	router.Get("/locations", h.ListLocations)
	router.Post("/reports", h.SubmitReport)
	router.Get("/alerts", h.ListAlerts)
	router.Get("/health", h.HealthCheck)
	return router
}

// do sends a request through the router and returns the recorder
func (e *testEnv) do(method, target string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// decodeBody unmarshals a JSON response body
func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

// assertErrorResponse checks the status and the JSON error shape
func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()

	if rr.Code != expectedStatus {
		t.Fatalf("Expected status %d, got %d: %s", expectedStatus, rr.Code, rr.Body.String())
	}

	body := decodeBody[map[string]any](t, rr)
	for _, field := range []string{"error", "message", "code"} {
		if _, ok := body[field]; !ok {
			t.Errorf("Error response should contain '%s', got %v", field, body)
		}
	}
	if code, _ := body["code"].(float64); int(code) != expectedStatus {
		t.Errorf("Expected code %d in body, got %v", expectedStatus, body["code"])
	}
}
