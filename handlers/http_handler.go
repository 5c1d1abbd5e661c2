// Package handlers provides HTTP request handlers for the medicine shortage API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/medishortage-api/cache"
	"github.com/giygas/medishortage-api/geo"
	"github.com/giygas/medishortage-api/interfaces"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/medicineparser"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/giygas/medishortage-api/metrics"
	"github.com/giygas/medishortage-api/similarity"
	"github.com/go-chi/chi/v5"
)

const (
	maxTopK            = 50
	maxSuggestionLimit = 50
	minSuggestionQuery = 2
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler interface
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// Settings holds the request defaults taken from the configuration
type Settings struct {
	TopK               int
	SearchRadiusKm     float64
	CoordinateRadiusKm float64
}

// Dependencies groups the collaborators of the HTTP handler.
// Cache may be nil, in which case every lookup is computed.
type Dependencies struct {
	DataStore     interfaces.DataStore
	Validator     interfaces.DataValidator
	Cache         interfaces.AlternativesCache
	Pharmacies    interfaces.PharmacyDirectory
	Inventory     interfaces.InventoryStore
	Locations     *geo.LocationTable
	Monitor       interfaces.ShortageMonitor
	HealthChecker interfaces.HealthChecker
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	cache         interfaces.AlternativesCache
	pharmacies    interfaces.PharmacyDirectory
	inventory     interfaces.InventoryStore
	locations     *geo.LocationTable
	monitor       interfaces.ShortageMonitor
	healthChecker interfaces.HealthChecker
	settings      Settings
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies, settings Settings) interfaces.HTTPHandler {
	if settings.TopK <= 0 {
		settings.TopK = similarity.DefaultTopK
	}
	if settings.SearchRadiusKm <= 0 {
		settings.SearchRadiusKm = geo.DefaultSearchRadiusKm
	}
	if settings.CoordinateRadiusKm <= 0 {
		settings.CoordinateRadiusKm = geo.DefaultCoordinateRadiusKm
	}
	if deps.Locations == nil {
		deps.Locations = geo.NewLocationTable(nil)
	}

	return &HTTPHandlerImpl{
		dataStore:     deps.DataStore,
		validator:     deps.Validator,
		cache:         deps.Cache,
		pharmacies:    deps.Pharmacies,
		inventory:     deps.Inventory,
		locations:     deps.Locations,
		monitor:       deps.Monitor,
		healthChecker: deps.HealthChecker,
		settings:      settings,
	}
}

// validateInput runs the validator when one is configured
func (h *HTTPHandlerImpl) validateInput(input string) error {
	if h.validator == nil {
		return nil
	}
	return h.validator.ValidateInput(input)
}

// validateName validates a medicine name unless it is exactly a catalog name.
// Catalog names are trusted: some legitimately exceed the input rules.
func (h *HTTPHandlerImpl) validateName(name string) error {
	if h.catalog().Contains(name) {
		return nil
	}
	return h.validateInput(name)
}

// nameParam returns the decoded {name} path parameter. chi routes on the
// escaped path when the request has one, so "%26" would otherwise reach us raw.
func nameParam(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// catalog returns the active index, empty when no data store is wired
func (h *HTTPHandlerImpl) catalog() *similarity.Index {
	if h.dataStore == nil {
		return similarity.NewIndex(nil)
	}
	return h.dataStore.GetCatalog()
}

// ListMedicines returns every medicine name in the catalog, sorted
func (h *HTTPHandlerImpl) ListMedicines(w http.ResponseWriter, r *http.Request) {
	catalog := h.catalog()
	if catalog.Len() == 0 {
		respondWithDomainError(w, r, similarity.ErrDatasetUnavailable)
		return
	}

	names := catalog.Names()
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"medicines": names,
		"total":     len(names),
	})
}

// SuggestMedicines returns autocomplete suggestions for the q parameter.
// Queries shorter than two characters yield an empty list.
func (h *HTTPHandlerImpl) SuggestMedicines(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(query) < minSuggestionQuery {
		RespondWithJSON(w, http.StatusOK, []string{})
		return
	}

	if err := h.validateInput(query); err != nil {
		logging.Warn("Unusual user input", "q", query)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := parsePositiveInt(r.URL.Query().Get("limit"), similarity.DefaultSuggestionLimit, maxSuggestionLimit)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("limit: %v", err))
		return
	}

	RespondWithJSON(w, http.StatusOK, h.catalog().Suggest(query, limit))
}

// MedicineDetails returns a medicine, its parsed ingredients and its alternatives
func (h *HTTPHandlerImpl) MedicineDetails(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if err := h.validateName(name); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.lookupAlternatives(r.Context(), name, h.settings.TopK)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"medicine":     result.Medicine,
		"ingredients":  medicineparser.ParseComposition(result.Medicine.Composition),
		"alternatives": result.Alternatives,
		"total_found":  result.TotalFound,
	})
}

// FindAlternatives returns the most similar medicines for the name path parameter
func (h *HTTPHandlerImpl) FindAlternatives(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)
	if err := h.validateName(name); err != nil {
		logging.Warn("Unusual user input", "name", name)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	k, err := parsePositiveInt(r.URL.Query().Get("top_k"), h.settings.TopK, maxTopK)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("top_k: %v", err))
		return
	}

	result, err := h.lookupAlternatives(r.Context(), name, k)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, result)
}

// alternativesRequest is the body of POST /alternatives
type alternativesRequest struct {
	MedicineName string `json:"medicine_name"`
	TopK         int    `json:"top_k"`
}

// FindAlternativesPost is the JSON body variant of FindAlternatives
func (h *HTTPHandlerImpl) FindAlternativesPost(w http.ResponseWriter, r *http.Request) {
	var req alternativesRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	if strings.TrimSpace(req.MedicineName) == "" {
		RespondWithError(w, http.StatusBadRequest, "medicine_name is required")
		return
	}
	if err := h.validateName(req.MedicineName); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	k := req.TopK
	switch {
	case k == 0:
		k = h.settings.TopK
	case k < 0 || k > maxTopK:
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("top_k must be between 1 and %d", maxTopK))
		return
	}

	result, err := h.lookupAlternatives(r.Context(), req.MedicineName, k)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, result)
}

// lookupAlternatives resolves name and returns its alternatives, going through
// the cache keyed by catalog fingerprint so a reload never serves stale results.
func (h *HTTPHandlerImpl) lookupAlternatives(ctx context.Context, name string, k int) (entities.AlternativesResult, error) {
	catalog := h.catalog()

	main, err := catalog.Resolve(name)
	if err != nil {
		metrics.SimilarityLookupsTotal.WithLabelValues(lookupOutcome(err), "none").Inc()
		return entities.AlternativesResult{}, err
	}

	key := cache.Key(catalog.Fingerprint(), main.Name, k)
	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			logging.Warn("Alternatives cache read failed", "cache", h.cache.Name(), "error", err)
		} else if ok {
			metrics.SimilarityLookupsTotal.WithLabelValues("found", "hit").Inc()
			return cached, nil
		}
	}

	main, alternatives, err := catalog.FindSimilar(main.Name, k)
	if err != nil {
		metrics.SimilarityLookupsTotal.WithLabelValues(lookupOutcome(err), "miss").Inc()
		return entities.AlternativesResult{}, err
	}

	result := entities.AlternativesResult{
		Medicine:     main,
		Alternatives: alternatives,
		TotalFound:   len(alternatives),
	}
	metrics.SimilarityLookupsTotal.WithLabelValues("found", "miss").Inc()

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, result); err != nil {
			logging.Warn("Alternatives cache write failed", "cache", h.cache.Name(), "error", err)
		}
	}

	return result, nil
}

func lookupOutcome(err error) string {
	switch statusForError(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.healthChecker == nil {
		RespondWithError(w, http.StatusServiceUnavailable, "health checker not configured")
		return
	}

	status, details, httpStatus := h.healthChecker.HealthCheck()

	response := make(map[string]any, len(details)+1)
	for k, v := range details {
		response[k] = v
	}
	response["status"] = status

	RespondWithJSON(w, httpStatus, response)
}

// parsePositiveInt parses an optional integer query parameter in [1, max]
func parsePositiveInt(raw string, fallback, max int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("must be between 1 and %d", max)
	}
	return n, nil
}
