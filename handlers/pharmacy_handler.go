package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/giygas/medishortage-api/geo"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/medicineparser/entities"
	"github.com/giygas/medishortage-api/metrics"
	"github.com/go-chi/chi/v5"
)

// NearbyPharmacies searches pharmacies around a named location.
// GET /pharmacies/nearby?location=Mumbai&medicines=insulin,paracetamol
func (h *HTTPHandlerImpl) NearbyPharmacies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	locationName := strings.TrimSpace(query.Get("location"))
	if locationName == "" {
		RespondWithError(w, http.StatusBadRequest, "location is required")
		return
	}
	if err := h.validateInput(locationName); err != nil {
		logging.Warn("Unusual user input", "location", locationName)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	requested := geo.ParseMedicineList(query.Get("medicines"))
	if len(requested) == 0 {
		RespondWithError(w, http.StatusBadRequest, "medicines is required")
		return
	}
	for _, name := range requested {
		if err := h.validateInput(name); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	location, err := h.locations.Resolve(locationName)
	if err != nil {
		metrics.PharmacySearchesTotal.WithLabelValues("location", "invalid").Inc()
		respondWithDomainError(w, r, err)
		return
	}

	results, err := h.nearby(r, "location", location.Latitude, location.Longitude, h.settings.SearchRadiusKm, requested)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"location":    location,
		"radius_km":   h.settings.SearchRadiusKm,
		"medicines":   requested,
		"pharmacies":  results,
		"total_found": len(results),
	})
}

// searchRequest is the body of POST /pharmacies/search.
// Pointers distinguish missing coordinates from zero.
type searchRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Medicines []string `json:"medicines"`
	RadiusKm  *float64 `json:"radius_km"`
}

// SearchPharmacies searches pharmacies around explicit coordinates
func (h *HTTPHandlerImpl) SearchPharmacies(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		metrics.PharmacySearchesTotal.WithLabelValues("coordinates", "invalid").Inc()
		respondWithDomainError(w, r, fmt.Errorf("%w: latitude and longitude are required", geo.ErrInvalidInput))
		return
	}
	if err := geo.ValidateCoordinates(*req.Latitude, *req.Longitude); err != nil {
		metrics.PharmacySearchesTotal.WithLabelValues("coordinates", "invalid").Inc()
		respondWithDomainError(w, r, err)
		return
	}

	radius := h.settings.CoordinateRadiusKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
		if !(radius > 0) || radius > geo.MaxRadiusKm {
			RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("radius_km must be between 0 and %v", geo.MaxRadiusKm))
			return
		}
	}

	requested := make([]string, 0, len(req.Medicines))
	for _, name := range req.Medicines {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := h.validateInput(name); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		requested = append(requested, name)
	}
	if len(requested) == 0 {
		RespondWithError(w, http.StatusBadRequest, "medicines is required")
		return
	}

	results, err := h.nearby(r, "coordinates", *req.Latitude, *req.Longitude, radius, requested)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"latitude":    *req.Latitude,
		"longitude":   *req.Longitude,
		"radius_km":   radius,
		"medicines":   requested,
		"pharmacies":  results,
		"total_found": len(results),
	})
}

// nearby loads the candidate pharmacies and filters them around the point
func (h *HTTPHandlerImpl) nearby(r *http.Request, mode string, lat, lon, radiusKm float64, requested []string) ([]entities.NearbyPharmacy, error) {
	if h.pharmacies == nil {
		return []entities.NearbyPharmacy{}, nil
	}

	candidates, err := h.pharmacies.ListPharmacies(r.Context())
	if err != nil {
		metrics.PharmacySearchesTotal.WithLabelValues(mode, "error").Inc()
		return nil, fmt.Errorf("failed to list pharmacies: %w", err)
	}

	results := geo.Nearby(lat, lon, candidates, radiusKm, requested)

	outcome := "found"
	if len(results) == 0 {
		outcome = "empty"
	}
	metrics.PharmacySearchesTotal.WithLabelValues(mode, outcome).Inc()
	metrics.PharmacySearchResults.Observe(float64(len(results)))

	logging.Debug("Pharmacy search", "mode", mode, "radius_km", radiusKm,
		"candidates", len(candidates), "results", len(results))

	return results, nil
}

// ListLocations returns the named locations usable with /pharmacies/nearby
func (h *HTTPHandlerImpl) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations := h.locations.All()
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"locations": locations,
		"total":     len(locations),
	})
}

// inventoryRequest is the body of PUT /pharmacies/{id}/medicines
type inventoryRequest struct {
	MedicineName string   `json:"medicine_name"`
	Price        *float64 `json:"price"`
}

// UpdateInventory adds a medicine to a pharmacy's inventory or changes its price
func (h *HTTPHandlerImpl) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	if h.inventory == nil {
		RespondWithError(w, http.StatusServiceUnavailable, "inventory updates are not available")
		return
	}

	pharmacyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || pharmacyID <= 0 {
		RespondWithError(w, http.StatusBadRequest, "pharmacy id must be a positive integer")
		return
	}

	var req inventoryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	medicine := strings.TrimSpace(req.MedicineName)
	if medicine == "" {
		RespondWithError(w, http.StatusBadRequest, "medicine_name is required")
		return
	}
	if err := h.validateName(medicine); err != nil {
		RespondWithError(w, http.StatusBadRequest, "medicine_name: "+err.Error())
		return
	}
	if req.Price == nil {
		RespondWithError(w, http.StatusBadRequest, "price is required")
		return
	}
	price := *req.Price
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		RespondWithError(w, http.StatusBadRequest, "price must be a non-negative number")
		return
	}

	if err := h.inventory.UpsertInventory(r.Context(), pharmacyID, medicine, price); err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"pharmacy_id":   pharmacyID,
		"medicine_name": medicine,
		"price":         price,
	})
}
