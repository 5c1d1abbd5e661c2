package handlers

import (
	"net/http"
	"strings"

	"github.com/giygas/medishortage-api/medicineparser/entities"
)

// reportRequest is the body of POST /reports
type reportRequest struct {
	MedicineName  string   `json:"medicine_name"`
	LocationName  string   `json:"location_name"`
	ReportType    string   `json:"report_type"`
	PharmacyID    *int64   `json:"pharmacy_id"`
	ReportedPrice *float64 `json:"reported_price"`
	ExpectedPrice *float64 `json:"expected_price"`
	Description   string   `json:"description"`
}

const maxDescriptionLength = 1000

// SubmitReport records a patient shortage report and reports whether it raised an alert
func (h *HTTPHandlerImpl) SubmitReport(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		RespondWithError(w, http.StatusServiceUnavailable, "shortage reporting is not available")
		return
	}

	var req reportRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	required := []struct{ field, value string }{
		{"medicine_name", req.MedicineName},
		{"location_name", req.LocationName},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			RespondWithError(w, http.StatusBadRequest, f.field+" is required")
			return
		}
		if err := h.validateInput(f.value); err != nil {
			RespondWithError(w, http.StatusBadRequest, f.field+": "+err.Error())
			return
		}
	}
	if len(req.Description) > maxDescriptionLength {
		RespondWithError(w, http.StatusBadRequest, "description is too long")
		return
	}

	stored, alert, err := h.monitor.Report(r.Context(), entities.ShortageReport{
		MedicineName:  req.MedicineName,
		LocationName:  req.LocationName,
		ReportType:    req.ReportType,
		PharmacyID:    req.PharmacyID,
		ReportedPrice: req.ReportedPrice,
		ExpectedPrice: req.ExpectedPrice,
		Description:   req.Description,
	})
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusCreated, map[string]any{
		"report":        stored,
		"alert":         alert,
		"alert_created": alert != nil,
	})
}

// ListAlerts returns the active shortage alerts, most severe first
func (h *HTTPHandlerImpl) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		RespondWithJSON(w, http.StatusOK, map[string]any{"alerts": []entities.ShortageAlert{}, "total": 0})
		return
	}

	active, err := h.monitor.Active(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	if active == nil {
		active = []entities.ShortageAlert{}
	}

	RespondWithJSON(w, http.StatusOK, map[string]any{
		"alerts": active,
		"total":  len(active),
	})
}
