// Package handlers provides HTTP request handlers for the medicine shortage API endpoints.
// It includes handlers for alternatives lookup, pharmacy proximity search, shortage
// reporting and health checks, with input validation and consistent JSON errors.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giygas/medishortage-api/alerts"
	"github.com/giygas/medishortage-api/geo"
	"github.com/giygas/medishortage-api/logging"
	"github.com/giygas/medishortage-api/similarity"
	"github.com/giygas/medishortage-api/storage"
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, similarity.ErrNotFound),
		errors.Is(err, storage.ErrPharmacyNotFound):
		return http.StatusNotFound
	case errors.Is(err, similarity.ErrInvalidInput),
		errors.Is(err, geo.ErrInvalidInput),
		errors.Is(err, geo.ErrInvalidLocation),
		errors.Is(err, alerts.ErrInvalidReport):
		return http.StatusBadRequest
	case errors.Is(err, similarity.ErrDatasetUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithDomainError writes the error with its mapped status. Internal
// errors are logged and replaced with a generic message.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		logging.Error("Request failed", "path", r.URL.Path, "error", err)
		RespondWithError(w, code, "internal error")
		return
	}
	RespondWithError(w, code, err.Error())
}

// decodeJSONBody decodes a single JSON object from the request body
func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

// respondWithDecodeError reports an unreadable body, distinguishing oversized ones
func respondWithDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	RespondWithError(w, http.StatusBadRequest, err.Error())
}
