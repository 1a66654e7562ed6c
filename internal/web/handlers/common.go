// Package handlers implements the rescue HTTP API on top of the scan
// manager. Handlers translate domain errors into status codes and keep
// all business rules in the inner packages.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jobsitesnap/rescue-engine/internal/rescue"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
	"github.com/jobsitesnap/rescue-engine/internal/store"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain errors onto status codes: missing
// resources are 404, rejected name validation is 422, rejected state
// transitions and write conflicts are 409.
func respondDomainError(w http.ResponseWriter, err error) {
	var transition *rescue.InvalidTransitionError
	switch {
	case errors.Is(err, scan.ErrScanNotFound),
		errors.Is(err, scan.ErrClusterNotFound),
		errors.Is(err, scan.ErrBucketNotFound),
		errors.Is(err, scan.ErrInvalidToken),
		errors.Is(err, rescue.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &transition):
		if transition.Field != "" {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": err.Error(),
				"field": transition.Field,
			})
			return
		}
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, scan.ErrInvalidScope):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rescue.ErrBadSelection),
		errors.Is(err, scan.ErrNotUnknown):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, scan.ErrAlreadyApplied),
		errors.Is(err, scan.ErrNotApplied),
		errors.Is(err, store.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody parses a JSON request body into dst. A missing body leaves
// dst at its zero value so optional-body routes keep working.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
