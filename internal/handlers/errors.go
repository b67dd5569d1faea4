package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"familysafe/internal/apperr"
)

// respondJSON writes a JSON body with the given status
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError maps a classified error to an HTTP status and JSON body.
// Unclassified errors become 500s with a generic message so internals never
// leak into responses.
func respondError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	var status int
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindPermission:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindTransient:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status >= 500 {
		log.Printf("request failed: %v", err)
		message = "internal error"
	}

	respondJSON(w, status, map[string]string{
		"error": message,
		"kind":  kind.String(),
	})
}
