// Package handler contains the HTTP handlers for the Attire API.
//
// All endpoints speak JSON. Handlers decode the request, call a service,
// and encode the result; business rules live in the service layer.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/calebsouthern/attire/internal/domain"
)

// MaxJSONBodySize bounds JSON request bodies.
const MaxJSONBodySize = 1 << 20 // 1MB

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("", "Invalid JSON request body")
	}
	return nil
}
