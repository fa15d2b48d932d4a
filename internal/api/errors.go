// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/geofront/cogtune/internal/log"
)

// errorResponse is the single error envelope for all API endpoints.
type errorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the error envelope, correlated with the request id.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg, detail string) {
	writeJSON(w, code, errorResponse{
		Error:     msg,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeError(w, r, http.StatusBadRequest, "bad request", detail)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, detail string) {
	writeError(w, r, http.StatusNotFound, "not found", detail)
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, detail string) {
	writeError(w, r, http.StatusBadGateway, "upstream error", detail)
}

func writeInternalError(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusInternalServerError, "internal error", "")
}
