package web

import (
	"encoding/json"
	"net/http"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiFieldErrors writes a 400 with per-field validation failures.
func apiFieldErrors(w http.ResponseWriter, fields []fieldError) {
	apiJSON(w, map[string][]fieldError{"errors": fields}, http.StatusBadRequest)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}
