package middleware

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the JSON body htmx callers receive for rejected storefront requests.
type errorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError answers htmx requests with JSON and HX-Reswap: none so the error never
// replaces #storefront; other clients get plain text.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsHTMX(r.Context()) {
		rid, _ := RequestID(r.Context())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, Status: code, RequestID: rid})
		return
	}
	http.Error(w, msg, code)
}
