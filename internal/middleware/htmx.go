package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		ctx := WithHTMX(r.Context(), is)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TriggerEvent sets HX-Trigger so htmx raises event on the client with detail as payload.
func TriggerEvent(w http.ResponseWriter, event string, detail any) error {
	payload, err := json.Marshal(map[string]any{event: detail})
	if err != nil {
		return fmt.Errorf("encode HX-Trigger: %w", err)
	}
	w.Header().Set("HX-Trigger", string(payload))
	return nil
}
