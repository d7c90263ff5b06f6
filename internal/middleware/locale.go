package middleware

import (
	"net/http"
	"strings"
)

// localeVary lists the request inputs the storefront language is resolved from:
// the Accept-Language header and the hl cookie.
var localeVary = []string{"Accept-Language", "Cookie"}

// VaryLocale marks dynamic responses as varying by the locale inputs, keeping any
// Vary values set earlier.
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addVary(w.Header(), localeVary...)
		next.ServeHTTP(w, r)
	})
}

func addVary(h http.Header, fields ...string) {
	for _, f := range fields {
		if !headerHasToken(h, "Vary", f) {
			h.Add("Vary", f)
		}
	}
}

func headerHasToken(h http.Header, name, token string) bool {
	for _, v := range h.Values(name) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}
