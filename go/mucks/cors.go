package mucks

import (
	"net/http"
	"slices"
)

// CorsMiddleware sets Access-Control-Allow-Origin for browser clients
// polling this service cross-origin. An empty AllowedOrigins means no
// origin is echoed back, which browsers treat as same-origin-only.
type CorsMiddleware struct {
	AllowedOrigins []string
}

func NewCorsMiddleware(allowedOrigins []string) Middleware {
	return &CorsMiddleware{AllowedOrigins: allowedOrigins}
}

// Wrap implements the Middleware interface
func (m *CorsMiddleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(m.AllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}
