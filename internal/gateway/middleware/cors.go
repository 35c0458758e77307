package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser clients from any origin. Credentials are allowed, so
// the origin is echoed rather than "*".
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc:  func(_ *http.Request, _ string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Default-Provider", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
