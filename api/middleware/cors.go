package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"http://localhost:5173",
}

// CORS returns middleware that applies the API's allowed origin policy.
// Extra origins come from configuration and are appended to the defaults.
func CORS(extraOrigins []string) func(http.Handler) http.Handler {
	origins := append(append([]string{}, defaultCORSOrigins...), extraOrigins...)
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-User-Role", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
