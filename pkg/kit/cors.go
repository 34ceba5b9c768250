package kit

import (
	"net/http"

	"github.com/go-chi/cors"
)

const corsMaxAgeSeconds = 3600

// CORS allows a single browser origin to call the API with credentials.
func CORS(origin string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeSeconds,
	})
}
