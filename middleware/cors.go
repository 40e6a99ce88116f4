package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
)

// CORS wraps the router with the cross-origin policy. Listed origins may
// send credentials; a "*" entry opens the API to any origin without them.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	wildcard := false
	for _, o := range origins {
		o = strings.TrimRight(o, "/")
		if o == "*" {
			wildcard = true
		}
		allowed = append(allowed, o)
	}
	if wildcard {
		allowed = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderRequestID},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: !wildcard,
		MaxAge:           int((5 * time.Minute).Seconds()),
	})
}
