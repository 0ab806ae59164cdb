package mw

import (
	"net/http"

	"github.com/dropfy/dropfy-api/internal/version"
)

// APIVersion stamps every response with an X-API-Version header so the
// dashboard and widget embeds can detect a stale client.
func APIVersion() func(http.Handler) http.Handler {
	v := version.Get().Short()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-API-Version", v)
			next.ServeHTTP(w, r)
		})
	}
}
