package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/newthinker/ats/internal/core"
)

// apiKeyAuth validates the X-API-Key header. An empty key disables the check.
func apiKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				writeError(w, http.StatusUnauthorized, core.WrapError(core.ErrConfigMissing, nil))
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, core.WrapError(core.ErrConfigInvalid, nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
