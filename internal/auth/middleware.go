package auth

import (
	"encoding/json"
	"net/http"

	"github.com/thinkier/dfr-io-hat/internal/models"
)

const (
	apiKeyHeader     = "X-API-Key"
	apiKeyQueryParam = "api-key"
)

var errUnauthorized = &models.AppError{Code: "UNAUTHORIZED", Message: "valid api key required", Status: http.StatusUnauthorized}

// Middleware enforces a valid key on every request unless the service is
// in open mode. The key is taken from the X-API-Key header or the api-key
// query parameter (EventSource clients cannot set headers).
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsOpenMode() {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			key = r.URL.Query().Get(apiKeyQueryParam)
		}
		if s.VerifyKey(key) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(errUnauthorized)
	})
}
