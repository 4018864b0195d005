package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sitekit/sitekit/internal/auth"
)

// ExportSecretHeader carries the shared secret for the subscriber export.
const ExportSecretHeader = "X-Export-Secret"

// minSecretCheckDuration evens out response times so failures are not
// distinguishable from successes by timing.
const minSecretCheckDuration = 100 * time.Millisecond

// ExportSecret guards a route with a shared secret checked against an
// argon2id hash. An empty hash leaves the route open.
func ExportSecret(logger *slog.Logger, secretHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secretHash == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ok, err := auth.VerifySecret(r.Header.Get(ExportSecretHeader), secretHash)
			if elapsed := time.Since(start); elapsed < minSecretCheckDuration {
				time.Sleep(minSecretCheckDuration - elapsed)
			}

			if err != nil {
				logger.Error("export secret hash is invalid",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !ok {
				logger.Warn("export secret rejected",
					slog.String("ip", r.RemoteAddr),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
