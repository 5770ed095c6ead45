package middleware

import (
	"net"
	"net/http"

	"filippo.io/csrf/gorilla"
	"github.com/sirupsen/logrus"
)

// CSRFConfig holds configuration for CSRF protection. filippo.io/csrf checks
// Fetch metadata and Origin headers, so no token cookie is involved.
type CSRFConfig struct {
	// AuthKey keeps the gorilla-compatible signature; the session secret is used.
	AuthKey []byte

	// TrustedOrigins are scheme://host[:port] values allowed to submit
	// cross-origin. Values without a scheme are treated as https.
	TrustedOrigins []string
}

// DefaultCSRFConfig trusts the plain-HTTP local listen address in development.
func DefaultCSRFConfig(authKey []byte, isDev bool, port string) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev && port != "" {
		cfg.TrustedOrigins = []string{
			"http://" + net.JoinHostPort("localhost", port),
			"http://" + net.JoinHostPort("127.0.0.1", port),
		}
	}
	return cfg
}

// CSRF rejects cross-origin form submissions with 403.
func CSRF(cfg CSRFConfig, log *logrus.Logger) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := "unknown"
			if err := csrf.FailureReason(r); err != nil {
				reason = err.Error()
			}
			log.WithFields(logrus.Fields{
				"reason":         reason,
				"method":         r.Method,
				"path":           r.URL.Path,
				"origin":         r.Header.Get("Origin"),
				"sec_fetch_site": r.Header.Get("Sec-Fetch-Site"),
			}).Warn("CSRF validation failed")
			http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
		})),
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}
