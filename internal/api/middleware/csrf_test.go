package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/members-only/internal/api/middleware"
	"github.com/stretchr/testify/assert"
)

func TestCSRF(t *testing.T) {
	key := []byte("test-session-secret-for-testing-only")

	tests := []struct {
		name       string
		method     string
		fetchSite  string
		wantStatus int
	}{
		{"same-origin post allowed", http.MethodPost, "same-origin", http.StatusOK},
		{"post without fetch metadata allowed", http.MethodPost, "", http.StatusOK},
		{"cross-site post rejected", http.MethodPost, "cross-site", http.StatusForbidden},
		{"cross-site get allowed", http.MethodGet, "cross-site", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			h := middleware.CSRF(middleware.DefaultCSRFConfig(key, false, "8080"), discardLogger())(okHandler(&reached))

			req := httptest.NewRequest(tt.method, "/create-message", nil)
			if tt.fetchSite != "" {
				req.Header.Set("Sec-Fetch-Site", tt.fetchSite)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, reached)
		})
	}
}

func TestDefaultCSRFConfigTrustedOrigins(t *testing.T) {
	tests := []struct {
		name  string
		isDev bool
		port  string
		want  []string
	}{
		{"production trusts nothing", false, "8080", nil},
		{"development default port", true, "8080", []string{"http://localhost:8080", "http://127.0.0.1:8080"}},
		{"development custom port", true, "3000", []string{"http://localhost:3000", "http://127.0.0.1:3000"}},
		{"development without port", true, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, middleware.DefaultCSRFConfig(nil, tt.isDev, tt.port).TrustedOrigins)
		})
	}
}

func TestCSRFTrustsConfiguredDevOrigin(t *testing.T) {
	var reached bool
	h := middleware.CSRF(middleware.DefaultCSRFConfig([]byte("k"), true, "3000"), discardLogger())(okHandler(&reached))

	req := httptest.NewRequest(http.MethodPost, "http://api.local/create-message", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}
