package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/members-only/internal/api/middleware"
	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/metrics"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	user    *domain.User
	err     error
	flashes []string
}

func (f *fakeSessions) Resolve(ctx context.Context) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeSessions) Flash(ctx context.Context, message string) {
	f.flashes = append(f.flashes, message)
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// okHandler records whether the request reached it.
func okHandler(reached *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, principal *domain.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/target", nil)
	if principal != nil {
		req = req.WithContext(middleware.WithRequestContext(req.Context(), &middleware.RequestContext{Principal: principal}))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	plainUser = &domain.User{ID: 1, Username: "plain"}
	member    = &domain.User{ID: 2, Username: "member", IsMember: true}
	admin     = &domain.User{ID: 3, Username: "admin", IsMember: true, IsAdmin: true}
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name          string
		user          *domain.User
		authenticated bool
		isMember      bool
		isAdmin       bool
	}{
		{"anonymous", nil, false, false, false},
		{"plain user", plainUser, true, false, false},
		{"member", member, true, true, false},
		{"admin", admin, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.authenticated, middleware.IsAuthenticated(tt.user))
			assert.Equal(t, tt.isMember, middleware.IsMember(tt.user))
			assert.Equal(t, tt.isAdmin, middleware.IsAdmin(tt.user))
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	tests := []struct {
		name         string
		principal    *domain.User
		wantStatus   int
		wantLocation string
		wantReached  bool
	}{
		{"anonymous redirected to login", nil, http.StatusSeeOther, "/login", false},
		{"plain user passes", plainUser, http.StatusOK, "", true},
		{"admin passes", admin, http.StatusOK, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			m := metrics.New(prometheus.NewRegistry())
			rec := serve(middleware.RequireAuthenticated(m)(okHandler(&reached)), tt.principal)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantReached, reached)
		})
	}
}

func TestRequireMember(t *testing.T) {
	tests := []struct {
		name         string
		principal    *domain.User
		wantStatus   int
		wantLocation string
		wantFlash    []string
		wantReached  bool
	}{
		{"anonymous redirected to login", nil, http.StatusSeeOther, "/login", nil, false},
		{"non-member redirected to become-member", plainUser, http.StatusSeeOther, "/become-member", []string{middleware.MemberRequiredMessage}, false},
		{"member passes", member, http.StatusOK, "", nil, true},
		{"admin passes", admin, http.StatusOK, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			sessions := &fakeSessions{}
			rec := serve(middleware.RequireMember(sessions, nil)(okHandler(&reached)), tt.principal)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantFlash, sessions.flashes)
			assert.Equal(t, tt.wantReached, reached)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name         string
		principal    *domain.User
		wantStatus   int
		wantLocation string
		wantReached  bool
	}{
		{"anonymous redirected to login", nil, http.StatusSeeOther, "/login", false},
		{"plain user forbidden", plainUser, http.StatusForbidden, "", false},
		{"member forbidden", member, http.StatusForbidden, "", false},
		{"admin passes", admin, http.StatusOK, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			rec := serve(middleware.RequireAdmin(nil, discardLogger())(okHandler(&reached)), tt.principal)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantReached, reached)
		})
	}
}

func TestLoadPrincipal(t *testing.T) {
	t.Run("attaches resolved principal", func(t *testing.T) {
		var got *middleware.RequestContext
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = middleware.FromContext(r.Context())
		})

		h := middleware.RequestID(middleware.LoadPrincipal(&fakeSessions{user: member}, discardLogger())(next))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotNil(t, got)
		assert.Equal(t, member, got.Principal)
		assert.NotEmpty(t, got.RequestID)
		assert.Equal(t, got.RequestID, rec.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		var reached bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			_, ok := middleware.GetPrincipal(r.Context())
			assert.False(t, ok)
		})

		rec := httptest.NewRecorder()
		middleware.LoadPrincipal(&fakeSessions{}, discardLogger())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.True(t, reached)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("store failure is a generic 500", func(t *testing.T) {
		var reached bool
		sessions := &fakeSessions{err: errors.New("connection refused")}

		rec := httptest.NewRecorder()
		middleware.LoadPrincipal(sessions, discardLogger())(okHandler(&reached)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.False(t, reached)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestFromContextWithoutRequestContext(t *testing.T) {
	rc := middleware.FromContext(context.Background())
	require.NotNil(t, rc)
	assert.Nil(t, rc.Principal)
}

func TestRequestIDReusesValidHeader(t *testing.T) {
	const incoming = "2f1d6c1e-9a4b-4a53-8d7e-3c6a1b2e4f50"

	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chiMiddleware.GetReqID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid", seen)
	assert.Len(t, seen, 36)
}
