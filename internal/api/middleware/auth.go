package middleware

import (
	"context"
	"net/http"

	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/metrics"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	LoginPath        = "/login"
	BecomeMemberPath = "/become-member"

	MemberRequiredMessage = "You must be a member to post messages"
)

// Sessions is the part of the session manager the gates depend on.
type Sessions interface {
	Resolve(ctx context.Context) (*domain.User, error)
	Flash(ctx context.Context, message string)
}

func IsAuthenticated(u *domain.User) bool {
	return u != nil
}

func IsMember(u *domain.User) bool {
	return u != nil && u.IsMember
}

func IsAdmin(u *domain.User) bool {
	return u != nil && u.IsAdmin
}

// LoadPrincipal resolves the session's user from the store on every request
// and attaches it to the request context. Anonymous requests pass through.
func LoadPrincipal(sessions Sessions, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := sessions.Resolve(r.Context())
			if err != nil {
				log.WithError(err).
					WithField("request_id", chiMiddleware.GetReqID(r.Context())).
					Error("resolve session principal")
				http.Error(w, "Something went wrong, please try again", http.StatusInternalServerError)
				return
			}

			rc := &RequestContext{
				Principal: principal,
				RequestID: chiMiddleware.GetReqID(r.Context()),
			}
			next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), rc)))
		})
	}
}

// RequireAuthenticated redirects anonymous requests to the login page.
func RequireAuthenticated(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAuthenticated(FromContext(r.Context()).Principal) {
				m.Denied("authenticated")
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMember sends authenticated non-members to the membership page with
// an explanatory flash.
func RequireMember(sessions Sessions, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := FromContext(r.Context()).Principal
			if !IsAuthenticated(principal) {
				m.Denied("authenticated")
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if !IsMember(principal) {
				m.Denied("member")
				sessions.Flash(r.Context(), MemberRequiredMessage)
				http.Redirect(w, r, BecomeMemberPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects authenticated non-admins with 403.
func RequireAdmin(m *metrics.Metrics, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := FromContext(r.Context()).Principal
			if !IsAuthenticated(principal) {
				m.Denied("authenticated")
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if !IsAdmin(principal) {
				m.Denied("admin")
				log.WithFields(logrus.Fields{
					"user_id": principal.ID,
					"method":  r.Method,
					"path":    r.URL.Path,
				}).Warn("access denied")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
