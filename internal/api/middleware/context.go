package middleware

import (
	"context"

	"github.com/dom/members-only/internal/domain"
)

type contextKey string

const (
	RequestContextKey contextKey = "requestContext"
)

// RequestContext is the per-request state shared by the gates and handlers.
type RequestContext struct {
	// Principal is the freshly loaded user for this request, or nil.
	Principal *domain.User
	RequestID string
}

func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, RequestContextKey, rc)
}

// FromContext returns the request context, or an anonymous one when none was
// attached.
func FromContext(ctx context.Context) *RequestContext {
	rc, ok := ctx.Value(RequestContextKey).(*RequestContext)
	if !ok || rc == nil {
		return &RequestContext{}
	}
	return rc
}

// GetPrincipal returns the authenticated user, if any.
func GetPrincipal(ctx context.Context) (*domain.User, bool) {
	p := FromContext(ctx).Principal
	return p, p != nil
}
