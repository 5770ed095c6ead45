// Package session binds an authenticated user to a browser through an opaque
// cookie token and server-side session state.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/repository"
	"gorm.io/gorm"
)

const (
	CookieName = "members_session"

	keyUserID = "user_id"
	keyFlash  = "flash"
)

type Options struct {
	// IdleTimeout is the rolling window: a session unused for this long expires.
	IdleTimeout time.Duration
	// Lifetime caps a session's total age regardless of activity.
	Lifetime time.Duration
	// Secure restricts the cookie to HTTPS. Set in production.
	Secure bool
}

// Serialize reduces a principal to the reference stored in the session.
func Serialize(user *domain.User) int64 {
	return user.ID
}

// Deserializer resolves a stored reference back to a principal. It returns
// nil, nil when the reference no longer names a user.
type Deserializer func(ctx context.Context, id int64) (*domain.User, error)

// UserDeserializer loads the current user record from the repository on
// every call.
func UserDeserializer(users repository.UserRepository) Deserializer {
	return func(ctx context.Context, id int64) (*domain.User, error) {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return user, nil
	}
}

type Manager struct {
	sm          *scs.SessionManager
	deserialize Deserializer
}

func New(store scs.Store, deserialize Deserializer, opts Options) *Manager {
	sm := scs.New()
	sm.Store = store
	sm.IdleTimeout = opts.IdleTimeout
	sm.Lifetime = opts.Lifetime
	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = opts.Secure
	sm.Cookie.Path = "/"

	return &Manager{sm: sm, deserialize: deserialize}
}

// LoadAndSave loads session state for each request and commits it, with a
// refreshed expiry, before the response is written.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return m.sm.LoadAndSave(next)
}

// SetErrorFunc overrides the handler used when the session store fails.
func (m *Manager) SetErrorFunc(fn func(http.ResponseWriter, *http.Request, error)) {
	m.sm.ErrorFunc = fn
}

// Issue binds user to the current session under a freshly generated token.
func (m *Manager) Issue(ctx context.Context, user *domain.User) error {
	if err := m.sm.RenewToken(ctx); err != nil {
		return err
	}
	m.sm.Put(ctx, keyUserID, Serialize(user))
	return nil
}

// Resolve returns the principal bound to the current session, or nil when the
// session is anonymous or refers to a user that no longer exists.
func (m *Manager) Resolve(ctx context.Context) (*domain.User, error) {
	id := m.sm.GetInt64(ctx, keyUserID)
	if id == 0 {
		return nil, nil
	}

	user, err := m.deserialize(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		m.sm.Remove(ctx, keyUserID)
		return nil, nil
	}
	return user, nil
}

// Destroy removes the session server-side and expires the cookie.
func (m *Manager) Destroy(ctx context.Context) error {
	return m.sm.Destroy(ctx)
}

func (m *Manager) Flash(ctx context.Context, message string) {
	m.sm.Put(ctx, keyFlash, message)
}

// PopFlash returns and clears the pending flash message.
func (m *Manager) PopFlash(ctx context.Context) string {
	return m.sm.PopString(ctx, keyFlash)
}
