package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dom/members-only/internal/api/middleware"
	"github.com/dom/members-only/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	GenericErrorMessage = "Something went wrong, please try again"
	LoginFailedMessage  = "Invalid username or password"
)

// SessionManager is the part of the session manager the handlers depend on.
type SessionManager interface {
	Issue(ctx context.Context, user *domain.User) error
	Destroy(ctx context.Context) error
	Flash(ctx context.Context, message string)
	PopFlash(ctx context.Context) string
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsMember  bool   `json:"isMember"`
	IsAdmin   bool   `json:"isAdmin"`
}

type PageResponse struct {
	Page  string        `json:"page"`
	User  *UserResponse `json:"user"`
	Flash string        `json:"flash,omitempty"`
}

func toUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsMember:  u.IsMember,
		IsAdmin:   u.IsAdmin,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorText is the user-facing text for an unexpected error. The underlying
// error is only exposed in development.
func errorText(err error, dev bool) string {
	if dev && err != nil {
		return GenericErrorMessage + ": " + err.Error()
	}
	return GenericErrorMessage
}

func logError(log *logrus.Logger, r *http.Request, err error, msg string) {
	entry := log.WithError(err).WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": middleware.FromContext(r.Context()).RequestID,
	})
	if p := middleware.FromContext(r.Context()).Principal; p != nil {
		entry = entry.WithField("user_id", p.ID)
	}
	entry.Error(msg)
}

// redirectWithFlash stores message for the next page and sends a 303.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, sessions SessionManager, path, message string) {
	if message != "" {
		sessions.Flash(r.Context(), message)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
