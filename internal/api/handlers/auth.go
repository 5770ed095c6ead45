package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/members-only/internal/api/middleware"
	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	RegisteredMessage = "Registration successful, please log in"
	ConflictMessage   = "Username or email already exists"
)

type AuthHandler struct {
	authService *service.AuthService
	sessions    SessionManager
	log         *logrus.Logger
	dev         bool
}

func NewAuthHandler(authService *service.AuthService, sessions SessionManager, log *logrus.Logger, dev bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		log:         log,
		dev:         dev,
	}
}

// Page renders the state a page template needs: the current user and any
// pending flash.
func (h *AuthHandler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, PageResponse{
			Page:  name,
			User:  toUserResponse(middleware.FromContext(r.Context()).Principal),
			Flash: h.sessions.PopFlash(r.Context()),
		})
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, h.sessions, "/login", "Invalid form submission")
		return
	}

	user, err := h.authService.Authenticate(r.Context(), service.LoginInput{
		Identifier: r.PostForm.Get("username"),
		Password:   r.PostForm.Get("password"),
	})
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			redirectWithFlash(w, r, h.sessions, "/login", verr.First())
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidCredentials):
			redirectWithFlash(w, r, h.sessions, "/login", LoginFailedMessage)
		default:
			logError(h.log, r, err, "login")
			redirectWithFlash(w, r, h.sessions, "/login", errorText(err, h.dev))
		}
		return
	}

	if err := h.sessions.Issue(r.Context(), user); err != nil {
		logError(h.log, r, err, "issue session")
		redirectWithFlash(w, r, h.sessions, "/login", errorText(err, h.dev))
		return
	}

	http.Redirect(w, r, "/messages", http.StatusSeeOther)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, h.sessions, "/register", "Invalid form submission")
		return
	}

	_, err := h.authService.Register(r.Context(), service.RegisterInput{
		FirstName:       r.PostForm.Get("first_name"),
		LastName:        r.PostForm.Get("last_name"),
		Username:        r.PostForm.Get("username"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
		AdminCode:       r.PostForm.Get("admin_code"),
	})
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			redirectWithFlash(w, r, h.sessions, "/register", verr.First())
		case errors.Is(err, domain.ErrConflict):
			redirectWithFlash(w, r, h.sessions, "/register", ConflictMessage)
		default:
			logError(h.log, r, err, "register")
			redirectWithFlash(w, r, h.sessions, "/register", errorText(err, h.dev))
		}
		return
	}

	redirectWithFlash(w, r, h.sessions, "/login", RegisteredMessage)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		logError(h.log, r, err, "destroy session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
