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
	IncorrectCodeMessage = "Incorrect code"
	WelcomeMemberMessage = "Welcome to the club"
)

type MembershipHandler struct {
	authService *service.AuthService
	sessions    SessionManager
	log         *logrus.Logger
	dev         bool
}

func NewMembershipHandler(authService *service.AuthService, sessions SessionManager, log *logrus.Logger, dev bool) *MembershipHandler {
	return &MembershipHandler{
		authService: authService,
		sessions:    sessions,
		log:         log,
		dev:         dev,
	}
}

func (h *MembershipHandler) BecomeMember(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, h.sessions, "/become-member", "Invalid form submission")
		return
	}

	principal := middleware.FromContext(r.Context()).Principal
	err := h.authService.Promote(r.Context(), principal, r.PostForm.Get("code"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIncorrectCode):
			redirectWithFlash(w, r, h.sessions, "/become-member", IncorrectCodeMessage)
		case errors.Is(err, domain.ErrForbidden):
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			logError(h.log, r, err, "promote member")
			redirectWithFlash(w, r, h.sessions, "/become-member", errorText(err, h.dev))
		}
		return
	}

	redirectWithFlash(w, r, h.sessions, "/messages", WelcomeMemberMessage)
}
