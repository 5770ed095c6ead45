package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dom/members-only/internal/api/middleware"
	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const InvalidMessageIDMessage = "Invalid message ID"

type MessageHandler struct {
	messageService *service.MessageService
	sessions       SessionManager
	log            *logrus.Logger
	dev            bool
}

func NewMessageHandler(messageService *service.MessageService, sessions SessionManager, log *logrus.Logger, dev bool) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		sessions:       sessions,
		log:            log,
		dev:            dev,
	}
}

type MessageResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	// Author is omitted for viewers who are not members.
	Author string `json:"author,omitempty"`
}

type MessageListResponse struct {
	User     *UserResponse     `json:"user"`
	Flash    string            `json:"flash,omitempty"`
	Messages []MessageResponse `json:"messages"`
	Error    string            `json:"error,omitempty"`
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "")
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "Invalid form submission")
		return
	}

	principal := middleware.FromContext(r.Context()).Principal
	_, err := h.messageService.Create(r.Context(), principal, service.MessageInput{
		Title: r.PostForm.Get("title"),
		Text:  r.PostForm.Get("text"),
	})
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			h.render(w, r, http.StatusBadRequest, verr.First())
		case errors.Is(err, domain.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			logError(h.log, r, err, "create message")
			h.render(w, r, http.StatusInternalServerError, errorText(err, h.dev))
		}
		return
	}

	http.Redirect(w, r, "/messages", http.StatusSeeOther)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.FromContext(r.Context()).Principal
	err := h.messageService.Delete(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			redirectWithFlash(w, r, h.sessions, "/messages", InvalidMessageIDMessage)
		case errors.Is(err, domain.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			logError(h.log, r, err, "delete message")
			redirectWithFlash(w, r, h.sessions, "/messages", errorText(err, h.dev))
		}
		return
	}

	http.Redirect(w, r, "/messages", http.StatusSeeOther)
}

// render writes the message board. A failed list renders an empty board
// with an error rather than failing the request outright.
func (h *MessageHandler) render(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	principal := middleware.FromContext(r.Context()).Principal

	resp := MessageListResponse{
		User:     toUserResponse(principal),
		Flash:    h.sessions.PopFlash(r.Context()),
		Messages: []MessageResponse{},
		Error:    errMsg,
	}

	views, err := h.messageService.List(r.Context())
	if err != nil {
		logError(h.log, r, err, "list messages")
		if resp.Error == "" {
			resp.Error = errorText(err, h.dev)
		}
		if status == http.StatusOK {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, resp)
		return
	}

	showAuthors := middleware.IsMember(principal)
	for _, v := range views {
		m := MessageResponse{
			ID:        v.ID,
			Title:     v.Title,
			Text:      v.Text,
			CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
		}
		if showAuthors {
			m.Author = v.AuthorName
		}
		resp.Messages = append(resp.Messages, m)
	}

	writeJSON(w, status, resp)
}
