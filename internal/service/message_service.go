package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/metrics"
	"github.com/dom/members-only/internal/repository"
	"github.com/dom/members-only/internal/validation"
	"github.com/sirupsen/logrus"
)

type MessageService struct {
	messageRepo repository.MessageRepository
	validator   *validation.Validator
	metrics     *metrics.Metrics
	log         *logrus.Logger
	now         func() time.Time
}

func NewMessageService(messageRepo repository.MessageRepository, v *validation.Validator, m *metrics.Metrics, log *logrus.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		validator:   v,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

type MessageInput struct {
	Title string `validate:"required,max=100" label:"Title"`
	Text  string `validate:"required,max=1000" label:"Message"`
}

// MessageView is a message paired with its author's display name.
type MessageView struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"author"`
}

// List returns every message, newest first.
func (s *MessageService) List(ctx context.Context) ([]MessageView, error) {
	messages, err := s.messageRepo.ListNewestFirst(ctx)
	if err != nil {
		return nil, storeError("list messages", err)
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		view := MessageView{
			ID:        m.ID,
			Title:     m.Title,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
			AuthorID:  m.AuthorID,
		}
		if m.Author != nil {
			view.AuthorName = m.Author.FullName()
		}
		views = append(views, view)
	}
	return views, nil
}

// Create stores a message authored by principal, who must be a member.
func (s *MessageService) Create(ctx context.Context, principal *domain.User, input MessageInput) (*domain.Message, error) {
	if principal == nil || !principal.IsMember {
		return nil, domain.ErrForbidden
	}

	input.Title = s.validator.Text(input.Title)
	input.Text = s.validator.Text(input.Text)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		Title:     input.Title,
		Text:      input.Text,
		AuthorID:  principal.ID,
		CreatedAt: s.now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, storeError("create message", err)
	}

	s.metrics.MessageOp("create")
	s.log.WithFields(logrus.Fields{"message_id": msg.ID, "user_id": principal.ID}).Info("message created")
	return msg, nil
}

// Delete removes the message named by rawID. principal must be an admin. An
// id that parses but names no message is not an error.
func (s *MessageService) Delete(ctx context.Context, principal *domain.User, rawID string) error {
	if principal == nil || !principal.IsAdmin {
		return domain.ErrForbidden
	}

	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return domain.ErrNotFound
	}

	log := s.log.WithFields(logrus.Fields{"message_id": id, "user_id": principal.ID})

	deleted, err := s.messageRepo.Delete(ctx, id)
	if err != nil {
		return storeError("delete message", err)
	}
	if !deleted {
		log.Info("delete requested for a message that does not exist")
		return nil
	}

	s.metrics.MessageOp("delete")
	log.Info("message deleted")
	return nil
}
