package repository

import (
	"context"
	"time"

	"github.com/dom/members-only/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByUsernameOrEmail matches identifier exactly against either column.
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdateRoles(ctx context.Context, id int64, isAdmin, isMember bool) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	// ListNewestFirst returns every message with its Author preloaded.
	ListNewestFirst(ctx context.Context) ([]*domain.Message, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

type SessionRepository interface {
	Find(ctx context.Context, token string) (*domain.SessionRecord, error)
	Commit(ctx context.Context, record *domain.SessionRecord) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Repositories struct {
	User    UserRepository
	Message MessageRepository
	Session SessionRepository
}
