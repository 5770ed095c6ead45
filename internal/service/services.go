package service

import (
	"fmt"

	"github.com/dom/members-only/internal/config"
	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/metrics"
	"github.com/dom/members-only/internal/repository"
	"github.com/dom/members-only/internal/validation"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Auth    *AuthService
	Message *MessageService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, m *metrics.Metrics, log *logrus.Logger) *Services {
	v := validation.New()
	return &Services{
		Auth:    NewAuthService(repos.User, v, cfg, m, log),
		Message: NewMessageService(repos.Message, v, m, log),
	}
}

// storeError marks err as a persistence failure so callers can match
// domain.ErrStoreUnavailable while keeping the driver error in the chain.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
