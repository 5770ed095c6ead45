package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dom/members-only/internal/auth"
	"github.com/dom/members-only/internal/config"
	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/metrics"
	"github.com/dom/members-only/internal/repository"
	"github.com/dom/members-only/internal/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo  repository.UserRepository
	validator *validation.Validator
	cfg       *config.Config
	metrics   *metrics.Metrics
	log       *logrus.Logger
}

func NewAuthService(userRepo repository.UserRepository, v *validation.Validator, cfg *config.Config, m *metrics.Metrics, log *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		validator: v,
		cfg:       cfg,
		metrics:   m,
		log:       log,
	}
}

type RegisterInput struct {
	FirstName       string `validate:"required,min=2,max=50,alphaspace" label:"First name"`
	LastName        string `validate:"required,min=2,max=50,alphaspace" label:"Last name"`
	Username        string `validate:"required,min=3,max=30,username" label:"Username"`
	Email           string `validate:"required,max=254,email" label:"Email"`
	Password        string `validate:"required,min=6,max=100,strongpassword" label:"Password"`
	ConfirmPassword string `validate:"required,eqfield=Password" label:"Password confirmation"`
	// AdminCode is optional; when it matches ADMIN_CODE the account starts as admin.
	AdminCode string `validate:"-"`
}

type LoginInput struct {
	Identifier string `validate:"required" label:"Username or email"`
	Password   string `validate:"required" label:"Password"`
}

// Register creates a user and returns its id.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (int64, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := s.validator.Struct(input); err != nil {
		s.metrics.Registration(metrics.ResultInvalid, "")
		return 0, err
	}
	email := validation.NormalizeEmail(input.Email)

	log := s.log.WithFields(logrus.Fields{"username": input.Username, "email": email})

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, input.Username, email)
	if err != nil {
		s.metrics.Registration(metrics.ResultError, "")
		return 0, storeError("check existing user", err)
	}
	if exists {
		s.metrics.Registration(metrics.ResultConflict, "")
		return 0, domain.ErrConflict
	}

	user := &domain.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     email,
	}
	if input.AdminCode != "" {
		if auth.CompareCode(input.AdminCode, s.cfg.AdminCode) {
			user.IsAdmin = true
		} else {
			log.Warn("registration supplied an incorrect admin code")
		}
	}
	user.Normalize()

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		s.metrics.Registration(metrics.ResultError, "")
		return 0, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.metrics.Registration(metrics.ResultConflict, "")
			return 0, domain.ErrConflict
		}
		s.metrics.Registration(metrics.ResultError, "")
		return 0, storeError("create user", err)
	}

	role := "user"
	if user.IsAdmin {
		role = "admin"
	}
	s.metrics.Registration(metrics.ResultSuccess, role)
	log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user registered")

	return user.ID, nil
}

// Authenticate looks identifier up as a username or an email, exact and
// case-sensitive, and verifies the password against the stored hash.
func (s *AuthService) Authenticate(ctx context.Context, input LoginInput) (*domain.User, error) {
	if err := s.validator.Struct(input); err != nil {
		s.metrics.Login(metrics.ResultInvalid)
		return nil, err
	}

	log := s.log.WithField("identifier", input.Identifier)

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, input.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.Login(metrics.ResultUserNotFound)
			log.WithField("reason", "user_not_found").Info("login failed")
			return nil, domain.ErrUserNotFound
		}
		s.metrics.Login(metrics.ResultError)
		return nil, storeError("find user", err)
	}

	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		s.metrics.Login(metrics.ResultBadPassword)
		log.WithFields(logrus.Fields{"reason": "bad_password", "user_id": user.ID}).Info("login failed")
		return nil, domain.ErrInvalidCredentials
	}

	s.metrics.Login(metrics.ResultSuccess)
	log.WithField("user_id", user.ID).Info("login succeeded")
	return user, nil
}

// Promote grants membership to principal when code matches MEMBER_CODE. The
// principal is updated in place so the current request sees the new role.
func (s *AuthService) Promote(ctx context.Context, principal *domain.User, code string) error {
	if principal == nil {
		return domain.ErrForbidden
	}

	log := s.log.WithField("user_id", principal.ID)

	if !auth.CompareCode(code, s.cfg.MemberCode) {
		s.metrics.Promotion(metrics.ResultIncorrectCode)
		log.Info("membership promotion rejected")
		return domain.ErrIncorrectCode
	}

	if principal.IsMember {
		s.metrics.Promotion(metrics.ResultSuccess)
		return nil
	}

	if err := s.userRepo.UpdateRoles(ctx, principal.ID, principal.IsAdmin, true); err != nil {
		s.metrics.Promotion(metrics.ResultError)
		return storeError("update roles", err)
	}
	principal.IsMember = true

	s.metrics.Promotion(metrics.ResultSuccess)
	log.Info("user promoted to member")
	return nil
}
