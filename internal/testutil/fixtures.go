package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword satisfies the registration password rules.
const DefaultPassword = "Testpass123"

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	firstName string
	lastName  string
	username  string
	email     string
	password  string
	isMember  bool
	isAdmin   bool
}

// NewUserBuilder creates a new UserBuilder with unique default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		firstName: "Test",
		lastName:  "User",
		username:  "user_" + suffix,
		email:     fmt.Sprintf("user_%s@example.com", suffix),
		password:  DefaultPassword,
	}
}

func (b *UserBuilder) WithName(first, last string) *UserBuilder {
	b.firstName = first
	b.lastName = last
	return b
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// AsMember marks the user as a member
func (b *UserBuilder) AsMember() *UserBuilder {
	b.isMember = true
	return b
}

// AsAdmin marks the user as an admin, which implies membership
func (b *UserBuilder) AsAdmin() *UserBuilder {
	b.isAdmin = true
	b.isMember = true
	return b
}

// Build stores the user and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, users repository.UserRepository) (*domain.User, string) {
	t.Helper()

	// MinCost keeps fixtures fast; production hashing is covered in internal/auth.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		FirstName:    b.firstName,
		LastName:     b.lastName,
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		IsAdmin:      b.isAdmin,
		IsMember:     b.isMember,
	}

	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// MessageBuilder creates test messages
type MessageBuilder struct {
	author    *domain.User
	title     string
	text      string
	createdAt time.Time
}

func NewMessageBuilder(author *domain.User) *MessageBuilder {
	return &MessageBuilder{
		author:    author,
		title:     "Hello",
		text:      "First post",
		createdAt: time.Now(),
	}
}

func (b *MessageBuilder) WithTitle(title string) *MessageBuilder {
	b.title = title
	return b
}

func (b *MessageBuilder) WithText(text string) *MessageBuilder {
	b.text = text
	return b
}

// At sets the creation timestamp
func (b *MessageBuilder) At(createdAt time.Time) *MessageBuilder {
	b.createdAt = createdAt
	return b
}

func (b *MessageBuilder) Build(t *testing.T, messages repository.MessageRepository) *domain.Message {
	t.Helper()

	msg := &domain.Message{
		Title:     b.title,
		Text:      b.text,
		AuthorID:  b.author.ID,
		CreatedAt: b.createdAt,
	}

	if err := messages.Create(context.Background(), msg); err != nil {
		t.Fatalf("failed to create message: %v", err)
	}

	return msg
}
