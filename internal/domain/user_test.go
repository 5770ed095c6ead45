package domain_test

import (
	"testing"

	"github.com/dom/members-only/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestUser_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		user       domain.User
		wantMember bool
	}{
		{name: "admin becomes member", user: domain.User{IsAdmin: true}, wantMember: true},
		{name: "plain user untouched", user: domain.User{}, wantMember: false},
		{name: "member stays member", user: domain.User{IsMember: true}, wantMember: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.user.Normalize()
			assert.Equal(t, tt.wantMember, tt.user.IsMember)
		})
	}
}

func TestUser_FullName(t *testing.T) {
	u := &domain.User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())
}

func TestValidationError(t *testing.T) {
	err := domain.NewValidationError("Title is required", "Text is required")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Title is required", err.First())
	assert.Equal(t, "Invalid input", domain.NewValidationError().First())
}
