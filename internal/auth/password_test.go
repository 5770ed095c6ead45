package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "Secret123", hash)
	assert.True(t, CheckPassword("Secret123", hash))
	assert.False(t, CheckPassword("secret123", hash))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, Cost, cost)
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("Secret123")
	require.NoError(t, err)
	second, err := HashPassword("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("Secret123", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("Secret123", ""))
}

func TestCompareCode(t *testing.T) {
	tests := []struct {
		name       string
		supplied   string
		configured string
		want       bool
	}{
		{name: "exact match", supplied: "open-sesame", configured: "open-sesame", want: true},
		{name: "case differs", supplied: "Open-Sesame", configured: "open-sesame", want: false},
		{name: "wrong code", supplied: "nope", configured: "open-sesame", want: false},
		{name: "empty supplied", supplied: "", configured: "open-sesame", want: false},
		{name: "unconfigured", supplied: "", configured: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareCode(tt.supplied, tt.configured))
		})
	}
}
