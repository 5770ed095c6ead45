package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName    string    `json:"firstName" gorm:"size:50;not null"`
	LastName     string    `json:"lastName" gorm:"size:50;not null"`
	Username     string    `json:"username" gorm:"size:30;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsAdmin      bool      `json:"isAdmin" gorm:"not null;default:false"`
	IsMember     bool      `json:"isMember" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FullName is the display name shown next to a user's messages.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Normalize enforces that an admin is always a member.
func (u *User) Normalize() {
	if u.IsAdmin {
		u.IsMember = true
	}
}
