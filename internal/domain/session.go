package domain

import "time"

// SessionRecord is the server-side half of a browser session. Token holds a
// keyed digest of the cookie value, never the cookie value itself.
type SessionRecord struct {
	Token  string    `gorm:"primaryKey;size:64"`
	Data   []byte    `gorm:"not null"`
	Expiry time.Time `gorm:"not null;index"`
}

func (SessionRecord) TableName() string {
	return "sessions"
}
