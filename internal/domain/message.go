package domain

import "time"

type Message struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"size:100;not null"`
	Text      string    `json:"text" gorm:"size:1000;not null"`
	AuthorID  int64     `json:"authorId" gorm:"not null;index"`
	Author    *User     `json:"-" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}
