package gorm

import (
	"time"

	"gorm.io/gorm"
)

// EmailToken confirms a pending email change.
type EmailToken struct {
	ID        string     `gorm:"column:id;primaryKey;type:uuid"`
	UserID    string     `gorm:"column:user_id;type:uuid;index;not null"`
	NewEmail  string     `gorm:"column:new_email;not null"`
	Token     string     `gorm:"column:token;uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (EmailToken) TableName() string {
	return "email_tokens"
}

func (e *EmailToken) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}
