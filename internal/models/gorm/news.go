package gorm

import (
	"time"

	"gorm.io/gorm"
)

type News struct {
	ID           string     `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Title        string     `gorm:"column:title;not null" json:"title"`
	Content      string     `gorm:"column:content;type:text" json:"content"`
	Category     string     `gorm:"column:category;not null;default:update" json:"category"`
	AuthorID     string     `gorm:"column:author_id" json:"author_id"`
	ScheduledFor *time.Time `gorm:"column:scheduled_for;index" json:"scheduled_for,omitempty"`
	Published    bool       `gorm:"column:published;index;not null;default:false" json:"published"`
	PublishedAt  *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (News) TableName() string {
	return "news"
}

func (n *News) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}
