package gorm

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
)

type Track struct {
	Title       string `json:"title"`
	ISRC        string `json:"isrc,omitempty"`
	Explicit    bool   `json:"explicit"`
	DurationSec int    `json:"duration_sec,omitempty"`
	AudioURL    string `json:"audio_url,omitempty"`
}

type Release struct {
	ID           string                      `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID       string                      `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`
	Title        string                      `gorm:"column:title" json:"title"`
	ArtistName   string                      `gorm:"column:artist_name" json:"artist_name"`
	Genre        string                      `gorm:"column:genre" json:"genre"`
	ReleaseDate  *time.Time                  `gorm:"column:release_date" json:"release_date"`
	CoverURL     *string                     `gorm:"column:cover_url" json:"cover_url"`
	Tracks       datatypes.JSONSlice[Track]  `gorm:"column:tracks" json:"tracks"`
	Countries    datatypes.JSONSlice[string] `gorm:"column:countries" json:"countries"`
	Platforms    datatypes.JSONSlice[string] `gorm:"column:platforms" json:"platforms"`
	Status       constants.ReleaseStatus     `gorm:"column:status;type:varchar(16);index;not null;default:draft" json:"status"`
	RejectReason *string                     `gorm:"column:reject_reason" json:"reject_reason"`
	UPC          *string                     `gorm:"column:upc" json:"upc"`
	SubmittedAt  *time.Time                  `gorm:"column:submitted_at" json:"submitted_at"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Release) TableName() string {
	return "releases"
}

func (r *Release) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
