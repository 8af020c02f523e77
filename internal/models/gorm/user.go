package gorm

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
)

// Profile is a label member. ID equals the auth provider's user id.
type Profile struct {
	ID        string          `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Email     string          `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Nickname  string          `gorm:"column:nickname" json:"nickname"`
	Role      constants.Role  `gorm:"column:role;type:varchar(16);not null;default:basic" json:"role"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(14,2);not null;default:0" json:"balance"`
	MemberID  string          `gorm:"column:member_id;uniqueIndex;not null" json:"member_id"`
	Avatar    *string         `gorm:"column:avatar" json:"avatar"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
