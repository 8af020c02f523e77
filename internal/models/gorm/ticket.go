package gorm

import (
	"time"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
)

type Ticket struct {
	ID            string                 `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	UserID        string                 `gorm:"column:user_id;type:uuid;index;not null" json:"user_id"`
	Subject       string                 `gorm:"column:subject;not null" json:"subject"`
	Category      string                 `gorm:"column:category;not null;default:general" json:"category"`
	Priority      string                 `gorm:"column:priority;not null;default:normal" json:"priority"`
	Status        constants.TicketStatus `gorm:"column:status;type:varchar(16);index;not null;default:open" json:"status"`
	LastMessageAt time.Time              `gorm:"column:last_message_at;index" json:"last_message_at"`
	UnreadByUser  int                    `gorm:"column:unread_by_user;not null;default:0" json:"unread_by_user"`
	UnreadByAdmin int                    `gorm:"column:unread_by_admin;not null;default:0" json:"unread_by_admin"`
	UserTyping    bool                   `gorm:"column:user_typing;not null;default:false" json:"user_typing"`
	UserTypingAt  *time.Time             `gorm:"column:user_typing_at" json:"user_typing_at,omitempty"`
	AdminTyping   bool                   `gorm:"column:admin_typing;not null;default:false" json:"admin_typing"`
	AdminTypingAt *time.Time             `gorm:"column:admin_typing_at" json:"admin_typing_at,omitempty"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Messages []TicketMessage `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

type TicketMessage struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	TicketID  string    `gorm:"column:ticket_id;type:uuid;index;not null" json:"ticket_id"`
	SenderID  string    `gorm:"column:sender_id;type:uuid;not null" json:"sender_id"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	IsAdmin   bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`

	Attachments []TicketAttachment `gorm:"foreignKey:MessageID" json:"attachments"`
	Reactions   []TicketReaction   `gorm:"foreignKey:MessageID" json:"reactions"`
}

func (TicketMessage) TableName() string {
	return "ticket_messages"
}

func (m *TicketMessage) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type TicketAttachment struct {
	ID          string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	MessageID   string `gorm:"column:message_id;type:uuid;index;not null" json:"message_id"`
	FileName    string `gorm:"column:file_name;not null" json:"file_name"`
	URL         string `gorm:"column:url;not null" json:"url"`
	ContentType string `gorm:"column:content_type" json:"content_type"`
	Size        int64  `gorm:"column:size" json:"size"`
}

func (TicketAttachment) TableName() string {
	return "ticket_attachments"
}

func (a *TicketAttachment) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

type TicketReaction struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	MessageID string    `gorm:"column:message_id;type:uuid;not null;uniqueIndex:idx_reaction_unique,priority:1" json:"message_id"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reaction_unique,priority:2" json:"user_id"`
	Emoji     string    `gorm:"column:emoji;not null;uniqueIndex:idx_reaction_unique,priority:3" json:"emoji"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TicketReaction) TableName() string {
	return "ticket_reactions"
}

func (r *TicketReaction) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
