package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"label-cabinet/backstage/internal/constants"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

// TicketRepository handles support tickets, their messages, attachments and reactions
type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) WithTx(tx *gorm.DB) *TicketRepository {
	return &TicketRepository{db: tx}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *gormModels.Ticket) error {
	if err := r.db.WithContext(ctx).Omit("Messages").Create(ticket).Error; err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// GetByID loads a ticket without its messages.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*gormModels.Ticket, error) {
	var ticket gormModels.Ticket

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&ticket).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("ticket %s: %w", id, constants.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch ticket: %w", err)
	}

	return &ticket, nil
}

// GetWithMessages loads a ticket with messages in chronological order,
// their attachments and reactions preloaded.
func (r *TicketRepository) GetWithMessages(ctx context.Context, id string) (*gormModels.Ticket, error) {
	var ticket gormModels.Ticket

	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Messages.Attachments").
		Preload("Messages.Reactions").
		Where("id = ?", id).
		First(&ticket).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("ticket %s: %w", id, constants.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch ticket: %w", err)
	}

	return &ticket, nil
}

// List returns tickets by most recent activity. Empty filters match everything.
func (r *TicketRepository) List(ctx context.Context, userID string, status constants.TicketStatus) ([]gormModels.Ticket, error) {
	q := r.db.WithContext(ctx).Order("last_message_at DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var tickets []gormModels.Ticket
	if err := q.Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// Update writes the given ticket columns. Values may be gorm expressions.
func (r *TicketRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&gormModels.Ticket{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update ticket: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ticket %s: %w", id, constants.ErrNotFound)
	}
	return nil
}

func (r *TicketRepository) CountByStatus(ctx context.Context, statuses ...constants.TicketStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.Ticket{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

// CreateMessage inserts the message together with its attachments.
func (r *TicketRepository) CreateMessage(ctx context.Context, msg *gormModels.TicketMessage) error {
	if err := r.db.WithContext(ctx).Omit("Reactions").Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create ticket message: %w", err)
	}
	return nil
}

func (r *TicketRepository) ListMessages(ctx context.Context, ticketID string) ([]gormModels.TicketMessage, error) {
	var messages []gormModels.TicketMessage
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Preload("Reactions").
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket messages: %w", err)
	}
	return messages, nil
}

func (r *TicketRepository) GetMessage(ctx context.Context, id string) (*gormModels.TicketMessage, error) {
	var msg gormModels.TicketMessage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("message %s: %w", id, constants.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch ticket message: %w", err)
	}
	return &msg, nil
}

// AddReaction inserts the reaction; an existing identical reaction is left alone.
// Returns true when a row was inserted.
func (r *TicketRepository) AddReaction(ctx context.Context, reaction *gormModels.TicketReaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reaction)
	if res.Error != nil {
		return false, fmt.Errorf("failed to add reaction: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// RemoveReaction deletes the reaction and returns the removed row, or nil when absent.
func (r *TicketRepository) RemoveReaction(ctx context.Context, messageID, userID, emoji string) (*gormModels.TicketReaction, error) {
	var reaction gormModels.TicketReaction
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		First(&reaction).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch reaction: %w", err)
	}

	if err := r.db.WithContext(ctx).Delete(&reaction).Error; err != nil {
		return nil, fmt.Errorf("failed to remove reaction: %w", err)
	}
	return &reaction, nil
}

// StaleTyping returns tickets with a typing flag set before cutoff.
func (r *TicketRepository) StaleTyping(ctx context.Context, cutoff time.Time) ([]gormModels.Ticket, error) {
	var tickets []gormModels.Ticket
	err := r.db.WithContext(ctx).
		Where("(user_typing = ? AND user_typing_at < ?) OR (admin_typing = ? AND admin_typing_at < ?)", true, cutoff, true, cutoff).
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale typing flags: %w", err)
	}
	return tickets, nil
}

// ClearStaleTyping resets one side's typing flag if it is still older than cutoff.
func (r *TicketRepository) ClearStaleTyping(ctx context.Context, id string, admin bool, cutoff time.Time) (bool, error) {
	flag, at := "user_typing", "user_typing_at"
	if admin {
		flag, at = "admin_typing", "admin_typing_at"
	}

	res := r.db.WithContext(ctx).
		Model(&gormModels.Ticket{}).
		Where("id = ? AND "+flag+" = ? AND "+at+" < ?", id, true, cutoff).
		Updates(map[string]interface{}{flag: false, at: nil})
	if res.Error != nil {
		return false, fmt.Errorf("failed to clear typing flag: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
