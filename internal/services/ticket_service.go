package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/db/repositories"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/metrics"
	"label-cabinet/backstage/internal/models/dtos"
	gormModels "label-cabinet/backstage/internal/models/gorm"
	"label-cabinet/backstage/internal/realtime"
	"label-cabinet/backstage/internal/storage"
)

const (
	maxMessageLength   = 5000
	maxSubjectLength   = 200
	maxAttachments     = 10
	maxEmojiBytes      = 16
	typingDebounceTime = time.Second
)

// Actor is the authenticated side of a support conversation.
type Actor struct {
	UserID string
	Staff  bool
}

func (a Actor) side() string {
	if a.Staff {
		return "admin"
	}
	return "user"
}

// TicketService runs support conversations between artists and staff.
type TicketService struct {
	db       *gorm.DB
	tickets  *repositories.TicketRepository
	cache    common.CacheInterface
	storage  storage.ObjectStorage
	realtime realtime.Publisher
	metrics  *metrics.MetricsRegistry
}

func NewTicketService(db *gorm.DB, cache common.CacheInterface, store storage.ObjectStorage, rt realtime.Publisher) *TicketService {
	return &TicketService{
		db:       db,
		tickets:  repositories.NewTicketRepository(db),
		cache:    cache,
		storage:  store,
		realtime: rt,
		metrics:  metrics.NewMetricsRegistry(),
	}
}

func toAttachments(reqs []dtos.AttachmentReq) ([]gormModels.TicketAttachment, error) {
	if len(reqs) > maxAttachments {
		return nil, constants.Invalid("at most %d attachments per message", maxAttachments)
	}
	out := make([]gormModels.TicketAttachment, 0, len(reqs))
	for _, a := range reqs {
		name, url := strings.TrimSpace(a.FileName), strings.TrimSpace(a.URL)
		if name == "" || !(strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")) {
			return nil, constants.Invalid("attachments need a file_name and an http(s) url")
		}
		out = append(out, gormModels.TicketAttachment{
			FileName:    name,
			URL:         url,
			ContentType: a.ContentType,
			Size:        a.Size,
		})
	}
	return out, nil
}

// newMessage validates message text and attachments; one of them is required.
func newMessage(senderID string, staff bool, text string, attachments []dtos.AttachmentReq) (*gormModels.TicketMessage, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, constants.Invalid("message must be at most %d characters", maxMessageLength)
	}
	files, err := toAttachments(attachments)
	if err != nil {
		return nil, err
	}
	if text == "" && len(files) == 0 {
		return nil, constants.Invalid("message text or an attachment is required")
	}
	return &gormModels.TicketMessage{
		SenderID:    senderID,
		Message:     text,
		IsAdmin:     staff,
		Attachments: files,
	}, nil
}

// accessible loads a ticket the actor may see.
func (s *TicketService) accessible(ctx context.Context, tickets *repositories.TicketRepository, actor Actor, id string) (*gormModels.Ticket, error) {
	ticket, err := tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && ticket.UserID != actor.UserID {
		return nil, fmt.Errorf("ticket %s: %w", id, constants.ErrForbidden)
	}
	return ticket, nil
}

func (s *TicketService) publishTicket(ctx context.Context, ticket *gormModels.Ticket, eventType realtime.EventType) {
	t := *ticket
	t.Messages = nil
	s.realtime.Publish(ctx, realtime.NewEvent(eventType, constants.TableTickets, t, t.UserID))
}

// CreateTicket opens a ticket with its first message.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, req dtos.CreateTicketReq) (*gormModels.Ticket, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" || utf8.RuneCountInString(subject) > maxSubjectLength {
		return nil, constants.Invalid("subject is required and must be at most %d characters", maxSubjectLength)
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}
	if !constants.TicketCategories[category] {
		return nil, constants.Invalid("unknown category %q", category)
	}
	priority := strings.TrimSpace(req.Priority)
	if priority == "" {
		priority = "normal"
	}
	if !constants.TicketPriorities[priority] {
		return nil, constants.Invalid("unknown priority %q", priority)
	}

	msg, err := newMessage(userID, false, req.Message, req.Attachments)
	if err != nil {
		return nil, err
	}

	ticket := &gormModels.Ticket{
		UserID:        userID,
		Subject:       subject,
		Category:      category,
		Priority:      priority,
		Status:        constants.TicketOpen,
		LastMessageAt: time.Now().UTC(),
		UnreadByAdmin: 1,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tickets := s.tickets.WithTx(tx)
		if err := tickets.Create(ctx, ticket); err != nil {
			return err
		}
		msg.TicketID = ticket.ID
		return tickets.CreateMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TicketMessagesTotal.WithLabelValues("user").Inc()
	s.publishTicket(ctx, ticket, realtime.EventInsert)
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventInsert, constants.TableTicketMessages, msg, userID))
	logging.Info("Ticket opened", "ticket_id", ticket.ID, "user_id", userID, "category", category)

	ticket.Messages = []gormModels.TicketMessage{*msg}
	return ticket, nil
}

func (s *TicketService) ListTickets(ctx context.Context, userID string) ([]gormModels.Ticket, error) {
	return s.tickets.List(ctx, userID, "")
}

func (s *TicketService) ListAllTickets(ctx context.Context, status string) ([]gormModels.Ticket, error) {
	st := constants.TicketStatus(status)
	if st != "" && !st.Valid() {
		return nil, constants.Invalid("unknown status %q", status)
	}
	return s.tickets.List(ctx, "", st)
}

// GetTicket returns the ticket with messages, attachments and reactions.
func (s *TicketService) GetTicket(ctx context.Context, actor Actor, id string) (*gormModels.Ticket, error) {
	ticket, err := s.tickets.GetWithMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && ticket.UserID != actor.UserID {
		return nil, fmt.Errorf("ticket %s: %w", id, constants.ErrForbidden)
	}
	return ticket, nil
}

func (s *TicketService) ListMessages(ctx context.Context, actor Actor, ticketID string) ([]gormModels.TicketMessage, error) {
	if _, err := s.accessible(ctx, s.tickets, actor, ticketID); err != nil {
		return nil, err
	}
	return s.tickets.ListMessages(ctx, ticketID)
}

// PostMessage appends a message and updates status, unread counters and the
// sender's typing flag in one transaction. Staff replies mark the ticket
// answered, artist replies reopen it. Artists cannot write to closed tickets.
func (s *TicketService) PostMessage(ctx context.Context, actor Actor, ticketID string, req dtos.PostMessageReq) (*gormModels.TicketMessage, error) {
	msg, err := newMessage(actor.UserID, actor.Staff, req.Message, req.Attachments)
	if err != nil {
		return nil, err
	}

	var updated *gormModels.Ticket
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tickets := s.tickets.WithTx(tx)

		ticket, err := s.accessible(ctx, tickets, actor, ticketID)
		if err != nil {
			return err
		}
		if !actor.Staff && ticket.Status == constants.TicketClosed {
			return constants.ErrTicketClosed
		}

		msg.TicketID = ticket.ID
		if err := tickets.CreateMessage(ctx, msg); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"last_message_at": msg.CreatedAt.UTC(),
		}
		if actor.Staff {
			fields["status"] = constants.TicketAnswered
			fields["unread_by_user"] = gorm.Expr("unread_by_user + ?", 1)
			fields["admin_typing"] = false
			fields["admin_typing_at"] = nil
		} else {
			fields["status"] = constants.TicketOpen
			fields["unread_by_admin"] = gorm.Expr("unread_by_admin + ?", 1)
			fields["user_typing"] = false
			fields["user_typing_at"] = nil
		}
		if err := tickets.Update(ctx, ticket.ID, fields); err != nil {
			return err
		}

		updated, err = tickets.GetByID(ctx, ticket.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TicketMessagesTotal.WithLabelValues(actor.side()).Inc()
	s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventInsert, constants.TableTicketMessages, msg, updated.UserID))
	s.publishTicket(ctx, updated, realtime.EventUpdate)
	return msg, nil
}

// MarkRead resets the actor side's unread counter.
func (s *TicketService) MarkRead(ctx context.Context, actor Actor, ticketID string) (*gormModels.Ticket, error) {
	field := "unread_by_user"
	if actor.Staff {
		field = "unread_by_admin"
	}
	return s.update(ctx, actor, ticketID, map[string]interface{}{field: 0})
}

func (s *TicketService) SetTicketStatus(ctx context.Context, actor Actor, ticketID, status string) (*gormModels.Ticket, error) {
	st := constants.TicketStatus(status)
	if !st.Valid() {
		return nil, constants.Invalid("unknown status %q", status)
	}
	return s.update(ctx, actor, ticketID, map[string]interface{}{"status": st})
}

// CloseTicket lets the owner close their own ticket.
func (s *TicketService) CloseTicket(ctx context.Context, actor Actor, ticketID string) (*gormModels.Ticket, error) {
	return s.update(ctx, Actor{UserID: actor.UserID}, ticketID, map[string]interface{}{"status": constants.TicketClosed})
}

func (s *TicketService) update(ctx context.Context, actor Actor, ticketID string, fields map[string]interface{}) (*gormModels.Ticket, error) {
	if _, err := s.accessible(ctx, s.tickets, actor, ticketID); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticketID, fields); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	s.publishTicket(ctx, ticket, realtime.EventUpdate)
	return ticket, nil
}

func validEmoji(emoji string) bool {
	return len(emoji) >= 1 && len(emoji) <= maxEmojiBytes && utf8.ValidString(emoji) && strings.TrimSpace(emoji) == emoji
}

// messageTicket checks that the actor may see the message's ticket.
func (s *TicketService) messageTicket(ctx context.Context, actor Actor, messageID string) (*gormModels.Ticket, error) {
	msg, err := s.tickets.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return s.accessible(ctx, s.tickets, actor, msg.TicketID)
}

// React adds the actor's emoji to a message. Repeating it is a no-op.
func (s *TicketService) React(ctx context.Context, actor Actor, messageID, emoji string) (*gormModels.TicketReaction, error) {
	if !validEmoji(emoji) {
		return nil, constants.Invalid("emoji must be 1 to %d bytes", maxEmojiBytes)
	}
	ticket, err := s.messageTicket(ctx, actor, messageID)
	if err != nil {
		return nil, err
	}

	reaction := &gormModels.TicketReaction{MessageID: messageID, UserID: actor.UserID, Emoji: emoji}
	inserted, err := s.tickets.AddReaction(ctx, reaction)
	if err != nil {
		return nil, err
	}
	if inserted {
		s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventInsert, constants.TableReactions, reaction, ticket.UserID))
	}
	return reaction, nil
}

// Unreact removes the actor's emoji from a message. Removing a missing reaction is a no-op.
func (s *TicketService) Unreact(ctx context.Context, actor Actor, messageID, emoji string) error {
	if !validEmoji(emoji) {
		return constants.Invalid("emoji must be 1 to %d bytes", maxEmojiBytes)
	}
	ticket, err := s.messageTicket(ctx, actor, messageID)
	if err != nil {
		return err
	}

	removed, err := s.tickets.RemoveReaction(ctx, messageID, actor.UserID, emoji)
	if err != nil {
		return err
	}
	if removed != nil {
		s.realtime.Publish(ctx, realtime.NewEvent(realtime.EventDelete, constants.TableReactions, removed, ticket.UserID))
	}
	return nil
}

// SetTyping records the actor side's typing flag. Repeated typing=true
// writes within a second are dropped; typing=false always writes and
// resets the debounce window.
func (s *TicketService) SetTyping(ctx context.Context, actor Actor, ticketID string, typing bool) error {
	if _, err := s.accessible(ctx, s.tickets, actor, ticketID); err != nil {
		return err
	}

	side := actor.side()
	debounceKey := common.CacheKey(string(constants.CachePrefixTyping), ticketID, side)
	if !typing {
		s.cache.Delete(debounceKey)
	} else if !s.cache.SetNX(debounceKey, true, typingDebounceTime) {
		return nil
	}

	fields := map[string]interface{}{side + "_typing": typing, side + "_typing_at": nil}
	if typing {
		fields[side+"_typing_at"] = time.Now().UTC()
	}
	if err := s.tickets.Update(ctx, ticketID, fields); err != nil {
		return err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	s.publishTicket(ctx, ticket, realtime.EventUpdate)
	return nil
}

// ClearStaleTyping resets typing flags older than ttl and returns how many were cleared.
func (s *TicketService) ClearStaleTyping(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	stale, err := s.tickets.StaleTyping(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, t := range stale {
		changed := false
		for _, admin := range []bool{false, true} {
			ok, err := s.tickets.ClearStaleTyping(ctx, t.ID, admin, cutoff)
			if err != nil {
				return cleared, err
			}
			if ok {
				cleared++
				changed = true
			}
		}
		if !changed {
			continue
		}

		ticket, err := s.tickets.GetByID(ctx, t.ID)
		if err != nil {
			return cleared, err
		}
		s.publishTicket(ctx, ticket, realtime.EventUpdate)
	}
	return cleared, nil
}

func (s *TicketService) UploadAttachment(ctx context.Context, userID, fileName string, data []byte) (*dtos.UploadResponse, error) {
	return storeUpload(ctx, s.storage, constants.BucketTicketAttachments, userID, fileName, data)
}
