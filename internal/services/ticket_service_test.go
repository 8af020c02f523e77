package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/models/dtos"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

var (
	artist = Actor{UserID: artistID}
	staff  = Actor{UserID: adminID, Staff: true}
)

func newTicketService(db *gorm.DB) (*TicketService, *recordingPublisher) {
	rt := &recordingPublisher{}
	return NewTicketService(db, common.NewCacheService(60, 120), newFakeStorage(), rt), rt
}

func openTicket(t *testing.T, svc *TicketService) *gormModels.Ticket {
	ticket, err := svc.CreateTicket(context.Background(), artistID, dtos.CreateTicketReq{
		Subject: "Royalty statement",
		Message: "Where is my Q1 statement?",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return ticket
}

func TestTicketService_CreateTicket(t *testing.T) {
	db := setupTestDB(t)
	svc, rt := newTicketService(db)

	ticket := openTicket(t, svc)
	if ticket.Status != constants.TicketOpen {
		t.Errorf("Expected open, got %s", ticket.Status)
	}
	if ticket.Category != "general" || ticket.Priority != "normal" {
		t.Errorf("Expected default category and priority, got %s/%s", ticket.Category, ticket.Priority)
	}
	if ticket.UnreadByAdmin != 1 {
		t.Errorf("Expected unread_by_admin 1, got %d", ticket.UnreadByAdmin)
	}
	if rt.count(constants.TableTicketMessages, "INSERT") != 1 {
		t.Error("Expected realtime message insert")
	}

	_, err := svc.CreateTicket(context.Background(), artistID, dtos.CreateTicketReq{Subject: "Empty"})
	if !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error without message, got %v", err)
	}
}

func TestTicketService_PostMessage_StatusAndUnread(t *testing.T) {
	db := setupTestDB(t)
	svc, rt := newTicketService(db)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	if _, err := svc.PostMessage(ctx, staff, ticket.ID, dtos.PostMessageReq{Message: "Sent it today."}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, _ := svc.GetTicket(ctx, staff, ticket.ID)
	if got.Status != constants.TicketAnswered {
		t.Errorf("Expected answered after staff reply, got %s", got.Status)
	}
	if got.UnreadByUser != 1 {
		t.Errorf("Expected unread_by_user 1, got %d", got.UnreadByUser)
	}
	if len(got.Messages) != 2 || !got.Messages[1].IsAdmin {
		t.Errorf("Expected staff message appended, got %+v", got.Messages)
	}

	if _, err := svc.PostMessage(ctx, artist, ticket.ID, dtos.PostMessageReq{Message: "Thanks!"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, _ = svc.GetTicket(ctx, artist, ticket.ID)
	if got.Status != constants.TicketOpen {
		t.Errorf("Expected open after artist reply, got %s", got.Status)
	}
	if got.UnreadByAdmin != 2 {
		t.Errorf("Expected unread_by_admin 2, got %d", got.UnreadByAdmin)
	}

	if rt.count(constants.TableTickets, "UPDATE") != 2 {
		t.Errorf("Expected 2 ticket updates, got %d", rt.count(constants.TableTickets, "UPDATE"))
	}

	if _, err := svc.MarkRead(ctx, staff, ticket.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, _ = svc.GetTicket(ctx, staff, ticket.ID)
	if got.UnreadByAdmin != 0 || got.UnreadByUser != 1 {
		t.Errorf("Expected only admin counter reset, got admin=%d user=%d", got.UnreadByAdmin, got.UnreadByUser)
	}
}

func TestTicketService_PostMessage_ClosedTicket(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTicketService(db)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	if _, err := svc.CloseTicket(ctx, artist, ticket.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err := svc.PostMessage(ctx, artist, ticket.ID, dtos.PostMessageReq{Message: "One more thing"})
	if !errors.Is(err, constants.ErrTicketClosed) {
		t.Errorf("Expected ErrTicketClosed, got %v", err)
	}

	var count int64
	db.Model(&gormModels.TicketMessage{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected no new message, got %d messages", count)
	}
}

func TestTicketService_PostMessage_ClearsSenderTyping(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTicketService(db)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	if err := svc.SetTyping(ctx, artist, ticket.ID, true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, _ := svc.GetTicket(ctx, artist, ticket.ID)
	if !got.UserTyping {
		t.Fatal("Expected user typing flag set")
	}

	if _, err := svc.PostMessage(ctx, artist, ticket.ID, dtos.PostMessageReq{Message: "done typing"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, _ = svc.GetTicket(ctx, artist, ticket.ID)
	if got.UserTyping {
		t.Error("Expected typing flag cleared by posting")
	}
}

func TestTicketService_AccessControl(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTicketService(db)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	stranger := Actor{UserID: ownerID}
	if _, err := svc.GetTicket(ctx, stranger, ticket.ID); !errors.Is(err, constants.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	if _, err := svc.PostMessage(ctx, stranger, ticket.ID, dtos.PostMessageReq{Message: "hi"}); !errors.Is(err, constants.ErrForbidden) {
		t.Errorf("Expected ErrForbidden posting, got %v", err)
	}
}

func TestTicketService_Reactions(t *testing.T) {
	db := setupTestDB(t)
	svc, rt := newTicketService(db)
	ctx := context.Background()
	ticket := openTicket(t, svc)
	msgID := ticket.Messages[0].ID

	for i := 0; i < 2; i++ {
		if _, err := svc.React(ctx, staff, msgID, "👍"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	var count int64
	db.Model(&gormModels.TicketReaction{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected reacting twice to store one reaction, got %d", count)
	}
	if rt.count(constants.TableReactions, "INSERT") != 1 {
		t.Error("Expected a single realtime reaction insert")
	}

	if err := svc.Unreact(ctx, staff, msgID, "👍"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := svc.Unreact(ctx, staff, msgID, "👍"); err != nil {
		t.Fatalf("Expected removing a missing reaction to be a no-op, got %v", err)
	}
	db.Model(&gormModels.TicketReaction{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected reaction removed, got %d", count)
	}

	if _, err := svc.React(ctx, staff, msgID, ""); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error for empty emoji, got %v", err)
	}
	if _, err := svc.React(ctx, staff, msgID, "this-is-way-too-long"); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error for long emoji, got %v", err)
	}
}

func TestTicketService_SetTyping_Debounced(t *testing.T) {
	db := setupTestDB(t)
	svc, rt := newTicketService(db)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	for i := 0; i < 3; i++ {
		if err := svc.SetTyping(ctx, artist, ticket.ID, true); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if n := rt.count(constants.TableTickets, "UPDATE"); n != 1 {
		t.Errorf("Expected repeated typing writes to be debounced to 1 update, got %d", n)
	}

	if err := svc.SetTyping(ctx, artist, ticket.ID, false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n := rt.count(constants.TableTickets, "UPDATE"); n != 2 {
		t.Errorf("Expected typing=false to always write, got %d updates", n)
	}
}

func TestTicketService_SetTyping_LastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTicketService(db)
	ctx := context.Background()
	ticket := openTicket(t, svc)

	for _, typing := range []bool{true, false, true} {
		if err := svc.SetTyping(ctx, artist, ticket.ID, typing); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	got, _ := svc.GetTicket(ctx, artist, ticket.ID)
	if !got.UserTyping {
		t.Error("Expected typing flag set by the last write")
	}
}

func TestTicketService_ClearStaleTyping(t *testing.T) {
	db := setupTestDB(t)
	svc, rt := newTicketService(db)
	ctx := context.Background()
	stale := openTicket(t, svc)
	fresh := openTicket(t, svc)

	old := time.Now().UTC().Add(-time.Minute)
	now := time.Now().UTC()
	db.Model(&gormModels.Ticket{}).Where("id = ?", stale.ID).
		Updates(map[string]interface{}{"user_typing": true, "user_typing_at": old, "admin_typing": true, "admin_typing_at": old})
	db.Model(&gormModels.Ticket{}).Where("id = ?", fresh.ID).
		Updates(map[string]interface{}{"user_typing": true, "user_typing_at": now})

	cleared, err := svc.ClearStaleTyping(ctx, 6*time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cleared != 2 {
		t.Errorf("Expected both stale flags cleared, got %d", cleared)
	}

	got, _ := svc.GetTicket(ctx, staff, stale.ID)
	if got.UserTyping || got.AdminTyping {
		t.Error("Expected stale ticket flags cleared")
	}
	got, _ = svc.GetTicket(ctx, staff, fresh.ID)
	if !got.UserTyping {
		t.Error("Expected fresh typing flag kept")
	}
	if rt.count(constants.TableTickets, "UPDATE") != 1 {
		t.Errorf("Expected one realtime update for the swept ticket, got %d", rt.count(constants.TableTickets, "UPDATE"))
	}
}

func TestTicketService_ListAllTickets_ByActivity(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTicketService(db)
	ctx := context.Background()
	first := openTicket(t, svc)
	second := openTicket(t, svc)

	db.Model(&gormModels.Ticket{}).Where("id = ?", first.ID).Update("last_message_at", time.Now().UTC().Add(time.Hour))

	list, err := svc.ListAllTickets(ctx, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("Expected most recent activity first, got %+v", list)
	}

	if _, err := svc.ListAllTickets(ctx, "archived"); !errors.Is(err, constants.ErrValidation) {
		t.Errorf("Expected validation error for unknown status, got %v", err)
	}
}
