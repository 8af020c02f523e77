package common

import (
	"errors"
	"testing"
	"time"

	"label-cabinet/backstage/internal/constants"
)

func TestConnectTicket_SingleUse(t *testing.T) {
	signer := NewConnectTicketSigner([]byte("secret"), NewCacheService(60, 60))

	token, _, err := signer.Issue("user-1", constants.RoleBasic, time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ticket, err := signer.Redeem(token)
	if err != nil {
		t.Fatalf("Expected first redeem to succeed, got %v", err)
	}
	if ticket.UserID != "user-1" || ticket.Role != constants.RoleBasic {
		t.Errorf("Expected user-1/basic, got %s/%s", ticket.UserID, ticket.Role)
	}

	if _, err := signer.Redeem(token); !errors.Is(err, constants.ErrTokenUsed) {
		t.Errorf("Expected ErrTokenUsed on second redeem, got %v", err)
	}
}

func TestConnectTicket_WrongSecret(t *testing.T) {
	cache := NewCacheService(60, 60)
	token, _, _ := NewConnectTicketSigner([]byte("a"), cache).Issue("user-1", constants.RoleAdmin, time.Minute)

	if _, err := NewConnectTicketSigner([]byte("b"), cache).Redeem(token); err == nil {
		t.Error("Expected error for ticket signed with another secret")
	}
}

func TestConnectTicket_Expired(t *testing.T) {
	signer := NewConnectTicketSigner([]byte("secret"), NewCacheService(60, 60))
	token, _, _ := signer.Issue("user-1", constants.RoleBasic, -time.Minute)

	if _, err := signer.Redeem(token); err == nil {
		t.Error("Expected error for expired ticket")
	}
}
