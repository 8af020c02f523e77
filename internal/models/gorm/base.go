package gorm

import (
	"github.com/google/uuid"
)

// assignID gives a row a UUID primary key before insert when none is set.
// Keys are generated here instead of with gen_random_uuid() so SQLite works too.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// AllModels lists every table managed by AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Profile{},
		&Release{},
		&Payout{},
		&WithdrawalRequest{},
		&BalanceTransaction{},
		&Ticket{},
		&TicketMessage{},
		&TicketAttachment{},
		&TicketReaction{},
		&News{},
		&EmailToken{},
	}
}
