package constants

type ReleaseStatus string

const (
	ReleaseDraft       ReleaseStatus = "draft"
	ReleasePending     ReleaseStatus = "pending"
	ReleaseDistributed ReleaseStatus = "distributed"
	ReleasePublished   ReleaseStatus = "published"
	ReleaseRejected    ReleaseStatus = "rejected"
)

// releaseTransitions lists the allowed next states for each release status.
var releaseTransitions = map[ReleaseStatus][]ReleaseStatus{
	ReleaseDraft:       {ReleasePending},
	ReleaseRejected:    {ReleasePending},
	ReleasePending:     {ReleaseDistributed, ReleaseRejected},
	ReleaseDistributed: {ReleasePublished, ReleaseRejected},
}

// CanTransition reports whether a release may move from s to next.
func (s ReleaseStatus) CanTransition(next ReleaseStatus) bool {
	for _, allowed := range releaseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable is true while the artist may still change release metadata.
func (s ReleaseStatus) Editable() bool {
	return s == ReleaseDraft || s == ReleaseRejected
}

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:  {WithdrawalApproved, WithdrawalRejected},
	WithdrawalApproved: {WithdrawalCompleted, WithdrawalRejected},
}

func (s WithdrawalStatus) CanTransition(next WithdrawalStatus) bool {
	for _, allowed := range withdrawalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type WithdrawalMethod string

const (
	MethodCard WithdrawalMethod = "card"
	MethodBank WithdrawalMethod = "bank"
)

type LedgerKind string

const (
	LedgerPayout     LedgerKind = "payout"
	LedgerWithdrawal LedgerKind = "withdrawal"
	LedgerRefund     LedgerKind = "refund"
)

type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketAnswered TicketStatus = "answered"
	TicketClosed   TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	return s == TicketOpen || s == TicketAnswered || s == TicketClosed
}

var TicketCategories = map[string]bool{
	"general":   true,
	"finance":   true,
	"releases":  true,
	"technical": true,
}

var TicketPriorities = map[string]bool{
	"low":    true,
	"normal": true,
	"high":   true,
}

var NewsCategories = map[string]bool{
	"update":    true,
	"release":   true,
	"event":     true,
	"important": true,
}
