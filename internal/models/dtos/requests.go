package dtos

import "time"

type UpdateProfileReq struct {
	Nickname string `json:"nickname"`
}

type EmailChangeReq struct {
	NewEmail string `json:"new_email"`
}

type ConfirmEmailChangeReq struct {
	Token string `json:"token"`
}

type SetRoleReq struct {
	Role string `json:"role"`
}

type ReleaseReq struct {
	Title       string     `json:"title"`
	ArtistName  string     `json:"artist_name"`
	Genre       string     `json:"genre"`
	ReleaseDate *time.Time `json:"release_date"`
	Tracks      []TrackReq `json:"tracks"`
	Countries   []string   `json:"countries"`
	Platforms   []string   `json:"platforms"`
}

type TrackReq struct {
	Title       string `json:"title"`
	ISRC        string `json:"isrc"`
	Explicit    bool   `json:"explicit"`
	DurationSec int    `json:"duration_sec"`
	AudioURL    string `json:"audio_url"`
}

type ReleaseStatusReq struct {
	Status string  `json:"status"`
	Reason *string `json:"reason"`
	UPC    *string `json:"upc"`
}

type WithdrawalReq struct {
	Amount        string  `json:"amount"`
	Method        string  `json:"method"`
	CardNumber    *string `json:"card_number"`
	CardHolder    *string `json:"card_holder"`
	BankName      *string `json:"bank_name"`
	AccountNumber *string `json:"account_number"`
	RecipientName *string `json:"recipient_name"`
}

type WithdrawalDecisionReq struct {
	Comment *string `json:"comment"`
}

type PayoutReq struct {
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Period      string `json:"period"`
	Description string `json:"description"`
}

type CreateTicketReq struct {
	Subject     string          `json:"subject"`
	Category    string          `json:"category"`
	Priority    string          `json:"priority"`
	Message     string          `json:"message"`
	Attachments []AttachmentReq `json:"attachments"`
}

type PostMessageReq struct {
	Message     string          `json:"message"`
	Attachments []AttachmentReq `json:"attachments"`
}

// AttachmentReq references a file previously stored through the upload endpoint.
type AttachmentReq struct {
	FileName    string `json:"file_name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type TypingReq struct {
	Typing bool `json:"typing"`
}

type ReactionReq struct {
	Emoji string `json:"emoji"`
}

type TicketStatusReq struct {
	Status string `json:"status"`
}

type NewsReq struct {
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     string     `json:"category"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}
