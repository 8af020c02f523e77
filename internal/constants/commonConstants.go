package constants

type (
	RequestSource string
	APIStatus     string
	CachePrefix   string
)

const (
	RequestSourceJWT    RequestSource = "JWT"
	RequestSourceAPIKey RequestSource = "API_KEY"

	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixProfileRole  CachePrefix = "ROLE_"
	CachePrefixNewsList     CachePrefix = "NEWS_LIST_"
	CachePrefixNewsHTML     CachePrefix = "NEWS_HTML_"
	CachePrefixTyping       CachePrefix = "TYPING_"
	CachePrefixRealtimeUsed CachePrefix = "RT_TICKET_USED_"
)

// Storage buckets
const (
	BucketAvatars           = "avatars"
	BucketReleases          = "releases"
	BucketTicketAttachments = "ticket-attachments"
)

// Realtime table names
const (
	TableTickets        = "tickets"
	TableTicketMessages = "ticket_messages"
	TableNews           = "news"
	TableWithdrawals    = "withdrawal_requests"
	TableReleases       = "releases"
	TableReactions      = "ticket_reactions"
	TablePayouts        = "payouts"
	TableProfiles       = "profiles"
)
