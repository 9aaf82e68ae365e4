package messaging

// ListMessagesQuery - page through the requester's own mailbox.
// The query is always scoped to Username; there is no way to page
// through another user's messages.
type ListMessagesQuery struct {
	Username string
	Scope    Scope // default: all
	Page     int   // 1-based, default: 1
	PageSize int   // default: 10, max: 50
}

// ThreadQuery - the conversation between the requester and another user.
type ThreadQuery struct {
	Username      string
	OtherUsername string
}
