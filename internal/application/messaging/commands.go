package messaging

// SendMessageCommand - sending a direct message
type SendMessageCommand struct {
	SenderUsername    string // from the authenticated identity, never ambient state
	RecipientUsername string
	Content           string
}

// CommandName returns command name
func (c SendMessageCommand) CommandName() string { return "SendMessage" }

// DeleteMessageCommand - deleting the caller's side of a message
type DeleteMessageCommand struct {
	Username  string // from the authenticated identity
	MessageID int64
}

// CommandName returns command name
func (c DeleteMessageCommand) CommandName() string { return "DeleteMessage" }
