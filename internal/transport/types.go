package transport

import "context"

// Update is an inbound event from the chat platform. Only plain text messages
// are routed; everything else is ignored at the adapter.
type Update struct {
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Notification is an outbound message handed to the delivery pipeline.
type Notification struct {
	Target  ChatTarget
	Text    string
	Options *SendOptions
}

// Adapter is the chat-platform boundary. The rest of the system treats
// delivery as an opaque notify(recipient, text) sink behind this interface.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
