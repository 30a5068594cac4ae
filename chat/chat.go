// Package chat implements the Afterlink conversation-channel protocol: the
// reserved command set, the tolerant response codec, and the send-then-poll
// correlator the browser-equivalent client drives the backend with.
//
// Every request and response is a single text message on a channel. Commands
// are recognized by a literal string prefix, checked in a fixed priority
// order; responses are located by polling the channel's message list and
// filtering out echoes, status placeholders and other command traffic.
package chat

import "context"

// Message is a single entry in a conversation channel.
type Message struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Text string `json:"text"`
}

// Message roles.
const (
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"
)

// ChannelAPI is the conversation-channel surface used by the correlator.
// Channels are append-only message streams created fresh per logical
// operation; the server and the in-process tests provide implementations.
type ChannelAPI interface {
	// CreateChannel opens a new channel and returns its UID.
	CreateChannel(ctx context.Context) (string, error)

	// SendMessage appends a user message to the channel.
	SendMessage(ctx context.Context, channelUID string, text string) (*Message, error)

	// ListMessages returns the channel's full message list in append order.
	ListMessages(ctx context.Context, channelUID string) ([]*Message, error)

	// DeleteChannel discards the channel and its messages.
	DeleteChannel(ctx context.Context, channelUID string) error
}
