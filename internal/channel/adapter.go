// Package channel defines the contract chat channel adapters implement
// to feed questions into the gateway and carry answers back out.
package channel

import "context"

// Message is one inbound message from a channel
type Message struct {
	ID        string
	Channel   string
	UserID    string
	Content   string
	Metadata  map[string]string
	Timestamp int64
}

// Response is an answer to send back to a channel
type Response struct {
	Content  string
	Metadata map[string]string
}

// Adapter is the interface channel integrations implement
type Adapter interface {
	// Start begins receiving messages; it returns once receiving is underway
	Start(ctx context.Context) error

	// Stop shuts the adapter down and closes its incoming channel
	Stop() error

	// Send delivers a response to a user on this channel
	Send(userID string, resp *Response) error

	// Incoming returns the stream of inbound messages
	Incoming() <-chan *Message

	// Name returns the channel name used in session keys
	Name() string

	// Enabled reports whether the adapter has what it needs to run
	Enabled() bool
}
