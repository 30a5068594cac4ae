package chat

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultPollInterval is the delay between message-list polls.
	DefaultPollInterval = time.Second
	// DefaultPollAttempts bounds the polling loop (~60s ceiling).
	DefaultPollAttempts = 60
	// DefaultMinResponseLength skips trivially short placeholder text.
	DefaultMinResponseLength = 2
)

// Correlator is a generic "send text, wait for a qualifying text reply"
// primitive. It has no knowledge of command semantics; every command reuses
// it. Instances are caller-owned; there is no process-wide client.
type Correlator struct {
	api      ChannelAPI
	interval time.Duration
	attempts int
}

// CorrelatorOption configures a Correlator.
type CorrelatorOption func(*Correlator)

// WithPollInterval overrides the poll interval.
func WithPollInterval(d time.Duration) CorrelatorOption {
	return func(c *Correlator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithPollAttempts overrides the attempt budget.
func WithPollAttempts(n int) CorrelatorOption {
	return func(c *Correlator) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// NewCorrelator creates a correlator over the given channel API.
func NewCorrelator(api ChannelAPI, opts ...CorrelatorOption) *Correlator {
	c := &Correlator{
		api:      api,
		interval: DefaultPollInterval,
		attempts: DefaultPollAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pending identifies an in-flight request awaiting its response.
type Pending struct {
	ChannelUID string
	MessageID  string
}

// Send appends a command message to the channel and returns a handle the
// caller awaits the response on.
func (c *Correlator) Send(ctx context.Context, channelUID string, command string) (*Pending, error) {
	msg, err := c.api.SendMessage(ctx, channelUID, command)
	if err != nil {
		return nil, errors.Wrap(err, "send command message")
	}
	return &Pending{ChannelUID: channelUID, MessageID: msg.ID}, nil
}

// AwaitOptions tune the response filter for one await.
type AwaitOptions struct {
	// Exclude lists known interim placeholder texts to skip.
	Exclude []string
	// MinLength skips messages shorter than this many bytes.
	// Zero means DefaultMinResponseLength.
	MinLength int
}

// Await polls the channel's message list until a qualifying message appears
// or the attempt budget is exhausted, in which case it fails with ErrTimeout.
//
// A message qualifies when it is not the just-sent command (nor anything that
// preceded it on the channel), its text is not in the exclusion set, it does
// not start with a reserved command prefix, and it meets the length floor.
func (c *Correlator) Await(ctx context.Context, pending *Pending, opts AwaitOptions) (string, error) {
	minLength := opts.MinLength
	if minLength <= 0 {
		minLength = DefaultMinResponseLength
	}
	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, text := range opts.Exclude {
		excluded[text] = struct{}{}
	}

	for attempt := 0; attempt < c.attempts; attempt++ {
		messages, err := c.api.ListMessages(ctx, pending.ChannelUID)
		if err != nil {
			return "", errors.Wrap(err, "list channel messages")
		}

		// Only messages appended after the sent command are candidates, so a
		// reused session channel never re-matches an earlier turn's response.
		candidates := messagesAfter(messages, pending.MessageID)
		for _, msg := range candidates {
			if msg.ID == pending.MessageID {
				continue
			}
			if _, ok := excluded[msg.Text]; ok {
				continue
			}
			if HasCommandPrefix(msg.Text) {
				continue
			}
			if len(msg.Text) < minLength {
				continue
			}
			return msg.Text, nil
		}

		select {
		case <-time.After(c.interval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", ErrTimeout
}

// messagesAfter returns the messages following the one with the given id.
// When the id is absent from the list the full list is returned.
func messagesAfter(messages []*Message, id string) []*Message {
	for i, msg := range messages {
		if msg.ID == id {
			return messages[i+1:]
		}
	}
	return messages
}
