package store

// Channel is one conversation channel. Created fresh per logical operation;
// the sweeper drops channels idle past the configured TTL.
type Channel struct {
	ID        int32
	UID       string
	CreatedTs int64
	UpdatedTs int64
}

type FindChannel struct {
	ID  *int32
	UID *string
	// UpdatedBefore matches channels idle since before this timestamp.
	UpdatedBefore *int64
}

type UpdateChannel struct {
	ID        int32
	UpdatedTs *int64
}

type DeleteChannel struct {
	ID int32
}

type ChannelMessageRole string

const (
	ChannelMessageRoleUser      ChannelMessageRole = "USER"
	ChannelMessageRoleAssistant ChannelMessageRole = "ASSISTANT"
)

// ChannelMessage is a single entry of a channel's append-only message list.
type ChannelMessage struct {
	ID        int32
	UID       string
	ChannelID int32
	Role      ChannelMessageRole
	Content   string
	CreatedTs int64
}

type FindChannelMessage struct {
	ID        *int32
	UID       *string
	ChannelID *int32
}
