package proxy

import "time"

// Message is a relayed message resolved back to the account that actually wrote it.
type Message struct {
	ID         string // Message posted by the relay
	OriginalID string // Message the relay deleted and reposted
	SenderID   string
	ChannelID  string
	GuildID    string
	Timestamp  time.Time
}
