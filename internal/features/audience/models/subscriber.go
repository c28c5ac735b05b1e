package models

import "time"

// Subscriber is one channel member tracked by the audience registry.
// LeftAt is zero while the user is subscribed.
type Subscriber struct {
	ChannelID      int64     `json:"channel_id"`
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username,omitempty"`
	FirstName      string    `json:"first_name,omitempty"`
	JoinedAt       time.Time `json:"joined_at"`
	LeftAt         time.Time `json:"left_at,omitempty"`
	LastActivityAt time.Time `json:"last_activity_at,omitempty"`
}

// IsSubscribed reports whether the user is currently in the channel.
func (s *Subscriber) IsSubscribed() bool {
	return s.LeftAt.IsZero()
}
