package models

import "time"

// GiveawayStatus represents the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayStatusActive    GiveawayStatus = "active"
	GiveawayStatusFinished  GiveawayStatus = "finished"
	GiveawayStatusCancelled GiveawayStatus = "cancelled"
)

// Giveaway represents a time-boxed contest tied to a channel.
type Giveaway struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	WinnerMessage string         `json:"winner_message"` // шаблон личного сообщения победителю
	ChannelID     int64          `json:"channel_id"`
	MessageID     int            `json:"message_id,omitempty"` // пост с кнопкой участия в канале
	EndsAt        time.Time      `json:"ends_at"`
	WinnerPlaces  int            `json:"winner_places"`
	Status        GiveawayStatus `json:"status"`
	CreatedBy     int64          `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	FinishedAt    time.Time      `json:"finished_at,omitempty"`
}

// IsActive reports whether the giveaway is still running.
func (g *Giveaway) IsActive() bool {
	return g.Status == GiveawayStatusActive
}

// Participant is a user who opted into a specific giveaway.
// The (GiveawayID, UserID) pair is unique.
type Participant struct {
	GiveawayID string    `json:"giveaway_id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	JoinedAt   time.Time `json:"joined_at"`
}

// DisplayName returns the name used in announcements: @username when
// available, otherwise the first name, otherwise a generic placeholder.
func (p *Participant) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	if p.FirstName != "" {
		return p.FirstName
	}
	return "Пользователь"
}

// Winner is a participant selected into a numbered prize place.
// Written exactly once at finish time and immutable thereafter.
type Winner struct {
	GiveawayID string    `json:"giveaway_id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	Place      int       `json:"place"`
	WonAt      time.Time `json:"won_at"`
}

// DisplayName mirrors Participant.DisplayName for announcement rendering.
func (w *Winner) DisplayName() string {
	if w.Username != "" {
		return "@" + w.Username
	}
	if w.FirstName != "" {
		return w.FirstName
	}
	return "Пользователь"
}

// Channel is a Telegram channel the bot manages giveaways in.
type Channel struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username,omitempty"`
	AdminID  int64  `json:"admin_id"` // получатель отчётов о завершении
}
