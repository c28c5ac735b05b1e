package models

import "time"

// Audience selects the campaign recipients.
type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceActive30 Audience = "active_30d"
)

// CampaignStatus represents the lifecycle state of a bulk campaign.
type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "pending"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusDone      CampaignStatus = "done"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// StatsSnapshot is the persisted view of delivery statistics, updated
// while a campaign runs and frozen when it ends.
type StatsSnapshot struct {
	TotalSent   int     `json:"total_sent"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	Blocked     int     `json:"blocked"`
	Throttled   int     `json:"throttled"`
	OtherErrors int     `json:"other_errors"`
	SuccessRate float64 `json:"success_rate"`
}

// Campaign is a persisted bulk-send record.
type Campaign struct {
	ID         string         `json:"id"`
	ChannelID  int64          `json:"channel_id"`
	CreatedBy  int64          `json:"created_by"`
	Text       string         `json:"text"`
	Audience   Audience       `json:"audience"`
	Status     CampaignStatus `json:"status"`
	Recipients int            `json:"recipients"`
	Stats      *StatsSnapshot `json:"stats,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  time.Time      `json:"started_at,omitempty"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
}
