package service

import (
	"context"

	"giveaway-bot-backend/internal/common/logger"
)

// ChatMemberGetter is the membership-lookup slice of the bot API.
type ChatMemberGetter interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (string, error)
}

// EligibilityChecker answers whether a participant still qualifies as a
// winner candidate: a live membership lookup at draw time, never cached.
type EligibilityChecker struct {
	tg ChatMemberGetter
}

func NewEligibilityChecker(tg ChatMemberGetter) *EligibilityChecker {
	return &EligibilityChecker{tg: tg}
}

// IsEligible reports whether the user is currently subscribed to the
// channel. Any lookup failure counts as not eligible (fail closed): one
// bad lookup must not abort the whole draw.
func (c *EligibilityChecker) IsEligible(ctx context.Context, userID, channelID int64) bool {
	status, err := c.tg.GetChatMember(ctx, channelID, userID)
	if err != nil {
		logger.Warn().
			Int64("user_id", userID).
			Int64("channel_id", channelID).
			Err(err).
			Msg("Ошибка при проверке подписки, участник исключен")
		return false
	}

	switch status {
	case "member", "administrator", "creator":
		return true
	default:
		// left, kicked, restricted
		return false
	}
}
