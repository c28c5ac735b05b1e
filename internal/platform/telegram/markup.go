package telegram

import "fmt"

// InlineKeyboardButton is a single button of an inline keyboard.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// InlineKeyboardMarkup is an opaque renderable keyboard object. Callers
// build it through the helpers below and pass it around without looking
// inside.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// ParticipateKeyboard builds the participation button under a giveaway
// post. The live participant count is rendered into the label, so the
// keyboard is rebuilt whenever the count is re-announced.
func ParticipateKeyboard(giveawayID string, participants int64) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{
				{
					Text:         fmt.Sprintf("🎉 Участвовать (%d)", participants),
					CallbackData: "participate:" + giveawayID,
				},
			},
		},
	}
}
