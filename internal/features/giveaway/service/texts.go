package service

import (
	"fmt"
	"strings"
	"time"

	"giveaway-bot-backend/internal/features/giveaway/models"
)

const (
	finishedHeader     = "🎊 <b>РОЗЫГРЫШ ЗАВЕРШЕН!</b>"
	noParticipantsText = finishedHeader + "\n\n😔 К сожалению, в розыгрыше не было участников."
)

func formatTime(t time.Time) string {
	return t.UTC().Format("02.01.2006 15:04 UTC")
}

// giveawayPostText renders the announcement posted to the channel when a
// giveaway is created. The participate button is attached separately.
func giveawayPostText(g *models.Giveaway) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎁 <b>РОЗЫГРЫШ: %s</b>\n\n%s\n\n", g.Title, g.Description)
	fmt.Fprintf(&b, "🏆 Призовых мест: %d\n", g.WinnerPlaces)
	fmt.Fprintf(&b, "🕐 Итоги: %s", formatTime(g.EndsAt))
	return b.String()
}

// reminderText renders the scheduled channel reminder for one tier.
func reminderText(g *models.Giveaway, tierLabel string, participants int64) string {
	var b strings.Builder
	b.WriteString("⏰ <b>Напоминание о розыгрыше!</b>\n\n")
	fmt.Fprintf(&b, "🎁 <b>%s</b>\n%s\n\n", g.Title, g.Description)
	fmt.Fprintf(&b, "🏆 Призовых мест: %d\n", g.WinnerPlaces)
	fmt.Fprintf(&b, "👥 Участников: %d\n\n", participants)
	fmt.Fprintf(&b, "🕐 Итоги %s — %s", tierLabel, formatTime(g.EndsAt))
	return b.String()
}

// winnerAnnouncementText renders the ranked winner list posted to the
// channel. A single winner gets the trophy line, multiple winners get
// medals for places 1-3 and plain numbers beyond.
func winnerAnnouncementText(winners []models.Winner) string {
	lines := make([]string, 0, len(winners))
	for _, w := range winners {
		if len(winners) == 1 {
			lines = append(lines, fmt.Sprintf("🏆 <b>Победитель:</b> %s", w.DisplayName()))
			continue
		}
		emoji := fmt.Sprintf("%d", w.Place)
		switch w.Place {
		case 1:
			emoji = "🥇"
		case 2:
			emoji = "🥈"
		case 3:
			emoji = "🥉"
		}
		lines = append(lines, fmt.Sprintf("%s <b>%d место:</b> %s", emoji, w.Place, w.DisplayName()))
	}

	return finishedHeader + "\n\n" + strings.Join(lines, "\n") + "\n\n🎉 Поздравляем!"
}

// winnerDirectText renders the personal message sent to one winner.
// The giveaway's winner-message template, when set, is appended.
func winnerDirectText(g *models.Giveaway, place int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Поздравляем! Вы заняли %d место в розыгрыше \"%s\"!\n", place, g.Title)
	if g.WinnerMessage != "" {
		b.WriteString("\n")
		b.WriteString(g.WinnerMessage)
	}
	return b.String()
}

// adminSummaryText renders the per-winner delivery report sent to the
// channel administrator after a finish.
func adminSummaryText(g *models.Giveaway, winners []models.Winner, delivered map[int64]bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>Итоги розыгрыша «%s»</b>\n\n", g.Title)

	if len(winners) == 0 {
		b.WriteString("😔 Участников не было, победители не выбраны.")
		return b.String()
	}

	b.WriteString("Победители и статус уведомлений:\n")
	for _, w := range winners {
		mark := "❌"
		if delivered[w.UserID] {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %d место: %s\n", mark, w.Place, w.DisplayName())
	}
	b.WriteString("\n❌ — уведомление не доставлено, свяжитесь с победителем вручную.")
	return b.String()
}
