package bot

import (
	"fmt"

	"challenger/bot/common"
	"challenger/events"
	"challenger/models"

	"github.com/bwmarrin/discordgo"
)

// Embed colors
const (
	colorInfo    = 0x5865F2
	colorSuccess = 0x57F287
	colorWarning = 0xFEE75C
	colorDanger  = 0xED4245
)

// buildEmbed returns nil for events the channel does not need to see
func buildEmbed(event events.Event) *discordgo.MessageEmbed {
	switch e := event.(type) {
	case events.MatchStateChangedEvent:
		return matchStateEmbed(e)
	case events.SettlementCompletedEvent:
		return settlementEmbed(e)
	case events.DuplicatesRemovedEvent:
		return duplicatesEmbed(e)
	case events.EmergencyAccessEvent:
		return emergencyAccessEmbed(e)
	}
	return nil
}

func matchStateEmbed(e events.MatchStateChangedEvent) *discordgo.MessageEmbed {
	var title string
	color := colorInfo
	switch e.NewStatus {
	case models.MatchStatusAwaitingOpponent:
		title = fmt.Sprintf("🎮 Challenge #%d is open", e.MatchID)
	case models.MatchStatusInProgress:
		title = fmt.Sprintf("⚔️ Match #%d has started", e.MatchID)
	case models.MatchStatusDisputed:
		title = fmt.Sprintf("⚠️ Match #%d is disputed", e.MatchID)
		color = colorWarning
	case models.MatchStatusCancelled:
		title = fmt.Sprintf("Match #%d was cancelled", e.MatchID)
	default:
		// pending_result and completed are covered by other notices
		return nil
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Stake", Value: common.FormatBalance(e.StakeAmount), Inline: true},
	}
	if e.MatchType != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Type", Value: string(e.MatchType), Inline: true})
	}
	if e.OldStatus != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Transition",
			Value:  fmt.Sprintf("%s → %s", common.FormatStatus(string(e.OldStatus)), common.FormatStatus(string(e.NewStatus))),
			Inline: false,
		})
	}

	return &discordgo.MessageEmbed{
		Title:  title,
		Color:  color,
		Fields: fields,
	}
}

func settlementEmbed(e events.SettlementCompletedEvent) *discordgo.MessageEmbed {
	if e.Outcome == models.MatchOutcomeDraw || e.WinnerID == nil {
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("🤝 Match #%d voided", e.MatchID),
			Description: fmt.Sprintf("**%s** returned to the players.", common.FormatBalance(e.Pot)),
			Color:       colorInfo,
		}
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏆 Match #%d settled", e.MatchID),
		Color: colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Winner", Value: common.ShortID(*e.WinnerID), Inline: true},
			{Name: "Pot", Value: common.FormatBalance(e.Pot), Inline: true},
			{Name: "Fee", Value: common.FormatBalance(e.Fee), Inline: true},
			{Name: "Payout", Value: common.FormatBalance(e.Payout), Inline: true},
		},
	}
}

func duplicatesEmbed(e events.DuplicatesRemovedEvent) *discordgo.MessageEmbed {
	color := colorWarning
	if e.Errors > 0 {
		color = colorDanger
	}
	return &discordgo.MessageEmbed{
		Title: "🧾 Duplicate payouts removed",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rows", Value: fmt.Sprintf("%d", e.DuplicatesRemoved), Inline: true},
			{Name: "Recovered", Value: common.FormatBalance(e.AmountRecovered), Inline: true},
			{Name: "Users", Value: fmt.Sprintf("%d", e.AffectedUsers), Inline: true},
			{Name: "Errors", Value: fmt.Sprintf("%d", e.Errors), Inline: true},
		},
	}
}

func emergencyAccessEmbed(e events.EmergencyAccessEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🚨 Emergency staff access used",
		Description: fmt.Sprintf("`%s` ran **%s** with a break-glass credential.", e.Email, e.Operation),
		Color:       colorDanger,
	}
}
