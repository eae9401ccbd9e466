package bets

import (
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/models"

	"github.com/bwmarrin/discordgo"
)

// buildBetCreatedEmbed creates the embed announcing a new bet
func buildBetCreatedEmbed(bet *models.Bet) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("**Bet**: %s", bet.Name),
		Description: fmt.Sprintf("**Creator**: %s | **ID**: %d", bet.Creator, bet.ID),
		Color:       common.ColorInfo,
	}
}

// buildSettlementEmbed creates the results embed for a settled bet
func buildSettlementEmbed(result *models.SettlementResult) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("**Bet:** %s\nResults: %s", result.Bet.Name, result.WinningLabel),
		Description: fmt.Sprintf("Winners: %s", common.FormatUserList(result.Winners)),
		Color:       common.ColorSuccess,
	}
}

// buildBetDeletedEmbed confirms that a bet was removed
func buildBetDeletedEmbed(betID int64) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Bet with ID %d has been successfully deleted.", betID),
		Color:       common.ColorSuccess,
	}
}

// buildActiveBetsEmbed lists the active bets, one field per bet.
// Bets beyond the embed field limit are summarised in the footer.
func buildActiveBetsEmbed(bets []*models.Bet) *discordgo.MessageEmbed {
	if len(bets) == 0 {
		return &discordgo.MessageEmbed{
			Description: "No active bets.",
			Color:       common.ColorNeutral,
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: "Active Bets",
		Color: common.ColorInfo,
	}

	for idx, bet := range bets {
		if idx == common.MaxEmbedFields {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("%d more not shown", len(bets)-common.MaxEmbedFields),
			}
			break
		}

		one, two := bet.ChoiceCounts()
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("**Bet**: %s", bet.Name),
			Value: fmt.Sprintf("**Creator**: %s | **Bet ID**: %d\n%s: %d | %s: %d",
				bet.Creator, bet.ID, bet.Options.One, one, bet.Options.Two, two),
		})
	}

	return embed
}
