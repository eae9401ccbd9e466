package stats

import (
	"fmt"
	"strings"

	"wagerbot/bot/common"
	"wagerbot/models"

	"github.com/bwmarrin/discordgo"
)

// buildStatsEmbed shows one user's record, or that none exists yet
func buildStatsEmbed(name string, stats models.UserStats, found bool) *discordgo.MessageEmbed {
	if !found {
		return &discordgo.MessageEmbed{
			Description: fmt.Sprintf("%s has no recorded stats yet.", name),
			Color:       common.ColorNeutral,
		}
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s's Stats", name),
		Description: fmt.Sprintf("Wins: %d\nLosses: %d", stats.Wins, stats.Losses),
		Color:       common.ColorInfo,
		Footer: &discordgo.MessageEmbedFooter{
			Text: common.FormatRecord(stats.Wins, stats.Losses),
		},
	}
}

// buildLeaderboardEmbed frames the leaderboard image. Without an image the
// standings are listed in the description instead.
func buildLeaderboardEmbed(entries []models.UserStats, withImage bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏆 Leaderboard",
		Color: common.ColorPrimary,
	}

	if len(entries) == 0 {
		embed.Description = "No recorded stats yet."
		return embed
	}
	if withImage {
		return embed
	}

	var sb strings.Builder
	for idx, entry := range entries {
		fmt.Fprintf(&sb, "%d. **%s**: %s\n", idx+1, entry.User, common.FormatRecord(entry.Wins, entry.Losses))
	}
	embed.Description = sb.String()
	return embed
}
