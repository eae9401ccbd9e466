package common

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// InteractionUser returns the user behind an interaction in a guild or a DM
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i == nil || i.Interaction == nil {
		return nil
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// ParseDiscordID converts a Discord snowflake to an int64
func ParseDiscordID(id string) (int64, bool) {
	parsed, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// ResolvedUser looks up a user passed as a command option without an API call
func ResolvedUser(i *discordgo.InteractionCreate, option *discordgo.ApplicationCommandInteractionDataOption) *discordgo.User {
	userID, ok := option.Value.(string)
	if !ok {
		return nil
	}
	data := i.ApplicationCommandData()
	if data.Resolved != nil {
		if user, ok := data.Resolved.Users[userID]; ok {
			return user
		}
	}
	return &discordgo.User{ID: userID}
}
