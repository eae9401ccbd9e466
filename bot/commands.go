package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// slotChoices limits the winner option to the two bet slots
var slotChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Option 1", Value: 1},
	{Name: "Option 2", Value: 2},
}

// Commands returns the slash commands the bot serves
func Commands() []*discordgo.ApplicationCommand {
	minID := float64(1)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "bet",
			Description: "Create and manage bets",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a new bet with two options",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "What the bet is about",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "option1",
							Description: "First option (defaults to Over)",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "option2",
							Description: "Second option (defaults to Under)",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "winner",
					Description: "Declare the winning option of a bet",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Bet ID",
							Required:    true,
							MinValue:    &minID,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "option",
							Description: "Winning option",
							Required:    true,
							Choices:     slotChoices,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete a bet without settling it",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Bet ID",
							Required:    true,
							MinValue:    &minID,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List all active bets",
				},
			},
		},
		{
			Name:        "stats",
			Description: "Show win/loss stats",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to look up (defaults to you)",
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the users with the most wins",
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range Commands() {
		if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd); err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
		log.WithField("command", cmd.Name).Debug("Registered command")
	}
	return nil
}
