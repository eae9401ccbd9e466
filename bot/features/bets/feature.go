package bets

import (
	"strings"

	"wagerbot/bot/common"
	"wagerbot/config"
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
)

// Feature represents the betting feature
type Feature struct {
	engine   service.BetEngine
	config   *config.Config
	recorder common.ErrorRecorder
}

// NewFeature creates a new betting feature instance
func NewFeature(engine service.BetEngine, cfg *config.Config, recorder common.ErrorRecorder) *Feature {
	return &Feature{
		engine:   engine,
		config:   cfg,
		recorder: recorder,
	}
}

// HandleCommand handles the /bet command and its subcommands
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Please specify a subcommand: create, winner, delete or list")
		return
	}

	// Route to appropriate subcommand handler
	switch options[0].Name {
	case "create":
		f.handleCreate(s, i, options[0].Options)
	case "winner":
		f.handleWinner(s, i, options[0].Options)
	case "delete":
		f.handleDelete(s, i, options[0].Options)
	case "list":
		f.handleList(s, i)
	default:
		common.RespondWithError(s, i, "Sorry, that command doesn't exist.")
	}
}

// HandleInteraction handles option button clicks
func (f *Feature) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleChoice(s, i, i.MessageComponentData().CustomID)
}

// Owns reports whether a component custom ID belongs to this feature
func (f *Feature) Owns(customID string) bool {
	return strings.HasPrefix(customID, ChoiceCustomIDPrefix)
}
