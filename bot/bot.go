package bot

import (
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/bot/features/bets"
	"wagerbot/bot/features/stats"
	"wagerbot/config"
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string // Registers commands to one guild when set, globally otherwise
}

type Bot struct {
	config       Config
	session      *discordgo.Session
	betsFeature  *bets.Feature
	statsFeature *stats.Feature
}

// New connects to Discord and registers the slash commands
func New(botConfig Config, appConfig *config.Config, betEngine service.BetEngine, statsService service.StatsService, recorder common.ErrorRecorder) (*Bot, error) {
	dg, err := discordgo.New("Bot " + botConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		config:       botConfig,
		session:      dg,
		betsFeature:  bets.NewFeature(betEngine, appConfig, recorder),
		statsFeature: stats.NewFeature(statsService, recorder),
	}

	dg.AddHandler(bot.handleReady)
	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleComponents)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	log.WithFields(log.Fields{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	}).Info("Logged in to Discord")
}

// handleCommands routes slash commands to their feature
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	defer common.RecoverInteraction(s, i, name)

	switch name {
	case "bet":
		b.betsFeature.HandleCommand(s, i)
	case "stats":
		b.statsFeature.HandleStatsCommand(s, i)
	case "leaderboard":
		b.statsFeature.HandleLeaderboardCommand(s, i)
	default:
		log.WithField("command", name).Warn("Unknown command")
		common.RespondWithError(s, i, "Sorry, that command doesn't exist.")
	}
}

// handleComponents routes button clicks to the feature that owns them
func (b *Bot) handleComponents(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	defer common.RecoverInteraction(s, i, "component")

	if b.betsFeature.Owns(customID) {
		b.betsFeature.HandleInteraction(s, i)
		return
	}
	log.WithField("custom_id", customID).Debug("Ignoring unknown component interaction")
}
