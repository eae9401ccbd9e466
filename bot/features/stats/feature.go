package stats

import (
	"wagerbot/bot/common"
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
)

// Feature represents the stats feature
type Feature struct {
	statsService   service.StatsService
	imageGenerator *LeaderboardImageGenerator
	recorder       common.ErrorRecorder
}

// NewFeature creates a new stats feature instance
func NewFeature(statsService service.StatsService, recorder common.ErrorRecorder) *Feature {
	return &Feature{
		statsService:   statsService,
		imageGenerator: NewLeaderboardImageGenerator(),
		recorder:       recorder,
	}
}

// HandleStatsCommand handles the /stats command
func (f *Feature) HandleStatsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleStats(s, i, i.ApplicationCommandData().Options)
}

// HandleLeaderboardCommand handles the /leaderboard command
func (f *Feature) HandleLeaderboardCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.handleLeaderboard(s, i)
}
