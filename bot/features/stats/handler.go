package stats

import (
	"context"

	"wagerbot/bot/common"
	"wagerbot/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const leaderboardFilename = "leaderboard.png"

// handleStats displays a user's record, defaulting to the caller
func (f *Feature) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	target := common.InteractionUser(i)
	for _, opt := range options {
		if opt.Name == "user" {
			target = common.ResolvedUser(i, opt)
		}
	}
	if target == nil || target.Username == "" {
		common.HandleError(s, i, f.recorder, "stats",
			common.NewUserError(common.ErrorKindInvalidArguments, "Could not find that user.", "stats target without username"), false)
		return
	}

	embed := f.statsEmbed(ctx, target.Username)
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithFields(log.Fields{
			"user":  target.Username,
			"error": err,
		}).Error("Error responding to stats command")
	}
}

// handleLeaderboard renders the top users as an image
func (f *Feature) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	// Rendering can take longer than the interaction deadline
	if err := common.DeferResponse(s, i, false); err != nil {
		log.WithError(err).Error("Error deferring leaderboard response")
		return
	}

	entries, png := f.leaderboard(ctx)
	if png == nil {
		if err := common.FollowUpWithEmbed(s, i, buildLeaderboardEmbed(entries, false)); err != nil {
			log.WithError(err).Error("Error sending leaderboard")
		}
		return
	}

	if err := common.FollowUpWithImage(s, i, buildLeaderboardEmbed(entries, true), leaderboardFilename, png); err != nil {
		log.WithError(err).Error("Error sending leaderboard image")
	}
}

func (f *Feature) statsEmbed(ctx context.Context, username string) *discordgo.MessageEmbed {
	stats, found := f.statsService.Lookup(ctx, username)
	return buildStatsEmbed(username, stats, found)
}

// leaderboard returns the standings and their rendered image. The image is nil
// when there is nothing to draw or rendering failed.
func (f *Feature) leaderboard(ctx context.Context) ([]models.UserStats, []byte) {
	entries := f.statsService.Leaderboard(ctx, common.LeaderboardSize)
	if len(entries) == 0 {
		return entries, nil
	}

	png, err := f.imageGenerator.GenerateLeaderboard(entries)
	if err != nil {
		log.WithFields(log.Fields{
			"entries": len(entries),
			"error":   err,
		}).Warn("Falling back to text leaderboard")
		if f.recorder != nil {
			f.recorder.RecordCommandError("leaderboard", string(common.ErrorKindInternal))
		}
		return entries, nil
	}
	return entries, png
}
