package bets

import (
	"context"
	"errors"
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/events"
	"wagerbot/models"
	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	optionCountMessage = "Please provide exactly two custom options or none to use the default Over/Under options."
	notResolverMessage = "Only designated resolvers can settle or delete bets."
	staleButtonMessage = "This bet button is no longer valid."
)

// handleCreate opens a new bet and posts it with its option buttons
func (f *Feature) handleCreate(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	bet, err := f.createBet(ctx, common.InteractionUser(i), options)
	if err != nil {
		common.HandleError(s, i, f.recorder, "bet create", err, false)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildBetCreatedEmbed(bet), CreateChoiceButtons(bet), false); err != nil {
		log.WithFields(log.Fields{
			"bet_id": bet.ID,
			"error":  err,
		}).Error("Error responding to bet create command")
	}
}

// handleChoice records the slot picked with an option button
func (f *Feature) handleChoice(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	ctx := context.Background()

	event, err := f.submitChoice(ctx, common.InteractionUser(i), customID)
	if err != nil {
		common.HandleError(s, i, f.recorder, "bet choice", err, false)
		return
	}

	content := fmt.Sprintf("%s chose option %d!", event.User, int(event.Slot))
	if err := common.RespondWithMessage(s, i, content, true); err != nil {
		log.WithFields(log.Fields{
			"bet_id": event.BetID,
			"user":   event.User,
			"error":  err,
		}).Error("Error acknowledging bet choice")
	}
}

// handleWinner settles a bet and announces the winners
func (f *Feature) handleWinner(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	result, err := f.settleBet(ctx, common.InteractionUser(i), options)
	if result == nil {
		common.HandleError(s, i, f.recorder, "bet winner", err, false)
		return
	}

	if respondErr := common.RespondWithEmbed(s, i, buildSettlementEmbed(result), nil, false); respondErr != nil {
		log.WithFields(log.Fields{
			"bet_id": result.Bet.ID,
			"error":  respondErr,
		}).Error("Error responding to bet winner command")
		return
	}

	// Stats were credited but the bet removal did not reach storage
	if err != nil {
		common.HandleError(s, i, f.recorder, "bet winner", err, true)
	}
}

// handleDelete removes a bet without crediting anyone
func (f *Feature) handleDelete(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()

	betID, err := f.deleteBet(ctx, common.InteractionUser(i), options)
	if err != nil {
		common.HandleError(s, i, f.recorder, "bet delete", err, false)
		return
	}

	if err := common.RespondWithEmbed(s, i, buildBetDeletedEmbed(betID), nil, false); err != nil {
		log.WithFields(log.Fields{
			"bet_id": betID,
			"error":  err,
		}).Error("Error responding to bet delete command")
	}
}

// handleList shows every active bet
func (f *Feature) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	embed := buildActiveBetsEmbed(f.engine.ListActive(ctx))
	if err := common.RespondWithEmbed(s, i, embed, nil, false); err != nil {
		log.WithError(err).Error("Error responding to bet list command")
	}
}

func (f *Feature) createBet(ctx context.Context, creator *discordgo.User, options []*discordgo.ApplicationCommandInteractionDataOption) (*models.Bet, error) {
	if creator == nil {
		return nil, common.NewUserError(common.ErrorKindInvalidArguments, common.GenericUserMessage, "create without a user")
	}

	opts := optionMap(options)

	var name string
	if opt, ok := opts["name"]; ok {
		name = opt.StringValue()
	}

	var labels []string
	for _, key := range []string{"option1", "option2"} {
		if opt, ok := opts[key]; ok {
			labels = append(labels, opt.StringValue())
		}
	}

	bet, err := f.engine.CreateBet(ctx, creator.Username, name, labels...)
	if errors.Is(err, service.ErrInvalidArguments) {
		message := optionCountMessage
		if name == "" {
			message = "Please provide a name for the bet."
		}
		return nil, &common.BotError{
			UserMessage: message,
			LogMessage:  "rejected bet create",
			Kind:        common.ErrorKindInvalidArguments,
			Err:         err,
		}
	}
	return bet, err
}

func (f *Feature) submitChoice(ctx context.Context, user *discordgo.User, customID string) (events.ChoiceSubmittedEvent, error) {
	betID, slot, ok := ParseChoiceCustomID(customID)
	if !ok || user == nil {
		return events.ChoiceSubmittedEvent{}, common.NewUserError(common.ErrorKindInvalidArguments, staleButtonMessage,
			fmt.Sprintf("malformed choice custom ID %q", customID))
	}

	event := events.ChoiceSubmittedEvent{
		BetID: betID,
		User:  user.Username,
		Slot:  slot,
	}
	if err := f.engine.HandleChoiceSubmitted(ctx, event); err != nil {
		return events.ChoiceSubmittedEvent{}, err
	}
	return event, nil
}

// settleBet returns a result together with an error when the settlement was only partly persisted
func (f *Feature) settleBet(ctx context.Context, resolver *discordgo.User, options []*discordgo.ApplicationCommandInteractionDataOption) (*models.SettlementResult, error) {
	if err := f.authorize(resolver); err != nil {
		return nil, err
	}

	opts := optionMap(options)
	idOpt, ok := opts["id"]
	if !ok {
		return nil, common.NewUserError(common.ErrorKindInvalidArguments, "Please provide a bet ID.", "winner without id")
	}
	slotOpt, ok := opts["option"]
	if !ok {
		return nil, common.NewUserError(common.ErrorKindInvalidSlot, "Invalid options for this bet.", "winner without option")
	}

	return f.engine.Settle(ctx, idOpt.IntValue(), models.Slot(slotOpt.IntValue()))
}

func (f *Feature) deleteBet(ctx context.Context, resolver *discordgo.User, options []*discordgo.ApplicationCommandInteractionDataOption) (int64, error) {
	if err := f.authorize(resolver); err != nil {
		return 0, err
	}

	idOpt, ok := optionMap(options)["id"]
	if !ok {
		return 0, common.NewUserError(common.ErrorKindInvalidArguments, "Please provide a bet ID.", "delete without id")
	}

	betID := idOpt.IntValue()
	if err := f.engine.DeleteBet(ctx, betID); err != nil {
		return 0, err
	}
	return betID, nil
}

// authorize checks the resolver allow-list
func (f *Feature) authorize(user *discordgo.User) error {
	if user == nil {
		return common.NewUserError(common.ErrorKindForbidden, notResolverMessage, "resolver command without a user")
	}

	discordID, ok := common.ParseDiscordID(user.ID)
	if !ok || !f.config.IsResolver(discordID) {
		return common.NewUserError(common.ErrorKindForbidden, notResolverMessage,
			fmt.Sprintf("user %s is not a resolver", user.ID))
	}
	return nil
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		opts[opt.Name] = opt
	}
	return opts
}
