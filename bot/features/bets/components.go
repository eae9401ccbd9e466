package bets

import (
	"fmt"
	"strconv"
	"strings"

	"wagerbot/bot/common"
	"wagerbot/models"

	"github.com/bwmarrin/discordgo"
)

// ChoiceCustomIDPrefix prefixes the custom ID of every option button
const ChoiceCustomIDPrefix = "bet_choice_"

// ChoiceCustomID builds the custom ID for a bet option button
func ChoiceCustomID(betID int64, slot models.Slot) string {
	return fmt.Sprintf("%s%d_%d", ChoiceCustomIDPrefix, betID, int(slot))
}

// ParseChoiceCustomID extracts the bet ID and slot from an option button custom ID.
// The slot is returned as sent so that the engine can reject unknown slots.
func ParseChoiceCustomID(customID string) (int64, models.Slot, bool) {
	rest, ok := strings.CutPrefix(customID, ChoiceCustomIDPrefix)
	if !ok {
		return 0, 0, false
	}

	idPart, slotPart, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, 0, false
	}

	betID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	slot, err := strconv.Atoi(slotPart)
	if err != nil {
		return 0, 0, false
	}
	return betID, models.Slot(slot), true
}

// CreateChoiceButtons creates the two option buttons shown under a new bet
func CreateChoiceButtons(bet *models.Bet) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    common.Truncate(bet.Options.One, common.MaxButtonLabel),
					Style:    discordgo.SuccessButton,
					CustomID: ChoiceCustomID(bet.ID, models.SlotOne),
				},
				discordgo.Button{
					Label:    common.Truncate(bet.Options.Two, common.MaxButtonLabel),
					Style:    discordgo.DangerButton,
					CustomID: ChoiceCustomID(bet.ID, models.SlotTwo),
				},
			},
		},
	}
}
