package testutil

import (
	"wagerbot/models"
)

// CreateTestBet creates an open Over/Under bet with no choices
func CreateTestBet(id int64, creator, name string) *models.Bet {
	return &models.Bet{
		ID:      id,
		Name:    name,
		Creator: creator,
		Options: models.DefaultBetOptions(),
		Choices: make(map[string]models.Slot),
	}
}

// CreateTestBetWithChoices creates a bet with custom options and the given choices
func CreateTestBetWithChoices(id int64, creator, name string, options models.BetOptions, choices map[string]models.Slot) *models.Bet {
	bet := CreateTestBet(id, creator, name)
	bet.Options = options
	for user, slot := range choices {
		bet.Choices[user] = slot
	}
	return bet
}
