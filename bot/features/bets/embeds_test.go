package bets

import (
	"fmt"
	"testing"

	"wagerbot/bot/common"
	"wagerbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBetCreatedEmbed(t *testing.T) {
	embed := buildBetCreatedEmbed(&models.Bet{ID: 1, Name: "Game X", Creator: "alice"})

	assert.Equal(t, "**Bet**: Game X", embed.Title)
	assert.Equal(t, "**Creator**: alice | **ID**: 1", embed.Description)
	assert.Equal(t, common.ColorInfo, embed.Color)
}

func TestBuildSettlementEmbed(t *testing.T) {
	t.Run("with winners", func(t *testing.T) {
		embed := buildSettlementEmbed(&models.SettlementResult{
			Bet:          &models.Bet{ID: 2, Name: "Game Y"},
			WinningSlot:  models.SlotOne,
			WinningLabel: "Heads",
			Winners:      []string{"carol", "erin"},
			Losers:       []string{"dave"},
		})

		assert.Equal(t, "**Bet:** Game Y\nResults: Heads", embed.Title)
		assert.Equal(t, "Winners: carol, erin", embed.Description)
		assert.Equal(t, common.ColorSuccess, embed.Color)
	})

	t.Run("no winners", func(t *testing.T) {
		embed := buildSettlementEmbed(&models.SettlementResult{
			Bet:          &models.Bet{ID: 3, Name: "Game Z"},
			WinningSlot:  models.SlotTwo,
			WinningLabel: "Under",
			Winners:      []string{},
		})

		assert.Equal(t, "Winners: No one", embed.Description)
	})
}

func TestBuildActiveBetsEmbed(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		embed := buildActiveBetsEmbed(nil)
		assert.Equal(t, "No active bets.", embed.Description)
		assert.Empty(t, embed.Fields)
	})

	t.Run("lists bets in order", func(t *testing.T) {
		embed := buildActiveBetsEmbed([]*models.Bet{
			{ID: 1, Name: "Game X", Creator: "alice", Options: models.DefaultBetOptions()},
			{ID: 3, Name: "Game Y", Creator: "bob", Options: models.BetOptions{One: "Heads", Two: "Tails"},
				Choices: map[string]models.Slot{"carol": models.SlotOne, "dave": models.SlotTwo, "erin": models.SlotOne}},
		})

		assert.Equal(t, "Active Bets", embed.Title)
		require.Len(t, embed.Fields, 2)
		assert.Equal(t, "**Bet**: Game X", embed.Fields[0].Name)
		assert.Equal(t, "**Creator**: alice | **Bet ID**: 1\nOver: 0 | Under: 0", embed.Fields[0].Value)
		assert.Equal(t, "**Creator**: bob | **Bet ID**: 3\nHeads: 2 | Tails: 1", embed.Fields[1].Value)
	})

	t.Run("caps the field count", func(t *testing.T) {
		var bets []*models.Bet
		for id := int64(1); id <= 30; id++ {
			bets = append(bets, &models.Bet{ID: id, Name: fmt.Sprintf("Bet %d", id), Options: models.DefaultBetOptions()})
		}

		embed := buildActiveBetsEmbed(bets)
		assert.Len(t, embed.Fields, common.MaxEmbedFields)
		require.NotNil(t, embed.Footer)
		assert.Equal(t, "5 more not shown", embed.Footer.Text)
	})
}

func TestBuildBetDeletedEmbed(t *testing.T) {
	embed := buildBetDeletedEmbed(4)
	assert.Equal(t, "Bet with ID 4 has been successfully deleted.", embed.Description)
}
