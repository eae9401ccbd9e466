package service

import (
	"context"

	"wagerbot/events"
	"wagerbot/models"
)

// BetRepository defines the durable store for the active bet set.
// Save always rewrites the whole book.
type BetRepository interface {
	// Load reconstructs the bet book. A missing store yields an empty book;
	// an undecodable one yields an error wrapping ErrStoreCorrupt.
	Load(ctx context.Context) (*models.BetBook, error)

	// Save replaces the stored book with the given one
	Save(ctx context.Context, book *models.BetBook) error
}

// StatsRepository defines the durable store for per-user win/loss records.
// Save always rewrites the whole map.
type StatsRepository interface {
	// Load reconstructs the stats map. A missing store yields an empty map;
	// an undecodable one yields an error wrapping ErrStoreCorrupt.
	Load(ctx context.Context) (map[string]*models.UserStats, error)

	// Save replaces the stored map with the given one
	Save(ctx context.Context, stats map[string]*models.UserStats) error
}

// StatsService owns user win/loss records
type StatsService interface {
	// RecordOutcome credits a single win or loss to a user
	RecordOutcome(ctx context.Context, user string, outcome models.Outcome) error

	// RecordOutcomes credits a batch of outcomes and saves once
	RecordOutcomes(ctx context.Context, records []models.OutcomeRecord) error

	// Get returns the user's record, zeroed when the user has none yet
	Get(ctx context.Context, user string) models.UserStats

	// Lookup returns the user's record and whether one exists
	Lookup(ctx context.Context, user string) (models.UserStats, bool)

	// Leaderboard returns up to limit records ordered by wins
	Leaderboard(ctx context.Context, limit int) []models.UserStats
}

// BetEngine owns the active bets and their lifecycle
type BetEngine interface {
	// CreateBet opens a new bet. optionLabels must be empty (Over/Under) or exactly two labels.
	CreateBet(ctx context.Context, creator, name string, optionLabels ...string) (*models.Bet, error)

	// RecordChoice sets a user's slot on a bet, replacing any earlier choice
	RecordChoice(ctx context.Context, betID int64, user string, slot models.Slot) error

	// HandleChoiceSubmitted is the entry point for choice events raised by a delivery channel
	HandleChoiceSubmitted(ctx context.Context, event events.ChoiceSubmittedEvent) error

	// Settle declares the winning slot, credits stats and removes the bet
	Settle(ctx context.Context, betID int64, winningSlot models.Slot) (*models.SettlementResult, error)

	// DeleteBet removes a bet without touching stats
	DeleteBet(ctx context.Context, betID int64) error

	// ListActive returns a snapshot of the active bets in creation order
	ListActive(ctx context.Context) []*models.Bet

	// Get returns a snapshot of one active bet
	Get(ctx context.Context, betID int64) (*models.Bet, error)
}
