package service

import (
	"context"

	"wagerbot/events"
	"wagerbot/models"

	"github.com/stretchr/testify/mock"
)

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Load(ctx context.Context) (*models.BetBook, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetBook), args.Error(1)
}

func (m *MockBetRepository) Save(ctx context.Context, book *models.BetBook) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Load(ctx context.Context) (map[string]*models.UserStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.UserStats), args.Error(1)
}

func (m *MockStatsRepository) Save(ctx context.Context, stats map[string]*models.UserStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) RecordOutcome(ctx context.Context, user string, outcome models.Outcome) error {
	args := m.Called(ctx, user, outcome)
	return args.Error(0)
}

func (m *MockStatsService) RecordOutcomes(ctx context.Context, records []models.OutcomeRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockStatsService) Get(ctx context.Context, user string) models.UserStats {
	args := m.Called(ctx, user)
	return args.Get(0).(models.UserStats)
}

func (m *MockStatsService) Lookup(ctx context.Context, user string) (models.UserStats, bool) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.UserStats), args.Bool(1)
}

func (m *MockStatsService) Leaderboard(ctx context.Context, limit int) []models.UserStats {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.UserStats)
}

// MockBetEngine is a mock implementation of BetEngine
type MockBetEngine struct {
	mock.Mock
}

func (m *MockBetEngine) CreateBet(ctx context.Context, creator, name string, optionLabels ...string) (*models.Bet, error) {
	args := m.Called(ctx, creator, name, optionLabels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetEngine) RecordChoice(ctx context.Context, betID int64, user string, slot models.Slot) error {
	args := m.Called(ctx, betID, user, slot)
	return args.Error(0)
}

func (m *MockBetEngine) HandleChoiceSubmitted(ctx context.Context, event events.ChoiceSubmittedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockBetEngine) Settle(ctx context.Context, betID int64, winningSlot models.Slot) (*models.SettlementResult, error) {
	args := m.Called(ctx, betID, winningSlot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementResult), args.Error(1)
}

func (m *MockBetEngine) DeleteBet(ctx context.Context, betID int64) error {
	args := m.Called(ctx, betID)
	return args.Error(0)
}

func (m *MockBetEngine) ListActive(ctx context.Context) []*models.Bet {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*models.Bet)
}

func (m *MockBetEngine) Get(ctx context.Context, betID int64) (*models.Bet, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}
