package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wagerbot/events"
	"wagerbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	engine    BetEngine
	stats     StatsService
	betRepo   *memoryBetRepository
	statsRepo *memoryStatsRepository
}

func newEngineFixture(t *testing.T, bus *events.Bus) *engineFixture {
	t.Helper()
	ctx := context.Background()

	betRepo := newMemoryBetRepository()
	statsRepo := newMemoryStatsRepository()

	stats, err := NewStatsService(ctx, statsRepo, bus)
	require.NoError(t, err)
	engine, err := NewBetEngine(ctx, betRepo, stats, bus)
	require.NoError(t, err)

	return &engineFixture{engine: engine, stats: stats, betRepo: betRepo, statsRepo: statsRepo}
}

func TestBetEngine_CreateBet_DefaultOptions(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	assert.Equal(t, int64(1), bet.ID)
	assert.Equal(t, "alice", bet.Creator)
	assert.Equal(t, "Game X", bet.Name)
	assert.Equal(t, "Over", bet.Options.Label(models.SlotOne))
	assert.Equal(t, "Under", bet.Options.Label(models.SlotTwo))
	assert.Empty(t, bet.Choices)
	assert.Nil(t, bet.Winner)

	stored := f.betRepo.stored()
	require.Len(t, stored.Bets, 1)
	assert.Equal(t, bet, stored.Bets[0])
	assert.Equal(t, int64(2), stored.NextID)
}

func TestBetEngine_CreateBet_CustomOptions(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "bob", "Game Y", "Heads", "Tails")
	require.NoError(t, err)
	assert.Equal(t, models.BetOptions{One: "Heads", Two: "Tails"}, bet.Options)
}

func TestBetEngine_CreateBet_InvalidArguments(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		creator string
		betName string
		options []string
	}{
		{"three options", "bob", "Game Z", []string{"A", "B", "C"}},
		{"one option", "bob", "Game Z", []string{"A"}},
		{"blank option", "bob", "Game Z", []string{"A", "  "}},
		{"blank name", "bob", " ", nil},
		{"blank creator", "", "Game Z", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, nil)

			bet, err := f.engine.CreateBet(ctx, tt.creator, tt.betName, tt.options...)
			assert.ErrorIs(t, err, ErrInvalidArguments)
			assert.Nil(t, bet)
			assert.Equal(t, 0, f.betRepo.saves)
			assert.Empty(t, f.engine.ListActive(ctx))
		})
	}
}

func TestBetEngine_CreateBet_SaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	f.betRepo.failWith(errors.New("disk full"))
	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Nil(t, bet)
	assert.Empty(t, f.engine.ListActive(ctx))

	// The failed ID is reused since it never reached storage
	f.betRepo.failWith(nil)
	bet, err = f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)
	assert.Equal(t, int64(1), bet.ID)
}

func TestBetEngine_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		bet, err := f.engine.CreateBet(ctx, "alice", "Game")
		require.NoError(t, err)
		assert.False(t, seen[bet.ID], "ID %d handed out twice", bet.ID)
		seen[bet.ID] = true

		if i%2 == 0 {
			require.NoError(t, f.engine.DeleteBet(ctx, bet.ID))
		} else {
			_, err := f.engine.Settle(ctx, bet.ID, models.SlotOne)
			require.NoError(t, err)
		}
	}

	// A fresh engine over the same storage continues the sequence
	reloaded, err := NewBetEngine(ctx, f.betRepo, f.stats, nil)
	require.NoError(t, err)
	bet, err := reloaded.CreateBet(ctx, "alice", "Game")
	require.NoError(t, err)
	assert.False(t, seen[bet.ID])
	assert.Equal(t, int64(6), bet.ID)
}

func TestNewBetEngine_StaleSequence(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockBetRepository)
	mockRepo.On("Load", ctx).Return(&models.BetBook{
		NextID: 2,
		Bets: []*models.Bet{
			{ID: 7, Name: "Game", Creator: "alice", Options: models.DefaultBetOptions()},
		},
	}, nil)
	mockRepo.On("Save", ctx, mock.Anything).Return(nil)

	engine, err := NewBetEngine(ctx, mockRepo, new(MockStatsService), nil)
	require.NoError(t, err)

	bet, err := engine.CreateBet(ctx, "bob", "Game 2")
	require.NoError(t, err)
	assert.Equal(t, int64(8), bet.ID)

	existing, err := engine.Get(ctx, 7)
	require.NoError(t, err)
	assert.NotNil(t, existing.Choices)
}

func TestNewBetEngine_CorruptStoreStartsEmpty(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockBetRepository)
	mockRepo.On("Load", ctx).Return(nil, ErrStoreCorrupt)

	engine, err := NewBetEngine(ctx, mockRepo, new(MockStatsService), nil)
	require.NoError(t, err)
	assert.Empty(t, engine.ListActive(ctx))
}

func TestNewBetEngine_LoadError(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockBetRepository)
	mockRepo.On("Load", ctx).Return(nil, errors.New("permission denied"))

	engine, err := NewBetEngine(ctx, mockRepo, new(MockStatsService), nil)
	assert.Error(t, err)
	assert.Nil(t, engine)
}

func TestBetEngine_RecordChoice_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotOne))
	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotTwo))

	current, err := f.engine.Get(ctx, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Slot{"carol": models.SlotTwo}, current.Choices)

	stored := f.betRepo.stored()
	require.Len(t, stored.Bets, 1)
	assert.Equal(t, models.SlotTwo, stored.Bets[0].Choices["carol"])
}

func TestBetEngine_RecordChoice_UnknownBet(t *testing.T) {
	ctx := context.Background()

	mockBetRepo := new(MockBetRepository)
	mockBetRepo.On("Load", ctx).Return(&models.BetBook{}, nil)
	mockStats := new(MockStatsService)

	engine, err := NewBetEngine(ctx, mockBetRepo, mockStats, nil)
	require.NoError(t, err)

	err = engine.RecordChoice(ctx, 42, "carol", models.SlotOne)
	assert.ErrorIs(t, err, ErrBetNotFound)

	mockBetRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	mockStats.AssertNotCalled(t, "RecordOutcomes", mock.Anything, mock.Anything)
}

func TestBetEngine_RecordChoice_InvalidSlot(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)
	saves := f.betRepo.saves

	err = f.engine.RecordChoice(ctx, bet.ID, "carol", models.Slot(3))
	assert.ErrorIs(t, err, ErrInvalidSlot)
	assert.Equal(t, saves, f.betRepo.saves)

	err = f.engine.RecordChoice(ctx, bet.ID, " ", models.SlotOne)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestBetEngine_RecordChoice_SaveFailureRestoresPrevious(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)
	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotOne))

	f.betRepo.failWith(errors.New("disk full"))
	assert.ErrorIs(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotTwo), ErrPersistence)
	assert.ErrorIs(t, f.engine.RecordChoice(ctx, bet.ID, "dave", models.SlotTwo), ErrPersistence)

	current, err := f.engine.Get(ctx, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.Slot{"carol": models.SlotOne}, current.Choices)
}

func TestBetEngine_HandleChoiceSubmitted(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	err = f.engine.HandleChoiceSubmitted(ctx, events.ChoiceSubmittedEvent{
		BetID: bet.ID,
		User:  "carol",
		Slot:  models.SlotTwo,
	})
	require.NoError(t, err)

	current, err := f.engine.Get(ctx, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotTwo, current.Choices["carol"])
}

func TestBetEngine_Settle_PartitionsAndCreditsStats(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "bob", "Game Y", "Heads", "Tails")
	require.NoError(t, err)
	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotOne))
	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "dave", models.SlotTwo))

	result, err := f.engine.Settle(ctx, bet.ID, models.SlotOne)
	require.NoError(t, err)

	assert.Equal(t, []string{"carol"}, result.Winners)
	assert.Equal(t, []string{"dave"}, result.Losers)
	assert.Equal(t, "Heads", result.WinningLabel)
	require.NotNil(t, result.Bet.Winner)
	assert.Equal(t, models.SlotOne, *result.Bet.Winner)

	assert.Equal(t, models.UserStats{User: "carol", Wins: 1}, f.stats.Get(ctx, "carol"))
	assert.Equal(t, models.UserStats{User: "dave", Losses: 1}, f.stats.Get(ctx, "dave"))

	_, err = f.engine.Get(ctx, bet.ID)
	assert.ErrorIs(t, err, ErrBetNotFound)
	assert.Empty(t, f.betRepo.stored().Bets)

	// Settled bets cannot be settled again
	_, err = f.engine.Settle(ctx, bet.ID, models.SlotOne)
	assert.ErrorIs(t, err, ErrBetNotFound)
}

func TestBetEngine_Settle_PartitionIsExact(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	choices := map[string]models.Slot{
		"u1": models.SlotOne,
		"u2": models.SlotTwo,
		"u3": models.SlotTwo,
		"u4": models.SlotOne,
		"u5": models.SlotTwo,
	}
	for user, slot := range choices {
		require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, user, slot))
	}

	result, err := f.engine.Settle(ctx, bet.ID, models.SlotTwo)
	require.NoError(t, err)

	assert.Equal(t, []string{"u2", "u3", "u5"}, result.Winners)
	assert.Equal(t, []string{"u1", "u4"}, result.Losers)
	assert.Len(t, append(result.Winners, result.Losers...), len(choices))

	for _, user := range result.Winners {
		assert.Equal(t, 1, f.stats.Get(ctx, user).Wins)
		assert.Equal(t, 0, f.stats.Get(ctx, user).Losses)
	}
	for _, user := range result.Losers {
		assert.Equal(t, 0, f.stats.Get(ctx, user).Wins)
		assert.Equal(t, 1, f.stats.Get(ctx, user).Losses)
	}
}

func TestBetEngine_Settle_NoChoices(t *testing.T) {
	ctx := context.Background()

	mockStats := new(MockStatsService)
	betRepo := newMemoryBetRepository()

	engine, err := NewBetEngine(ctx, betRepo, mockStats, nil)
	require.NoError(t, err)

	bet, err := engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	result, err := engine.Settle(ctx, bet.ID, models.SlotTwo)
	require.NoError(t, err)
	assert.Empty(t, result.Winners)
	assert.Empty(t, result.Losers)
	assert.NotNil(t, result.Winners)
	assert.NotNil(t, result.Losers)

	assert.Empty(t, engine.ListActive(ctx))
	assert.Empty(t, betRepo.stored().Bets)
	mockStats.AssertNotCalled(t, "RecordOutcomes", mock.Anything, mock.Anything)
}

func TestBetEngine_Settle_InvalidSlot(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	_, err = f.engine.Settle(ctx, bet.ID, models.Slot(0))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = f.engine.Get(ctx, bet.ID)
	assert.NoError(t, err)
}

func TestBetEngine_Settle_StatsFailureKeepsBet(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)
	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotOne))

	f.statsRepo.failWith(errors.New("disk full"))

	result, err := f.engine.Settle(ctx, bet.ID, models.SlotOne)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrPersistence)

	var settleErr *SettlementError
	require.ErrorAs(t, err, &settleErr)
	assert.False(t, settleErr.StatsPersisted)
	assert.False(t, settleErr.Partial())

	_, err = f.engine.Get(ctx, bet.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, f.stats.Get(ctx, "carol").Wins)
}

func TestBetEngine_Settle_BetSaveFailureAfterStats(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)
	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotOne))

	f.betRepo.failWith(errors.New("disk full"))

	result, err := f.engine.Settle(ctx, bet.ID, models.SlotOne)
	require.NotNil(t, result)
	assert.Equal(t, []string{"carol"}, result.Winners)

	var settleErr *SettlementError
	require.ErrorAs(t, err, &settleErr)
	assert.True(t, settleErr.Partial())
	assert.ErrorIs(t, err, ErrPersistence)

	// Stats are durable and the bet is gone from memory, so it cannot be credited twice
	stored, ok := f.statsRepo.stored("carol")
	require.True(t, ok)
	assert.Equal(t, 1, stored.Wins)
	_, err = f.engine.Settle(ctx, bet.ID, models.SlotOne)
	assert.ErrorIs(t, err, ErrBetNotFound)

	// The next successful save drops it from storage too
	f.betRepo.failWith(nil)
	_, err = f.engine.CreateBet(ctx, "alice", "Game 2")
	require.NoError(t, err)
	stored2 := f.betRepo.stored()
	require.Len(t, stored2.Bets, 1)
	assert.Equal(t, "Game 2", stored2.Bets[0].Name)
}

func TestBetEngine_Settle_NoChoicesSaveFailureKeepsBet(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	f.betRepo.failWith(errors.New("disk full"))

	result, err := f.engine.Settle(ctx, bet.ID, models.SlotOne)
	assert.Nil(t, result)
	var settleErr *SettlementError
	require.ErrorAs(t, err, &settleErr)
	assert.False(t, settleErr.Partial())

	_, err = f.engine.Get(ctx, bet.ID)
	assert.NoError(t, err)
}

func TestBetEngine_DeleteBet(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)
	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotOne))

	require.NoError(t, f.engine.DeleteBet(ctx, bet.ID))

	_, err = f.engine.Get(ctx, bet.ID)
	assert.ErrorIs(t, err, ErrBetNotFound)
	assert.Empty(t, f.betRepo.stored().Bets)

	// Deleting never touches stats
	_, ok := f.stats.Lookup(ctx, "carol")
	assert.False(t, ok)
	assert.Equal(t, 0, f.statsRepo.saves)

	assert.ErrorIs(t, f.engine.DeleteBet(ctx, bet.ID), ErrBetNotFound)
}

func TestBetEngine_DeleteBet_SaveFailureRestores(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	f.betRepo.failWith(errors.New("disk full"))
	assert.ErrorIs(t, f.engine.DeleteBet(ctx, bet.ID), ErrPersistence)

	_, err = f.engine.Get(ctx, bet.ID)
	assert.NoError(t, err)
}

func TestBetEngine_ListActive_OrderedSnapshots(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	for _, name := range []string{"first", "second", "third"} {
		_, err := f.engine.CreateBet(ctx, "alice", name)
		require.NoError(t, err)
	}

	bets := f.engine.ListActive(ctx)
	require.Len(t, bets, 3)
	assert.Equal(t, "first", bets[0].Name)
	assert.Equal(t, "second", bets[1].Name)
	assert.Equal(t, "third", bets[2].Name)

	bets[0].Choices["mallory"] = models.SlotOne
	bets[0].Name = "changed"

	current, err := f.engine.Get(ctx, bets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "first", current.Name)
	assert.Empty(t, current.Choices)
}

func TestBetEngine_EventsEmittedAfterSave(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()

	var mu sync.Mutex
	received := make(map[events.EventType]int)
	var wg sync.WaitGroup
	wg.Add(5)
	for _, eventType := range events.PublishedEventTypes() {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) {
			mu.Lock()
			received[event.Type()]++
			mu.Unlock()
			wg.Done()
		})
	}

	f := newEngineFixture(t, bus)

	settled, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)
	require.NoError(t, f.engine.RecordChoice(ctx, settled.ID, "carol", models.SlotOne))
	_, err = f.engine.Settle(ctx, settled.ID, models.SlotOne)
	require.NoError(t, err)

	deleted, err := f.engine.CreateBet(ctx, "alice", "Game Y")
	require.NoError(t, err)

	// A failed save emits nothing
	f.betRepo.failWith(errors.New("disk full"))
	_ = f.engine.DeleteBet(ctx, deleted.ID)

	done := make(chan struct{})
	go func() {
		// created x2, recorded, stats updated, settled
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, received[events.EventTypeBetCreated])
	assert.Equal(t, 1, received[events.EventTypeChoiceRecorded])
	assert.Equal(t, 1, received[events.EventTypeStatsUpdated])
	assert.Equal(t, 1, received[events.EventTypeBetSettled])
	assert.Equal(t, 0, received[events.EventTypeBetDeleted])
}

func TestBetEngine_ConcurrentChoices(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil)

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(user string, slot models.Slot) {
			defer wg.Done()
			assert.NoError(t, f.engine.RecordChoice(ctx, bet.ID, user, slot))
		}(user, models.Slot(i%2+1))
	}
	wg.Wait()

	current, err := f.engine.Get(ctx, bet.ID)
	require.NoError(t, err)
	assert.Len(t, current.Choices, len(users))
	assert.Equal(t, current.Choices, f.betRepo.stored().Bets[0].Choices)
}

func TestBetEngine_Settle_PartialSettlementEmitsSettledEvent(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	f := newEngineFixture(t, bus)

	settled := make(chan events.BetSettledEvent, 1)
	bus.Subscribe(events.EventTypeBetSettled, func(ctx context.Context, event events.Event) {
		settled <- event.(events.BetSettledEvent)
	})

	bet, err := f.engine.CreateBet(ctx, "alice", "Game X")
	require.NoError(t, err)
	require.NoError(t, f.engine.RecordChoice(ctx, bet.ID, "carol", models.SlotOne))

	f.betRepo.failWith(errors.New("disk full"))

	_, err = f.engine.Settle(ctx, bet.ID, models.SlotOne)
	var settleErr *SettlementError
	require.ErrorAs(t, err, &settleErr)
	require.True(t, settleErr.Partial())

	select {
	case event := <-settled:
		assert.Equal(t, bet.ID, event.BetID)
		assert.Equal(t, []string{"carol"}, event.Winners)
	case <-time.After(time.Second):
		t.Fatal("settled event not delivered")
	}
}

func TestNewBetEngine_DropsSettledBets(t *testing.T) {
	ctx := context.Background()
	winner := models.SlotTwo
	betRepo := newMemoryBetRepository()
	betRepo.book = &models.BetBook{
		NextID: 0,
		Bets: []*models.Bet{
			{ID: 2, Name: "Open", Creator: "alice", Options: models.DefaultBetOptions()},
			{ID: 5, Name: "Done", Creator: "bob", Options: models.DefaultBetOptions(), Winner: &winner},
		},
	}

	stats, err := NewStatsService(ctx, newMemoryStatsRepository(), nil)
	require.NoError(t, err)
	engine, err := NewBetEngine(ctx, betRepo, stats, nil)
	require.NoError(t, err)

	active := engine.ListActive(ctx)
	require.Len(t, active, 1)
	assert.Equal(t, int64(2), active[0].ID)

	_, err = engine.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrBetNotFound)

	// The settled bet's ID is still never reused
	bet, err := engine.CreateBet(ctx, "carol", "Next")
	require.NoError(t, err)
	assert.Equal(t, int64(6), bet.ID)
}
