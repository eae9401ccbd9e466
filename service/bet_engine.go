package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wagerbot/events"
	"wagerbot/models"

	log "github.com/sirupsen/logrus"
)

// betEngine implements the BetEngine interface.
// All mutations, including their save, run under mu.
type betEngine struct {
	mu           sync.RWMutex
	repo         BetRepository
	statsService StatsService
	eventBus     *events.Bus
	nextID       int64
	bets         map[int64]*models.Bet
}

// NewBetEngine loads the active bets and returns an engine that owns them.
// A corrupt store is logged and replaced with an empty one.
func NewBetEngine(ctx context.Context, repo BetRepository, statsService StatsService, eventBus *events.Bus) (BetEngine, error) {
	book, err := repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrStoreCorrupt) {
			return nil, fmt.Errorf("failed to load bets: %w", err)
		}
		log.WithError(err).Warn("Bet store is empty or invalid, initializing empty bets")
		book = nil
	}
	if book == nil {
		book = &models.BetBook{}
	}

	engine := &betEngine{
		repo:         repo,
		statsService: statsService,
		eventBus:     eventBus,
		bets:         make(map[int64]*models.Bet, len(book.Bets)),
	}

	// Never hand out an ID that is still active, even if the stored counter is stale
	engine.nextID = max(book.NextID, 1)
	for _, bet := range book.Bets {
		if bet == nil || bet.ID <= 0 {
			continue
		}
		if bet.ID >= engine.nextID {
			engine.nextID = bet.ID + 1
		}
		if bet.IsSettled() {
			// Settled bets are terminal and never stay active
			log.WithField("betID", bet.ID).Warn("Dropping settled bet found in store")
			continue
		}
		if bet.Choices == nil {
			bet.Choices = make(map[string]models.Slot)
		}
		engine.bets[bet.ID] = bet
	}

	log.WithFields(log.Fields{
		"activeBets": len(engine.bets),
		"nextID":     engine.nextID,
	}).Info("Loaded active bets")

	return engine, nil
}

// CreateBet opens a new bet with default or custom options
func (e *betEngine) CreateBet(ctx context.Context, creator, name string, optionLabels ...string) (*models.Bet, error) {
	creator = strings.TrimSpace(creator)
	name = strings.TrimSpace(name)
	if creator == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidArguments)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: bet name is required", ErrInvalidArguments)
	}

	options, err := resolveOptions(optionLabels)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	bet := &models.Bet{
		ID:      e.nextID,
		Name:    name,
		Creator: creator,
		Options: options,
		Choices: make(map[string]models.Slot),
	}
	e.bets[bet.ID] = bet
	e.nextID++

	bus := events.NewTransactionalBus(e.eventBus)
	bus.Publish(events.BetCreatedEvent{
		BetID:   bet.ID,
		Name:    bet.Name,
		Creator: bet.Creator,
		Options: bet.Options,
	})

	if err := e.saveLocked(ctx); err != nil {
		bus.Discard()
		delete(e.bets, bet.ID)
		e.nextID--
		return nil, err
	}
	bus.Flush(ctx)

	log.WithFields(log.Fields{
		"betID":   bet.ID,
		"creator": creator,
		"name":    name,
	}).Info("Bet created")

	return bet.Clone(), nil
}

// resolveOptions applies the default Over/Under pair or validates two custom labels
func resolveOptions(labels []string) (models.BetOptions, error) {
	switch len(labels) {
	case 0:
		return models.DefaultBetOptions(), nil
	case 2:
		options := models.BetOptions{
			One: strings.TrimSpace(labels[0]),
			Two: strings.TrimSpace(labels[1]),
		}
		if !options.Complete() {
			return models.BetOptions{}, fmt.Errorf("%w: option labels must not be empty", ErrInvalidArguments)
		}
		return options, nil
	default:
		return models.BetOptions{}, fmt.Errorf("%w: expected exactly two options, got %d", ErrInvalidArguments, len(labels))
	}
}

// RecordChoice upserts a user's choice; the latest call wins
func (e *betEngine) RecordChoice(ctx context.Context, betID int64, user string, slot models.Slot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	bet, ok := e.bets[betID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrBetNotFound, betID)
	}
	if !slot.Valid() {
		return fmt.Errorf("%w: got %d", ErrInvalidSlot, int(slot))
	}
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("%w: user is required", ErrInvalidArguments)
	}

	previous, hadPrevious := bet.Choices[user]
	bet.Choices[user] = slot

	recorded := events.ChoiceRecordedEvent{BetID: betID, User: user, Slot: slot}
	if hadPrevious {
		recorded.PreviousSlot = &previous
	}
	bus := events.NewTransactionalBus(e.eventBus)
	bus.Publish(recorded)

	if err := e.saveLocked(ctx); err != nil {
		bus.Discard()
		if hadPrevious {
			bet.Choices[user] = previous
		} else {
			delete(bet.Choices, user)
		}
		return err
	}
	bus.Flush(ctx)

	log.WithFields(log.Fields{
		"betID": betID,
		"user":  user,
		"slot":  slot,
	}).Debug("Choice recorded")

	return nil
}

// HandleChoiceSubmitted records the choice carried by a delivery event
func (e *betEngine) HandleChoiceSubmitted(ctx context.Context, event events.ChoiceSubmittedEvent) error {
	return e.RecordChoice(ctx, event.BetID, event.User, event.Slot)
}

// Settle credits every choice as a win or loss and removes the bet.
// Stats are saved before the bet book; a failure in between is reported
// as a partial SettlementError together with the result.
func (e *betEngine) Settle(ctx context.Context, betID int64, winningSlot models.Slot) (*models.SettlementResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	bet, ok := e.bets[betID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBetNotFound, betID)
	}
	if !winningSlot.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSlot, int(winningSlot))
	}

	winners, losers := bet.Partition(winningSlot)
	records := make([]models.OutcomeRecord, 0, len(winners)+len(losers))
	for _, user := range winners {
		records = append(records, models.OutcomeRecord{User: user, Outcome: models.OutcomeWin})
	}
	for _, user := range losers {
		records = append(records, models.OutcomeRecord{User: user, Outcome: models.OutcomeLoss})
	}

	statsPersisted := false
	if len(records) > 0 {
		if err := e.statsService.RecordOutcomes(ctx, records); err != nil {
			return nil, &SettlementError{BetID: betID, Err: err}
		}
		statsPersisted = true
	}

	settled := bet.Clone()
	winner := winningSlot
	settled.Winner = &winner
	result := &models.SettlementResult{
		Bet:          settled,
		WinningSlot:  winningSlot,
		WinningLabel: bet.Options.Label(winningSlot),
		Winners:      winners,
		Losers:       losers,
	}

	delete(e.bets, betID)

	bus := events.NewTransactionalBus(e.eventBus)
	bus.Publish(events.BetSettledEvent{
		BetID:        betID,
		Name:         bet.Name,
		WinningSlot:  winningSlot,
		WinningLabel: result.WinningLabel,
		Winners:      winners,
		Losers:       losers,
	})

	if err := e.saveLocked(ctx); err != nil {
		if !statsPersisted {
			// Nothing reached storage, keep the bet active
			bus.Discard()
			e.bets[betID] = bet
			return nil, &SettlementError{BetID: betID, Err: err}
		}
		// Stats are durable, so memory keeps the bet removed and reports it
		// settled; the next successful save of the bet book drops it from
		// storage too.
		bus.Flush(ctx)
		log.WithFields(log.Fields{
			"betID":   betID,
			"winners": len(winners),
			"losers":  len(losers),
		}).Error("Bet settled in stats but still stored as active")
		return result, &SettlementError{BetID: betID, StatsPersisted: true, Err: err}
	}
	bus.Flush(ctx)

	log.WithFields(log.Fields{
		"betID":       betID,
		"winningSlot": winningSlot,
		"winners":     len(winners),
		"losers":      len(losers),
	}).Info("Bet settled")

	return result, nil
}

// DeleteBet removes a bet without touching stats
func (e *betEngine) DeleteBet(ctx context.Context, betID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	bet, ok := e.bets[betID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrBetNotFound, betID)
	}
	delete(e.bets, betID)

	bus := events.NewTransactionalBus(e.eventBus)
	bus.Publish(events.BetDeletedEvent{BetID: betID})

	if err := e.saveLocked(ctx); err != nil {
		bus.Discard()
		e.bets[betID] = bet
		return err
	}
	bus.Flush(ctx)

	log.WithField("betID", betID).Info("Bet deleted")
	return nil
}

// ListActive returns a snapshot of the active bets in creation order
func (e *betEngine) ListActive(ctx context.Context) []*models.Bet {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bets := make([]*models.Bet, 0, len(e.bets))
	for _, bet := range e.sortedLocked() {
		bets = append(bets, bet.Clone())
	}
	return bets
}

// Get returns a snapshot of one active bet
func (e *betEngine) Get(ctx context.Context, betID int64) (*models.Bet, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bet, ok := e.bets[betID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBetNotFound, betID)
	}
	return bet.Clone(), nil
}

// sortedLocked returns the live bets ordered by ID, which is creation order
func (e *betEngine) sortedLocked() []*models.Bet {
	bets := make([]*models.Bet, 0, len(e.bets))
	for _, bet := range e.bets {
		bets = append(bets, bet)
	}
	sort.Slice(bets, func(i, j int) bool {
		return bets[i].ID < bets[j].ID
	})
	return bets
}

// saveLocked rewrites the whole bet book; callers hold mu
func (e *betEngine) saveLocked(ctx context.Context) error {
	book := &models.BetBook{
		NextID: e.nextID,
		Bets:   e.sortedLocked(),
	}
	if err := e.repo.Save(ctx, book); err != nil {
		log.WithError(err).WithField("activeBets", len(book.Bets)).Error("Failed to save bets")
		return persistenceError("bets", err)
	}
	return nil
}
