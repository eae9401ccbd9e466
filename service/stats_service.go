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

// statsService implements the StatsService interface
type statsService struct {
	mu       sync.RWMutex
	repo     StatsRepository
	eventBus *events.Bus
	stats    map[string]*models.UserStats
}

// NewStatsService loads the stats store and returns a service that owns it.
// A corrupt store is logged and replaced with an empty one.
func NewStatsService(ctx context.Context, repo StatsRepository, eventBus *events.Bus) (StatsService, error) {
	stats, err := repo.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrStoreCorrupt) {
			return nil, fmt.Errorf("failed to load stats: %w", err)
		}
		log.WithError(err).Warn("Stats store is empty or invalid, initializing empty stats")
		stats = nil
	}
	if stats == nil {
		stats = make(map[string]*models.UserStats)
	}
	for user, entry := range stats {
		if entry == nil {
			delete(stats, user)
			continue
		}
		entry.User = user
	}

	log.WithField("userCount", len(stats)).Info("Loaded user stats")

	return &statsService{
		repo:     repo,
		eventBus: eventBus,
		stats:    stats,
	}, nil
}

// RecordOutcome credits a single win or loss to a user
func (s *statsService) RecordOutcome(ctx context.Context, user string, outcome models.Outcome) error {
	return s.RecordOutcomes(ctx, []models.OutcomeRecord{{User: user, Outcome: outcome}})
}

// RecordOutcomes applies every increment, then saves the whole map once.
// If the save fails the increments are undone so memory matches storage.
func (s *statsService) RecordOutcomes(ctx context.Context, records []models.OutcomeRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if strings.TrimSpace(record.User) == "" {
			return fmt.Errorf("%w: user is required", ErrInvalidArguments)
		}
		if !record.Outcome.Valid() {
			return fmt.Errorf("%w: unknown outcome %q", ErrInvalidArguments, record.Outcome)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Snapshot touched users so a failed save can be undone
	previous := make(map[string]*models.UserStats, len(records))
	for _, record := range records {
		if _, seen := previous[record.User]; seen {
			continue
		}
		if current, ok := s.stats[record.User]; ok {
			snapshot := *current
			previous[record.User] = &snapshot
		} else {
			previous[record.User] = nil
		}
	}

	for _, record := range records {
		entry, ok := s.stats[record.User]
		if !ok {
			entry = &models.UserStats{User: record.User}
			s.stats[record.User] = entry
		}
		entry.Apply(record.Outcome)
	}

	bus := events.NewTransactionalBus(s.eventBus)
	bus.Publish(events.StatsUpdatedEvent{Records: append([]models.OutcomeRecord(nil), records...)})

	if err := s.repo.Save(ctx, s.stats); err != nil {
		bus.Discard()
		for user, snapshot := range previous {
			if snapshot == nil {
				delete(s.stats, user)
			} else {
				s.stats[user] = snapshot
			}
		}
		log.WithError(err).WithField("recordCount", len(records)).Error("Failed to save stats, increments rolled back")
		return persistenceError("stats", err)
	}

	bus.Flush(ctx)
	return nil
}

// Get returns the user's record, zeroed when the user has none yet
func (s *statsService) Get(ctx context.Context, user string) models.UserStats {
	stats, _ := s.Lookup(ctx, user)
	return stats
}

// Lookup returns the user's record and whether one exists
func (s *statsService) Lookup(ctx context.Context, user string) (models.UserStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.stats[user]
	if !ok {
		return models.UserStats{User: user}, false
	}
	return *entry, true
}

// Leaderboard returns up to limit records, most wins first.
// Ties fall back to fewer losses, then user name.
func (s *statsService) Leaderboard(ctx context.Context, limit int) []models.UserStats {
	s.mu.RLock()
	entries := make([]models.UserStats, 0, len(s.stats))
	for _, entry := range s.stats {
		entries = append(entries, *entry)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		if entries[i].Losses != entries[j].Losses {
			return entries[i].Losses < entries[j].Losses
		}
		return entries[i].User < entries[j].User
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
