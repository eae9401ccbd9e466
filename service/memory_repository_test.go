package service

import (
	"context"
	"sync"

	"wagerbot/models"
)

// memoryBetRepository keeps the last saved book in memory. Saved books are
// deep-copied so tests can compare what storage holds with engine state.
type memoryBetRepository struct {
	mu      sync.Mutex
	book    *models.BetBook
	saves   int
	saveErr error
}

func newMemoryBetRepository() *memoryBetRepository {
	return &memoryBetRepository{}
}

func (r *memoryBetRepository) Load(ctx context.Context) (*models.BetBook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.book == nil {
		return &models.BetBook{}, nil
	}
	return copyBook(r.book), nil
}

func (r *memoryBetRepository) Save(ctx context.Context, book *models.BetBook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.book = copyBook(book)
	r.saves++
	return nil
}

func (r *memoryBetRepository) stored() *models.BetBook {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.book == nil {
		return &models.BetBook{}
	}
	return copyBook(r.book)
}

func (r *memoryBetRepository) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

func copyBook(book *models.BetBook) *models.BetBook {
	out := &models.BetBook{NextID: book.NextID, Bets: make([]*models.Bet, 0, len(book.Bets))}
	for _, bet := range book.Bets {
		out.Bets = append(out.Bets, bet.Clone())
	}
	return out
}

// memoryStatsRepository keeps the last saved stats map in memory
type memoryStatsRepository struct {
	mu      sync.Mutex
	stats   map[string]models.UserStats
	saves   int
	saveErr error
}

func newMemoryStatsRepository() *memoryStatsRepository {
	return &memoryStatsRepository{stats: make(map[string]models.UserStats)}
}

func (r *memoryStatsRepository) Load(ctx context.Context) (map[string]*models.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*models.UserStats, len(r.stats))
	for user, entry := range r.stats {
		e := entry
		out[user] = &e
	}
	return out, nil
}

func (r *memoryStatsRepository) Save(ctx context.Context, stats map[string]*models.UserStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.stats = make(map[string]models.UserStats, len(stats))
	for user, entry := range stats {
		r.stats[user] = *entry
	}
	r.saves++
	return nil
}

func (r *memoryStatsRepository) stored(user string) (models.UserStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.stats[user]
	return entry, ok
}

func (r *memoryStatsRepository) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}
