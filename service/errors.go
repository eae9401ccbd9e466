package service

import (
	"errors"
	"fmt"
)

var (
	// ErrBetNotFound is returned when a bet ID is not in the active set
	ErrBetNotFound = errors.New("bet not found")

	// ErrInvalidSlot is returned when a slot is not 1 or 2
	ErrInvalidSlot = errors.New("invalid slot: must be 1 or 2")

	// ErrInvalidArguments is returned for malformed create requests (wrong option count, blank names)
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrStoreCorrupt is returned by repositories when a durable store exists but cannot be decoded
	ErrStoreCorrupt = errors.New("store corrupt")

	// ErrPersistence is returned when a save to durable storage fails
	ErrPersistence = errors.New("persistence failure")
)

// SettlementError reports a settlement whose persistence did not fully complete.
// StatsPersisted and BetRemoved describe what reached durable storage.
type SettlementError struct {
	BetID          int64
	StatsPersisted bool
	BetRemoved     bool
	Err            error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement of bet %d incomplete (stats persisted: %t, bet removed: %t): %v",
		e.BetID, e.StatsPersisted, e.BetRemoved, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// Partial reports whether stats reached storage while the bet removal did not
func (e *SettlementError) Partial() bool {
	return e.StatsPersisted && !e.BetRemoved
}

func persistenceError(what string, err error) error {
	return fmt.Errorf("%w: failed to save %s: %w", ErrPersistence, what, err)
}
