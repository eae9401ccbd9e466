package models

import (
	"fmt"
	"sort"
	"strconv"
)

// Slot identifies one of the two fixed outcome positions of a bet
type Slot int

const (
	SlotOne Slot = 1
	SlotTwo Slot = 2
)

// Default option labels used when a bet is created without custom options
const (
	DefaultOptionOne = "Over"
	DefaultOptionTwo = "Under"
)

// ParseSlot converts the text form ("1" or "2") into a Slot
func ParseSlot(s string) (Slot, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	slot := Slot(n)
	return slot, slot.Valid()
}

// Valid reports whether the slot is one of the two bet outcomes
func (s Slot) Valid() bool {
	return s == SlotOne || s == SlotTwo
}

// String returns the text form of the slot
func (s Slot) String() string {
	return strconv.Itoa(int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Slot) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid slot %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Slot) UnmarshalText(text []byte) error {
	slot, ok := ParseSlot(string(text))
	if !ok {
		return fmt.Errorf("invalid slot %q", string(text))
	}
	*s = slot
	return nil
}

// BetOptions holds the labels for both outcome slots
type BetOptions struct {
	One string `json:"one"`
	Two string `json:"two"`
}

// DefaultBetOptions returns the Over/Under option pair
func DefaultBetOptions() BetOptions {
	return BetOptions{One: DefaultOptionOne, Two: DefaultOptionTwo}
}

// Label returns the label of the given slot, or an empty string for an invalid slot
func (o BetOptions) Label(slot Slot) string {
	switch slot {
	case SlotOne:
		return o.One
	case SlotTwo:
		return o.Two
	}
	return ""
}

// Complete reports whether both slots carry a non-empty label
func (o BetOptions) Complete() bool {
	return o.One != "" && o.Two != ""
}

// Bet is one binary-outcome wager market
type Bet struct {
	ID      int64
	Name    string
	Creator string
	Options BetOptions
	Choices map[string]Slot // user -> chosen slot
	Winner  *Slot           // nil until settled
}

// IsSettled reports whether a winning slot has been declared
func (b *Bet) IsSettled() bool {
	return b.Winner != nil
}

// Clone returns a deep copy of the bet
func (b *Bet) Clone() *Bet {
	clone := *b
	clone.Choices = make(map[string]Slot, len(b.Choices))
	for user, slot := range b.Choices {
		clone.Choices[user] = slot
	}
	if b.Winner != nil {
		winner := *b.Winner
		clone.Winner = &winner
	}
	return &clone
}

// ChoiceCounts returns how many users picked each slot
func (b *Bet) ChoiceCounts() (one, two int) {
	for _, slot := range b.Choices {
		switch slot {
		case SlotOne:
			one++
		case SlotTwo:
			two++
		}
	}
	return one, two
}

// Partition splits the users who made a choice into winners and losers.
// Both lists are sorted so that results are deterministic.
func (b *Bet) Partition(winning Slot) (winners, losers []string) {
	winners = []string{}
	losers = []string{}
	for user, slot := range b.Choices {
		if slot == winning {
			winners = append(winners, user)
		} else {
			losers = append(losers, user)
		}
	}
	sort.Strings(winners)
	sort.Strings(losers)
	return winners, losers
}

// BetBook is the persisted form of the active bet set
type BetBook struct {
	NextID int64
	Bets   []*Bet // creation order
}

// SettlementResult describes the outcome of settling a bet
type SettlementResult struct {
	Bet          *Bet
	WinningSlot  Slot
	WinningLabel string
	Winners      []string
	Losers       []string
}
