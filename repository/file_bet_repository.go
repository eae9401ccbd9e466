package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"wagerbot/models"
	"wagerbot/service"

	log "github.com/sirupsen/logrus"
)

const sequenceFileSuffix = ".seq.json"

// betRecord is the on-disk shape of a single bet
type betRecord struct {
	Creator     string                     `json:"creator"`
	BetName     string                     `json:"bet_name"`
	Options     map[string]string          `json:"options"`
	Winner      json.RawMessage            `json:"winner"`
	UserChoices map[string]json.RawMessage `json:"user_choices"`
}

type sequenceRecord struct {
	NextID int64 `json:"next_id"`
}

// FileBetRepository stores the active bet set as a JSON object keyed by bet ID,
// with the ID counter kept in a sidecar sequence file.
type FileBetRepository struct {
	path    string
	seqPath string
}

// NewFileBetRepository creates a bet repository backed by the given file
func NewFileBetRepository(path string) *FileBetRepository {
	return &FileBetRepository{
		path:    path,
		seqPath: sequencePath(path),
	}
}

func sequencePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + sequenceFileSuffix
}

// Load reads the bet file and repairs entries the way older files may need.
// Incomplete options fall back to Over/Under and unknown choice slots are dropped.
func (r *FileBetRepository) Load(ctx context.Context) (*models.BetBook, error) {
	book := &models.BetBook{}

	data, err := os.ReadFile(r.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// no bets yet
	case err != nil:
		return nil, fmt.Errorf("failed to read bets file %s: %w", r.path, err)
	case len(bytes.TrimSpace(data)) == 0:
		return nil, fmt.Errorf("%w: bets file %s is empty", service.ErrStoreCorrupt, r.path)
	default:
		var records map[string]*betRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: bets file %s: %v", service.ErrStoreCorrupt, r.path, err)
		}
		book.Bets = decodeBets(records)
	}

	seq, err := r.loadSequence()
	if err != nil {
		// The counter is recoverable from the active IDs
		log.WithError(err).WithField("path", r.seqPath).Warn("Ignoring unreadable bet sequence file")
	}
	book.NextID = seq

	return book, nil
}

func (r *FileBetRepository) loadSequence() (int64, error) {
	data, err := os.ReadFile(r.seqPath)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var seq sequenceRecord
	if err := json.Unmarshal(data, &seq); err != nil {
		return 0, err
	}
	return seq.NextID, nil
}

func decodeBets(records map[string]*betRecord) []*models.Bet {
	bets := make([]*models.Bet, 0, len(records))
	for key, record := range records {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			log.WithField("key", key).Warn("Skipping bet with non-numeric ID")
			continue
		}
		if record == nil {
			log.WithField("betID", id).Warn("Skipping empty bet entry")
			continue
		}

		bet := &models.Bet{
			ID:      id,
			Name:    record.BetName,
			Creator: record.Creator,
			Options: decodeOptions(id, record.Options),
			Choices: make(map[string]models.Slot, len(record.UserChoices)),
		}
		if winner, ok := decodeSlot(record.Winner); ok {
			bet.Winner = &winner
		}
		for user, raw := range record.UserChoices {
			slot, ok := decodeSlot(raw)
			if !ok {
				log.WithFields(log.Fields{
					"betID": id,
					"user":  user,
					"value": string(raw),
				}).Warn("Dropping choice with unknown slot")
				continue
			}
			bet.Choices[user] = slot
		}
		bets = append(bets, bet)
	}

	sort.Slice(bets, func(i, j int) bool {
		return bets[i].ID < bets[j].ID
	})
	return bets
}

func decodeOptions(id int64, options map[string]string) models.BetOptions {
	decoded := models.BetOptions{
		One: options[models.SlotOne.String()],
		Two: options[models.SlotTwo.String()],
	}
	if !decoded.Complete() {
		log.WithField("betID", id).Warn("Bet has incomplete options, resetting to defaults")
		return models.DefaultBetOptions()
	}
	return decoded
}

// decodeSlot accepts both "1" and 1 since older files were not consistent
func decodeSlot(raw json.RawMessage) (models.Slot, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return models.ParseSlot(text)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		slot := models.Slot(n)
		return slot, slot.Valid()
	}
	return 0, false
}

// Save rewrites the bet file and then the sequence file
func (r *FileBetRepository) Save(ctx context.Context, book *models.BetBook) error {
	records := make(map[string]*betRecord, len(book.Bets))
	for _, bet := range book.Bets {
		choices := make(map[string]json.RawMessage, len(bet.Choices))
		for user, slot := range bet.Choices {
			encoded, err := json.Marshal(slot)
			if err != nil {
				return fmt.Errorf("failed to encode choice of %s on bet %d: %w", user, bet.ID, err)
			}
			choices[user] = encoded
		}
		winner := json.RawMessage("null")
		if bet.Winner != nil {
			encoded, err := json.Marshal(*bet.Winner)
			if err != nil {
				return fmt.Errorf("failed to encode winner of bet %d: %w", bet.ID, err)
			}
			winner = encoded
		}
		records[strconv.FormatInt(bet.ID, 10)] = &betRecord{
			Creator: bet.Creator,
			BetName: bet.Name,
			Options: map[string]string{
				models.SlotOne.String(): bet.Options.One,
				models.SlotTwo.String(): bet.Options.Two,
			},
			Winner:      winner,
			UserChoices: choices,
		}
	}

	// The sequence goes first: a counter ahead of the bets file is harmless
	// on load, a bets file ahead of a failed save is not.
	if err := writeJSONFile(r.seqPath, sequenceRecord{NextID: book.NextID}); err != nil {
		return fmt.Errorf("failed to write bet sequence file: %w", err)
	}
	if err := writeJSONFile(r.path, records); err != nil {
		return fmt.Errorf("failed to write bets file: %w", err)
	}
	return nil
}
