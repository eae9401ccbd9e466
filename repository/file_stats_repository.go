package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"wagerbot/models"
	"wagerbot/service"

	"github.com/google/renameio/v2"
	log "github.com/sirupsen/logrus"
)

type statsRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// FileStatsRepository stores user stats as a JSON object keyed by user
type FileStatsRepository struct {
	path string
}

// NewFileStatsRepository creates a stats repository backed by the given file
func NewFileStatsRepository(path string) *FileStatsRepository {
	return &FileStatsRepository{path: path}
}

// Load reads the stats file. A missing file is an empty store.
func (r *FileStatsRepository) Load(ctx context.Context) (map[string]*models.UserStats, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]*models.UserStats), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stats file %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: stats file %s is empty", service.ErrStoreCorrupt, r.path)
	}

	var records map[string]*statsRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: stats file %s: %v", service.ErrStoreCorrupt, r.path, err)
	}

	stats := make(map[string]*models.UserStats, len(records))
	for user, record := range records {
		if record == nil {
			continue
		}
		if record.Wins < 0 || record.Losses < 0 {
			log.WithFields(log.Fields{
				"user":   user,
				"wins":   record.Wins,
				"losses": record.Losses,
			}).Warn("Resetting negative stats counters to zero")
		}
		stats[user] = &models.UserStats{
			User:   user,
			Wins:   max(record.Wins, 0),
			Losses: max(record.Losses, 0),
		}
	}
	return stats, nil
}

// Save rewrites the whole stats file
func (r *FileStatsRepository) Save(ctx context.Context, stats map[string]*models.UserStats) error {
	records := make(map[string]statsRecord, len(stats))
	for user, entry := range stats {
		records[user] = statsRecord{Wins: entry.Wins, Losses: entry.Losses}
	}
	if err := writeJSONFile(r.path, records); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}

// writeJSONFile encodes v with a 4-space indent and atomically replaces path
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
