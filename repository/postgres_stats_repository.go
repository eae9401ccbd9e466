package repository

import (
	"context"
	"fmt"

	"wagerbot/database"
	"wagerbot/models"

	"github.com/jackc/pgx/v5"
)

// PostgresStatsRepository stores user stats in the user_stats table
type PostgresStatsRepository struct {
	db *database.DB
	q  Queryable
}

// NewPostgresStatsRepository creates a new stats repository
func NewPostgresStatsRepository(db *database.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db, q: db.Pool}
}

// Load reads every user's record
func (r *PostgresStatsRepository) Load(ctx context.Context) (map[string]*models.UserStats, error) {
	rows, err := r.q.Query(ctx, `SELECT username, wins, losses FROM user_stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*models.UserStats)
	for rows.Next() {
		var entry models.UserStats
		if err := rows.Scan(&entry.User, &entry.Wins, &entry.Losses); err != nil {
			return nil, fmt.Errorf("failed to scan user stats: %w", err)
		}
		stats[entry.User] = &entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user stats: %w", err)
	}

	return stats, nil
}

// Save upserts every record and removes users no longer present
func (r *PostgresStatsRepository) Save(ctx context.Context, stats map[string]*models.UserStats) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		users := make([]string, 0, len(stats))
		batch := &pgx.Batch{}
		for user, entry := range stats {
			users = append(users, user)
			batch.Queue(`
				INSERT INTO user_stats (username, wins, losses, updated_at)
				VALUES ($1, $2, $3, NOW())
				ON CONFLICT (username) DO UPDATE
				SET wins = EXCLUDED.wins, losses = EXCLUDED.losses, updated_at = NOW()
				WHERE user_stats.wins <> EXCLUDED.wins OR user_stats.losses <> EXCLUDED.losses`,
				user, entry.Wins, entry.Losses)
		}
		batch.Queue(`DELETE FROM user_stats WHERE NOT (username = ANY($1))`, users)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to write user stats: %w", err)
		}
		return nil
	})
}
