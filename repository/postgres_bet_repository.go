package repository

import (
	"context"
	"errors"
	"fmt"

	"wagerbot/database"
	"wagerbot/models"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

const betSequenceName = "bets"

// PostgresBetRepository stores the active bet set in the bets and bet_choices tables
type PostgresBetRepository struct {
	db *database.DB
	q  Queryable
}

// NewPostgresBetRepository creates a new bet repository
func NewPostgresBetRepository(db *database.DB) *PostgresBetRepository {
	return &PostgresBetRepository{db: db, q: db.Pool}
}

// Load reads every active bet with its choices and the ID counter
func (r *PostgresBetRepository) Load(ctx context.Context) (*models.BetBook, error) {
	book := &models.BetBook{}

	rows, err := r.q.Query(ctx, `
		SELECT id, creator, name, option_one, option_two, winner
		FROM bets
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}

	byID := make(map[int64]*models.Bet)
	for rows.Next() {
		var (
			bet    models.Bet
			winner *int16
		)
		if err := rows.Scan(&bet.ID, &bet.Creator, &bet.Name, &bet.Options.One, &bet.Options.Two, &winner); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		if winner != nil {
			slot := models.Slot(*winner)
			bet.Winner = &slot
		}
		if !bet.Options.Complete() {
			log.WithField("betID", bet.ID).Warn("Bet has incomplete options, resetting to defaults")
			bet.Options = models.DefaultBetOptions()
		}
		bet.Choices = make(map[string]models.Slot)
		book.Bets = append(book.Bets, &bet)
		byID[bet.ID] = &bet
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	choiceRows, err := r.q.Query(ctx, `SELECT bet_id, username, slot FROM bet_choices`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bet choices: %w", err)
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var (
			betID int64
			user  string
			slot  int16
		)
		if err := choiceRows.Scan(&betID, &user, &slot); err != nil {
			return nil, fmt.Errorf("failed to scan bet choice: %w", err)
		}
		if bet, ok := byID[betID]; ok {
			bet.Choices[user] = models.Slot(slot)
		}
	}
	if err := choiceRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bet choices: %w", err)
	}

	err = r.q.QueryRow(ctx, `SELECT next_id FROM bet_sequence WHERE name = $1`, betSequenceName).Scan(&book.NextID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get bet sequence: %w", err)
	}

	return book, nil
}

// Save replaces every stored bet inside one transaction
func (r *PostgresBetRepository) Save(ctx context.Context, book *models.BetBook) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		// bet_choices rows go with their bets via ON DELETE CASCADE
		if _, err := tx.Exec(ctx, `DELETE FROM bets`); err != nil {
			return fmt.Errorf("failed to clear bets: %w", err)
		}

		batch := &pgx.Batch{}
		for _, bet := range book.Bets {
			var winner *int16
			if bet.Winner != nil {
				w := int16(*bet.Winner)
				winner = &w
			}
			batch.Queue(`
				INSERT INTO bets (id, creator, name, option_one, option_two, winner)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				bet.ID, bet.Creator, bet.Name, bet.Options.One, bet.Options.Two, winner)
			for user, slot := range bet.Choices {
				batch.Queue(`
					INSERT INTO bet_choices (bet_id, username, slot)
					VALUES ($1, $2, $3)`,
					bet.ID, user, int16(slot))
			}
		}
		batch.Queue(`
			INSERT INTO bet_sequence (name, next_id)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET next_id = EXCLUDED.next_id`,
			betSequenceName, book.NextID)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to write bets: %w", err)
		}
		return nil
	})
}
