package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/distribution"
)

var ErrDistributionNotFound = fmt.Errorf("distribution record not found")

type PostgresDistributionRepository struct {
	db *sql.DB
}

func NewPostgresDistributionRepository(db *sql.DB) *PostgresDistributionRepository {
	return &PostgresDistributionRepository{db: db}
}

func (r *PostgresDistributionRepository) GetByDate(ctx context.Context, date time.Time) (*distribution.Distribution, error) {
	query := `SELECT id, raid_date, title, status, participant_count, total_profit, per_person, created_at
               FROM distributions WHERE raid_date = $1
               ORDER BY created_at DESC LIMIT 1`

	// Normalize to just the date part.
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	d := &distribution.Distribution{}
	err := r.db.QueryRowContext(ctx, query, dateOnly).Scan(
		&d.ID, &d.RaidDate, &d.Title, &d.Status,
		&d.ParticipantCount, &d.TotalProfit, &d.PerPerson, &d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDistributionNotFound
		}
		return nil, fmt.Errorf("error getting distribution by date: %w", err)
	}
	return d, nil
}
