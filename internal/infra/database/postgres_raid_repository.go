package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"

	"github.com/lib/pq" // For pq.Array and driver registration
)

// Custom errors
var ErrRaidNotFound = fmt.Errorf("raid not found")
var ErrDuplicateSchedule = fmt.Errorf("raid with this scheduled time already exists")

type PostgresRaidRepository struct {
	db *sql.DB
}

func NewPostgresRaidRepository(db *sql.DB) *PostgresRaidRepository {
	return &PostgresRaidRepository{db: db}
}

func (r *PostgresRaidRepository) Create(ctx context.Context, rd *raid.Raid) error {
	query := `INSERT INTO raids (id, scheduled_at, max_participants, note, participants, waitlist, message_id)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		rd.ID, rd.ScheduledAt, rd.MaxParticipants, rd.Note,
		pq.Array(rd.Participants), pq.Array(rd.Waitlist), rd.MessageID,
	).Scan(&rd.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "raids_scheduled_at_key") {
			return ErrDuplicateSchedule
		}
		return fmt.Errorf("error creating raid: %w", err)
	}
	return nil
}

const raidColumns = `id, scheduled_at, max_participants, note, participants, waitlist, message_id, created_at`

func scanRaid(row *sql.Row) (*raid.Raid, error) {
	rd := &raid.Raid{}
	var participants, waitlist pq.StringArray
	err := row.Scan(&rd.ID, &rd.ScheduledAt, &rd.MaxParticipants, &rd.Note,
		&participants, &waitlist, &rd.MessageID, &rd.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRaidNotFound
		}
		return nil, err
	}
	rd.Participants = participants
	rd.Waitlist = waitlist
	return rd, nil
}

func (r *PostgresRaidRepository) GetByID(ctx context.Context, id string) (*raid.Raid, error) {
	query := `SELECT ` + raidColumns + ` FROM raids WHERE id = $1`
	rd, err := scanRaid(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == ErrRaidNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("error getting raid by ID: %w", err)
	}
	return rd, nil
}

func (r *PostgresRaidRepository) GetByScheduledAt(ctx context.Context, at time.Time) (*raid.Raid, error) {
	query := `SELECT ` + raidColumns + ` FROM raids WHERE scheduled_at = $1`
	rd, err := scanRaid(r.db.QueryRowContext(ctx, query, at))
	if err != nil {
		if err == ErrRaidNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("error getting raid by scheduled time: %w", err)
	}
	return rd, nil
}

func (r *PostgresRaidRepository) GetByMessageID(ctx context.Context, messageID string) (*raid.Raid, error) {
	query := `SELECT ` + raidColumns + ` FROM raids WHERE message_id = $1`
	rd, err := scanRaid(r.db.QueryRowContext(ctx, query, messageID))
	if err != nil {
		if err == ErrRaidNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("error getting raid by message ID: %w", err)
	}
	return rd, nil
}

func (r *PostgresRaidRepository) List(ctx context.Context) ([]*raid.Raid, error) {
	query := `SELECT ` + raidColumns + ` FROM raids ORDER BY scheduled_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing raids: %w", err)
	}
	defer rows.Close()

	raids := make([]*raid.Raid, 0)
	for rows.Next() {
		rd := &raid.Raid{}
		var participants, waitlist pq.StringArray
		if err := rows.Scan(&rd.ID, &rd.ScheduledAt, &rd.MaxParticipants, &rd.Note,
			&participants, &waitlist, &rd.MessageID, &rd.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning raid: %w", err)
		}
		rd.Participants = participants
		rd.Waitlist = waitlist
		raids = append(raids, rd)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raids: %w", err)
	}
	return raids, nil
}

func (r *PostgresRaidRepository) Update(ctx context.Context, rd *raid.Raid) error {
	query := `UPDATE raids
               SET scheduled_at = $1, max_participants = $2, note = $3
               WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query, rd.ScheduledAt, rd.MaxParticipants, rd.Note, rd.ID)
	if err != nil {
		if strings.Contains(err.Error(), "raids_scheduled_at_key") {
			return ErrDuplicateSchedule
		}
		return fmt.Errorf("error updating raid: %w", err)
	}
	return requireOneRow(res, ErrRaidNotFound)
}

func (r *PostgresRaidRepository) UpdateMessageID(ctx context.Context, id string, messageID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE raids SET message_id = $1 WHERE id = $2`, messageID, id)
	if err != nil {
		return fmt.Errorf("error updating raid message ID: %w", err)
	}
	return requireOneRow(res, ErrRaidNotFound)
}

// UpdateMembership writes both lists in a single statement so a reader can
// never observe one list from before a transition and the other from after.
func (r *PostgresRaidRepository) UpdateMembership(ctx context.Context, id string, participants, waitlist []string) error {
	query := `UPDATE raids SET participants = $1, waitlist = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, pq.Array(participants), pq.Array(waitlist), id)
	if err != nil {
		return fmt.Errorf("error updating raid membership: %w", err)
	}
	return requireOneRow(res, ErrRaidNotFound)
}

func (r *PostgresRaidRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM raids WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting raid: %w", err)
	}
	return requireOneRow(res, ErrRaidNotFound)
}

func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
