package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/member"
)

var ErrMemberNotFound = fmt.Errorf("member not found")

type PostgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

func (r *PostgresMemberRepository) Upsert(ctx context.Context, m *member.Member) error {
	query := `INSERT INTO members (discord_id, nickname, level, job)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (discord_id)
               DO UPDATE SET nickname = EXCLUDED.nickname, level = EXCLUDED.level, job = EXCLUDED.job, updated_at = NOW()
               RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, m.DiscordID, m.Nickname, m.Level, m.Job).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting member: %w", err)
	}
	return nil
}

func (r *PostgresMemberRepository) GetByDiscordID(ctx context.Context, discordID string) (*member.Member, error) {
	query := `SELECT discord_id, nickname, level, job, created_at, updated_at
               FROM members WHERE discord_id = $1`
	m := &member.Member{}
	err := r.db.QueryRowContext(ctx, query, discordID).
		Scan(&m.DiscordID, &m.Nickname, &m.Level, &m.Job, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("error getting member by Discord ID: %w", err)
	}
	return m, nil
}

func (r *PostgresMemberRepository) GetByNickname(ctx context.Context, nickname string) (*member.Member, error) {
	query := `SELECT discord_id, nickname, level, job, created_at, updated_at
               FROM members WHERE nickname = $1`
	m := &member.Member{}
	err := r.db.QueryRowContext(ctx, query, nickname).
		Scan(&m.DiscordID, &m.Nickname, &m.Level, &m.Job, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("error getting member by nickname: %w", err)
	}
	return m, nil
}

func (r *PostgresMemberRepository) ListAll(ctx context.Context) ([]*member.Member, error) {
	query := `SELECT discord_id, nickname, level, job, created_at, updated_at
               FROM members ORDER BY nickname`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing members: %w", err)
	}
	defer rows.Close()

	members := make([]*member.Member, 0)
	for rows.Next() {
		m := &member.Member{}
		if err := rows.Scan(&m.DiscordID, &m.Nickname, &m.Level, &m.Job, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning member: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}
