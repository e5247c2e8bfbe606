package member

import "context"

// Repository defines the operations for persisting and retrieving Member profiles.
type Repository interface {
	// Upsert inserts the profile or, if the Discord ID is already registered,
	// replaces nickname, level and job.
	Upsert(ctx context.Context, m *Member) error
	GetByDiscordID(ctx context.Context, discordID string) (*Member, error)
	GetByNickname(ctx context.Context, nickname string) (*Member, error)
	ListAll(ctx context.Context) ([]*Member, error)
}
