package raid

import (
	"context"
	"time"
)

// Repository defines the operations for persisting and retrieving Raid entities.
type Repository interface {
	Create(ctx context.Context, r *Raid) error
	GetByID(ctx context.Context, id string) (*Raid, error)
	GetByScheduledAt(ctx context.Context, at time.Time) (*Raid, error)
	GetByMessageID(ctx context.Context, messageID string) (*Raid, error)
	List(ctx context.Context) ([]*Raid, error)
	Update(ctx context.Context, r *Raid) error // datetime/capacity/note edits
	UpdateMessageID(ctx context.Context, id string, messageID string) error
	UpdateMembership(ctx context.Context, id string, participants, waitlist []string) error
	Delete(ctx context.Context, id string) error
}
