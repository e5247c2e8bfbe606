package distribution

import (
	"context"
	"time"
)

// Repository defines read access to profit-distribution records.
type Repository interface {
	GetByDate(ctx context.Context, date time.Time) (*Distribution, error)
}
