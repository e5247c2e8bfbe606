package app

import (
	"context"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/distribution"

	"github.com/sirupsen/logrus"
)

// DistributionService answers read-only profit-distribution lookups.
type DistributionService struct {
	distRepo distribution.Repository
	logger   *logrus.Entry
}

func NewDistributionService(dr distribution.Repository, logger *logrus.Entry) *DistributionService {
	return &DistributionService{distRepo: dr, logger: logger}
}

// Lookup returns the distribution record for the given date, or
// database.ErrDistributionNotFound when none exists.
func (s *DistributionService) Lookup(ctx context.Context, date time.Time) (*distribution.Distribution, error) {
	d, err := s.distRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("raid_date", d.RaidDate.Format("2006-01-02")).Debug("Distribution record found")
	return d, nil
}
