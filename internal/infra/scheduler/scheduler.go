package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper runs one reminder scheduling tick.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// tickTimeout bounds one sweep including all DM dispatch.
const tickTimeout = time.Minute

type state int

const (
	stateUnstarted state = iota
	stateRunning
	stateStopped
)

// ReminderScheduler drives the reminder sweep on a fixed interval.
//
// Ticks never overlap: cron's SkipIfStillRunning chain drops a tick that
// arrives while the previous one is still executing, which the sweep's
// anchor bookkeeping relies on. A panicking tick is recovered and logged so
// the loop survives any single bad tick.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	sweeper    Sweeper
	logger     *logrus.Entry
	interval   time.Duration

	mu sync.Mutex
	st state
}

func NewReminderScheduler(sweeper Sweeper, logger *logrus.Entry, interval time.Duration, tz *time.Location) *ReminderScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(tz),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
	}
}

// Start registers the tick job and begins the loop. Starting twice or
// starting after Stop is an error.
func (s *ReminderScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != stateUnstarted {
		return fmt.Errorf("reminder scheduler already started or stopped")
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cronEngine.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
		defer cancel()
		if err := s.sweeper.Sweep(ctx); err != nil {
			// Tick failures are self-contained; the next tick proceeds
			// with a fresh window.
			s.logger.WithError(err).Error("Reminder sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add reminder sweep job: %w", err)
	}

	s.cronEngine.Start()
	s.st = stateRunning
	s.logger.WithField("interval", s.interval.String()).Info("Reminder scheduler started")
	return nil
}

// Stop halts the loop and waits for a running tick to finish.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != stateRunning {
		return
	}

	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.st = stateStopped
	s.logger.Info("Reminder scheduler stopped")
}
