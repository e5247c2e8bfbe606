package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/discord"
	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"

	"github.com/sirupsen/logrus"
)

// ReminderKind identifies one of the fixed reminder thresholds.
type ReminderKind string

const (
	Reminder1Hour  ReminderKind = "1H"
	Reminder24Hour ReminderKind = "24H"
)

// reminderThresholds maps each kind to its lead time before raid start and
// the label used in the DM text. Both are process-wide constants, not
// per-raid settings.
var reminderThresholds = []struct {
	Kind  ReminderKind
	Lead  time.Duration
	Label string
}{
	{Reminder1Hour, time.Hour, "공대 시작 1시간 전"},
	{Reminder24Hour, 24 * time.Hour, "공대 시작 24시간 전"},
}

// dispatchConcurrency bounds the DM fan-out for a single reminder.
const dispatchConcurrency = 4

// ReminderService decides, once per tick, which raids crossed a reminder
// threshold and notifies their participants.
//
// It detects crossings with a sliding window rather than a tolerance check:
// a reminder fires iff its threshold instant fell inside [previous tick,
// this tick). This is correct under loop jitter, drift and occasional missed
// ticks; the only unguarded case is an outage longer than the 23h gap
// between the two thresholds of one raid, which may coalesce or skip
// reminders (accepted limitation).
//
// The tick anchor is owned exclusively by the scheduler goroutine; Sweep
// must never run concurrently with itself.
type ReminderService struct {
	raidRepo raid.Repository
	notifier discord.Notifier
	logger   *logrus.Entry
	now      func() time.Time

	anchor   time.Time // previous sweep's "now"
	anchored bool
}

func NewReminderService(rr raid.Repository, n discord.Notifier, logger *logrus.Entry) *ReminderService {
	return &ReminderService{
		raidRepo: rr,
		notifier: n,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep runs one scheduling tick.
//
// The first call only records the window baseline and dispatches nothing;
// otherwise every threshold in the past would fire at once on process start.
// Every later call advances the anchor to this tick's "now" before doing any
// I/O, so a failed tick consumes its window instead of double-firing it on
// the next tick. Thresholds that fell inside a failed tick's window are lost,
// not retried.
func (s *ReminderService) Sweep(ctx context.Context) error {
	now := s.now()

	if !s.anchored {
		s.anchor = now
		s.anchored = true
		s.logger.WithField("anchor", now.Format(time.RFC3339)).Info("First sweep; anchor set, nothing dispatched")
		return nil
	}

	windowStart := s.anchor
	windowEnd := now
	s.anchor = now

	s.logger.WithFields(logrus.Fields{
		"window_start": windowStart.Format(time.RFC3339),
		"window_end":   windowEnd.Format(time.RFC3339),
	}).Debug("Sweep window computed")

	raids, err := s.raidRepo.List(ctx)
	if err != nil {
		// Window already consumed; thresholds inside it will not fire later.
		return fmt.Errorf("failed to list raids for sweep: %w", err)
	}

	for _, rd := range raids {
		if rd.ScheduledAt.IsZero() {
			s.logger.WithField("raid_id", rd.ID).Warn("Skipping raid with malformed schedule")
			continue
		}
		for _, th := range reminderThresholds {
			threshold := rd.ScheduledAt.Add(-th.Lead)
			if !threshold.Before(windowStart) && threshold.Before(windowEnd) {
				s.dispatchReminder(rd, th.Kind, th.Label)
			}
		}
	}
	return nil
}

// dispatchReminder DMs every current participant of the raid. Send failures
// are per-recipient: logged, counted, never propagated.
func (s *ReminderService) dispatchReminder(rd *raid.Raid, kind ReminderKind, label string) {
	logCtx := s.logger.WithFields(logrus.Fields{
		"raid_id":      rd.ID,
		"scheduled_at": rd.ScheduledAt.Format("2006-01-02 15:04"),
		"kind":         kind,
	})

	if len(rd.Participants) == 0 {
		logCtx.Debug("No participants; reminder skipped")
		return
	}

	text := fmt.Sprintf("🔔 **%s**\n자쿰 공대 **%s** 에 참여 예정이에요!",
		label, rd.ScheduledAt.Format("2006-01-02 15:04"))

	var (
		wg     sync.WaitGroup
		sem    = make(chan struct{}, dispatchConcurrency)
		mu     sync.Mutex
		failed int
	)
	for _, userID := range rd.Participants {
		wg.Add(1)
		sem <- struct{}{}
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.notifier.SendDirectMessage(userID, text); err != nil {
				logCtx.WithField("user_id", userID).WithError(err).Error("Failed to send reminder DM")
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(userID)
	}
	wg.Wait()

	logCtx.WithFields(logrus.Fields{
		"recipients": len(rd.Participants),
		"failed":     failed,
	}).Info("Reminder dispatched")
}
