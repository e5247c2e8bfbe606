package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/discord"
	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"
	idb "github.com/ksumini/mapleland-discord-bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Custom application-level errors for raid administration
var ErrInvalidSchedule = fmt.Errorf("schedule has an invalid date or time format")
var ErrPastSchedule = fmt.Errorf("schedule lies in the past")
var ErrCapacityTooSmall = fmt.Errorf("max participants is below the minimum party size")
var ErrScheduleConflict = fmt.Errorf("a raid already exists at this time")

const scheduleLayout = "2006-01-02 15:04"

// RaidService handles administrator raid operations: create, edit, delete
// and the schedule listing. Membership lists are never touched here; they
// belong to RosterService.
type RaidService struct {
	raidRepo  raid.Repository
	announcer discord.Announcer
	notifier  discord.Notifier
	logger    *logrus.Entry
	tz        *time.Location
	now       func() time.Time
}

func NewRaidService(rr raid.Repository, a discord.Announcer, n discord.Notifier, logger *logrus.Entry, tz *time.Location) *RaidService {
	return &RaidService{
		raidRepo:  rr,
		announcer: a,
		notifier:  n,
		logger:    logger,
		tz:        tz,
		now:       time.Now,
	}
}

// ParseSchedule combines the date and time form inputs into a civil time in
// the bot's configured timezone.
func (s *RaidService) ParseSchedule(dateStr, timeStr string) (time.Time, error) {
	at, err := time.ParseInLocation(scheduleLayout, dateStr+" "+timeStr, s.tz)
	if err != nil {
		return time.Time{}, ErrInvalidSchedule
	}
	return at, nil
}

// CreateRaid validates and stores a new raid, posts the announcement and
// backfills the announcement message reference.
func (s *RaidService) CreateRaid(ctx context.Context, scheduledAt time.Time, maxParticipants int, note string) (*raid.Raid, error) {
	if maxParticipants < raid.MinParticipants {
		return nil, ErrCapacityTooSmall
	}
	if scheduledAt.Before(s.now().In(s.tz)) {
		return nil, ErrPastSchedule
	}

	_, err := s.raidRepo.GetByScheduledAt(ctx, scheduledAt)
	if err == nil {
		return nil, ErrScheduleConflict
	}
	if err != idb.ErrRaidNotFound {
		return nil, fmt.Errorf("failed to check existing raid: %w", err)
	}

	rd := &raid.Raid{
		ID:              uuid.NewString(),
		ScheduledAt:     scheduledAt,
		MaxParticipants: maxParticipants,
		Note:            note,
		Participants:    []string{},
		Waitlist:        []string{},
	}
	if err := s.raidRepo.Create(ctx, rd); err != nil {
		if err == idb.ErrDuplicateSchedule {
			return nil, ErrScheduleConflict
		}
		return nil, fmt.Errorf("failed to create raid: %w", err)
	}

	messageID, err := s.announcer.PostAnnouncement(rd)
	if err != nil {
		return nil, fmt.Errorf("raid %s created but announcement failed: %w", rd.ID, err)
	}
	rd.MessageID = messageID
	if err := s.raidRepo.UpdateMessageID(ctx, rd.ID, messageID); err != nil {
		s.logger.WithField("raid_id", rd.ID).WithError(err).Error("Failed to backfill announcement message ID")
	}

	s.logger.WithFields(logrus.Fields{
		"raid_id":      rd.ID,
		"scheduled_at": scheduledAt.Format(scheduleLayout),
		"capacity":     maxParticipants,
	}).Info("Raid created")
	return rd, nil
}

// EditRaid updates datetime, capacity and note. Current members are notified
// by DM; the announcement embed is rewritten. A capacity reduction below the
// current participant count is stored as-is; occupancy is not reconciled.
func (s *RaidService) EditRaid(ctx context.Context, raidID string, scheduledAt time.Time, maxParticipants int, note string) (*raid.Raid, error) {
	if maxParticipants < raid.MinParticipants {
		return nil, ErrCapacityTooSmall
	}

	rd, err := s.raidRepo.GetByID(ctx, raidID)
	if err != nil {
		return nil, err
	}

	if !scheduledAt.Equal(rd.ScheduledAt) {
		other, err := s.raidRepo.GetByScheduledAt(ctx, scheduledAt)
		if err == nil && other.ID != rd.ID {
			return nil, ErrScheduleConflict
		}
		if err != nil && err != idb.ErrRaidNotFound {
			return nil, fmt.Errorf("failed to check schedule conflict: %w", err)
		}
	}

	rd.ScheduledAt = scheduledAt
	rd.MaxParticipants = maxParticipants
	rd.Note = note
	if err := s.raidRepo.Update(ctx, rd); err != nil {
		if err == idb.ErrDuplicateSchedule {
			return nil, ErrScheduleConflict
		}
		return nil, fmt.Errorf("failed to update raid: %w", err)
	}

	text := fmt.Sprintf("🔔 `%s` 일정에 변경 사항이 있습니다.\n변경된 내용을 확인해주세요!", scheduledAt.Format(scheduleLayout))
	s.notifyMembers(rd, text)

	if err := s.announcer.EditAnnouncement(rd); err != nil {
		s.logger.WithField("raid_id", rd.ID).WithError(err).Error("Failed to edit announcement message")
	}

	s.logger.WithFields(logrus.Fields{
		"raid_id":      rd.ID,
		"scheduled_at": scheduledAt.Format(scheduleLayout),
	}).Info("Raid updated")
	return rd, nil
}

// DeleteRaid notifies members, cancels the announcement and removes the
// record. Deletion is terminal; there is no soft delete.
func (s *RaidService) DeleteRaid(ctx context.Context, raidID string) (*raid.Raid, error) {
	rd, err := s.raidRepo.GetByID(ctx, raidID)
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("⚠️ `%s` 일정이 취소되었습니다.", rd.ScheduledAt.Format(scheduleLayout))
	s.notifyMembers(rd, text)

	if err := s.announcer.CancelAnnouncement(rd); err != nil {
		s.logger.WithField("raid_id", rd.ID).WithError(err).Error("Failed to cancel announcement message")
	}

	if err := s.raidRepo.Delete(ctx, raidID); err != nil {
		return nil, fmt.Errorf("failed to delete raid: %w", err)
	}

	s.logger.WithField("raid_id", rd.ID).Info("Raid deleted")
	return rd, nil
}

// GetRaid returns one raid by ID.
func (s *RaidService) GetRaid(ctx context.Context, raidID string) (*raid.Raid, error) {
	return s.raidRepo.GetByID(ctx, raidID)
}

// ListRaids returns all raids sorted by scheduled time.
func (s *RaidService) ListRaids(ctx context.Context) ([]*raid.Raid, error) {
	return s.raidRepo.List(ctx)
}

// notifyMembers DMs every participant and waitlisted member. Unreachable
// recipients are logged and skipped.
func (s *RaidService) notifyMembers(rd *raid.Raid, text string) {
	recipients := make([]string, 0, len(rd.Participants)+len(rd.Waitlist))
	recipients = append(recipients, rd.Participants...)
	recipients = append(recipients, rd.Waitlist...)

	for _, userID := range recipients {
		if err := s.notifier.SendDirectMessage(userID, text); err != nil {
			s.logger.WithFields(logrus.Fields{
				"raid_id": rd.ID,
				"user_id": userID,
			}).WithError(err).Warn("Failed to DM member about raid change")
		}
	}
}
