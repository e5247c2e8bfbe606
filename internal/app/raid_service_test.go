package app

import (
	"context"
	"testing"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRaidFixture(raids ...*raid.Raid) (*RaidService, *fakeRaidRepo, *fakeAnnouncer, *fakeNotifier) {
	repo := newFakeRaidRepo(raids...)
	announcer := &fakeAnnouncer{nextMessageID: "msg-next"}
	notifier := newFakeNotifier()
	svc := NewRaidService(repo, announcer, notifier, newTestLogger(), kst)
	svc.now = func() time.Time { return at(12, 0) }
	return svc, repo, announcer, notifier
}

func TestRaidService_ParseSchedule(t *testing.T) {
	svc, _, _, _ := newRaidFixture()

	parsed, err := svc.ParseSchedule("2025-08-10", "21:00")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(at(21, 0)))

	_, err = svc.ParseSchedule("2025/08/10", "21:00")
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = svc.ParseSchedule("2025-08-10", "9pm")
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestRaidService_CreateRaid(t *testing.T) {
	svc, repo, announcer, _ := newRaidFixture()

	rd, err := svc.CreateRaid(context.Background(), at(21, 0), 8, "잠입 가실 분")
	require.NoError(t, err)

	assert.NotEmpty(t, rd.ID)
	assert.Equal(t, "msg-next", rd.MessageID)
	assert.Equal(t, []string{rd.ID}, announcer.posted)

	stored := repo.stored(rd.ID)
	assert.Equal(t, "msg-next", stored.MessageID)
	assert.Empty(t, stored.Participants)
}

func TestRaidService_CreateRaid_Validation(t *testing.T) {
	svc, _, _, _ := newRaidFixture(announcedRaid("r1", "m1", 6))
	ctx := context.Background()

	_, err := svc.CreateRaid(ctx, at(21, 0), raid.MinParticipants-1, "")
	assert.ErrorIs(t, err, ErrCapacityTooSmall)

	_, err = svc.CreateRaid(ctx, at(11, 0), 6, "")
	assert.ErrorIs(t, err, ErrPastSchedule)

	// announcedRaid occupies 21:00 already
	_, err = svc.CreateRaid(ctx, at(21, 0), 6, "")
	assert.ErrorIs(t, err, ErrScheduleConflict)
}

func TestRaidService_EditRaid(t *testing.T) {
	rd := announcedRaid("r1", "m1", 6)
	rd.Participants = []string{"u1", "u2"}
	rd.Waitlist = []string{"u3"}
	svc, repo, announcer, notifier := newRaidFixture(rd)

	updated, err := svc.EditRaid(context.Background(), "r1", at(22, 0), 8, "시간 변경")
	require.NoError(t, err)

	assert.True(t, updated.ScheduledAt.Equal(at(22, 0)))
	assert.Equal(t, 8, repo.stored("r1").MaxParticipants)
	assert.Equal(t, []string{"r1"}, announcer.edited)

	// Participants and waitlisted members are both told about the change.
	assert.Equal(t, 1, notifier.sentTo("u1"))
	assert.Equal(t, 1, notifier.sentTo("u2"))
	assert.Equal(t, 1, notifier.sentTo("u3"))
}

func TestRaidService_EditRaid_ScheduleConflict(t *testing.T) {
	first := announcedRaid("r1", "m1", 6)
	second := announcedRaid("r2", "m2", 6)
	second.ScheduledAt = at(22, 0)
	svc, _, _, _ := newRaidFixture(first, second)

	_, err := svc.EditRaid(context.Background(), "r1", at(22, 0), 6, "")
	assert.ErrorIs(t, err, ErrScheduleConflict)

	// Keeping the same time is not a conflict with itself.
	_, err = svc.EditRaid(context.Background(), "r1", at(21, 0), 8, "")
	assert.NoError(t, err)
}

func TestRaidService_DeleteRaid(t *testing.T) {
	rd := announcedRaid("r1", "m1", 6)
	rd.Participants = []string{"u1"}
	svc, repo, announcer, notifier := newRaidFixture(rd)

	_, err := svc.DeleteRaid(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, []string{"r1"}, announcer.cancelled)
	assert.Equal(t, 1, notifier.sentTo("u1"))

	_, err = repo.GetByID(context.Background(), "r1")
	assert.Error(t, err)
}
