package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/member"
	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func announcedRaid(id, messageID string, capacity int) *raid.Raid {
	return &raid.Raid{
		ID:              id,
		ScheduledAt:     time.Date(2025, time.August, 10, 21, 0, 0, 0, kst),
		MaxParticipants: capacity,
		MessageID:       messageID,
	}
}

func newRosterFixture(raids ...*raid.Raid) (*RosterService, *fakeRaidRepo, *fakeMemberRepo) {
	repo := newFakeRaidRepo(raids...)
	members := newFakeMemberRepo()
	svc := NewRosterService(repo, members, newTestLogger())
	return svc, repo, members
}

func joinSignal(messageID, userID string) ReactionSignal {
	return ReactionSignal{MessageID: messageID, UserID: userID, Emoji: JoinEmoji, Kind: ReactionAdded}
}

func leaveSignal(messageID, userID string) ReactionSignal {
	return ReactionSignal{MessageID: messageID, UserID: userID, Emoji: JoinEmoji, Kind: ReactionRemoved}
}

func TestRosterService_IgnoresOtherEmoji(t *testing.T) {
	svc, repo, _ := newRosterFixture(announcedRaid("r1", "m1", 6))

	sig := ReactionSignal{MessageID: "m1", UserID: "u1", Emoji: "👍", Kind: ReactionAdded}
	require.NoError(t, svc.HandleReaction(context.Background(), sig))

	assert.Empty(t, repo.stored("r1").Participants)
}

func TestRosterService_IgnoresUnknownMessage(t *testing.T) {
	svc, _, _ := newRosterFixture(announcedRaid("r1", "m1", 6))

	require.NoError(t, svc.HandleReaction(context.Background(), joinSignal("not-an-announcement", "u1")))
}

func TestRosterService_JoinAndLeave(t *testing.T) {
	svc, repo, _ := newRosterFixture(announcedRaid("r1", "m1", 6))
	ctx := context.Background()

	require.NoError(t, svc.HandleReaction(ctx, joinSignal("m1", "u1")))
	require.NoError(t, svc.HandleReaction(ctx, joinSignal("m1", "u2")))
	assert.Equal(t, []string{"u1", "u2"}, repo.stored("r1").Participants)

	require.NoError(t, svc.HandleReaction(ctx, leaveSignal("m1", "u1")))
	assert.Equal(t, []string{"u2"}, repo.stored("r1").Participants)
}

func TestRosterService_OverflowGoesToWaitlistAndPromotes(t *testing.T) {
	svc, repo, _ := newRosterFixture(announcedRaid("r1", "m1", 6))
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		require.NoError(t, svc.HandleReaction(ctx, joinSignal("m1", fmt.Sprintf("u%d", i))))
	}
	rd := repo.stored("r1")
	assert.Len(t, rd.Participants, 6)
	assert.Equal(t, []string{"u7", "u8"}, rd.Waitlist)

	// A participant leaving promotes the waitlist head in arrival order.
	require.NoError(t, svc.HandleReaction(ctx, leaveSignal("m1", "u3")))
	rd = repo.stored("r1")
	assert.Contains(t, rd.Participants, "u7")
	assert.Equal(t, []string{"u8"}, rd.Waitlist)
}

func TestRosterService_DuplicateJoinDoesNotWrite(t *testing.T) {
	rd := announcedRaid("r1", "m1", 6)
	rd.Participants = []string{"u1"}
	svc, repo, _ := newRosterFixture(rd)
	ctx := context.Background()

	require.NoError(t, svc.HandleReaction(ctx, joinSignal("m1", "u1")))

	assert.Equal(t, []string{"u1"}, repo.stored("r1").Participants)
}

func TestRosterService_LeaveByNonMemberIsNoop(t *testing.T) {
	rd := announcedRaid("r1", "m1", 6)
	rd.Participants = []string{"u1"}
	svc, repo, _ := newRosterFixture(rd)

	require.NoError(t, svc.HandleReaction(context.Background(), leaveSignal("m1", "stranger")))

	assert.Equal(t, []string{"u1"}, repo.stored("r1").Participants)
}

func TestRosterService_ConcurrentJoinsAllLandExactlyOnce(t *testing.T) {
	const joiners = 20
	svc, repo, _ := newRosterFixture(announcedRaid("r1", "m1", joiners))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, svc.HandleReaction(ctx, joinSignal("m1", fmt.Sprintf("u%d", i))))
		}(i)
	}
	wg.Wait()

	rd := repo.stored("r1")
	require.Len(t, rd.Participants, joiners, "a lost update dropped a joiner")
	seen := make(map[string]bool, joiners)
	for _, id := range rd.Participants {
		assert.False(t, seen[id], "user %s appears twice", id)
		seen[id] = true
	}
	assert.Empty(t, rd.Waitlist)
}

func TestRosterService_RosterGroupsByJob(t *testing.T) {
	rd := announcedRaid("r1", "m1", 6)
	rd.Participants = []string{"u1", "u2", "u3"}
	rd.Waitlist = []string{"u4"}

	repo := newFakeRaidRepo(rd)
	members := newFakeMemberRepo(
		&member.Member{DiscordID: "u1", Nickname: "아델", Level: 82, Job: "나이트로드"},
		&member.Member{DiscordID: "u2", Nickname: "세린", Level: 75, Job: "비숍"},
		&member.Member{DiscordID: "u3", Nickname: "도윤", Level: 80, Job: "나이트로드"},
	)
	svc := NewRosterService(repo, members, newTestLogger())

	roster, err := svc.Roster(context.Background(), "m1")
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u3"}, roster.Participants["나이트로드"])
	assert.Equal(t, []string{"u2"}, roster.Participants["비숍"])
	assert.Equal(t, []string{"u4"}, roster.Waitlist[UnknownJob], "unregistered user grouped under the fallback job")
}
