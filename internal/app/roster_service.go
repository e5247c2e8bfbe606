package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/member"
	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"
	idb "github.com/ksumini/mapleland-discord-bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// JoinEmoji is the reaction members toggle on the announcement message to
// join or leave a raid. Any other emoji is ignored.
const JoinEmoji = "✅"

// UnknownJob groups roster entries whose user never registered a profile.
const UnknownJob = "기타"

// ReactionKind distinguishes reaction-added from reaction-removed signals.
type ReactionKind int

const (
	ReactionAdded ReactionKind = iota
	ReactionRemoved
)

// ReactionSignal is one reaction toggle reported by the platform.
type ReactionSignal struct {
	MessageID string // raid announcement reference
	UserID    string
	Emoji     string
	Kind      ReactionKind
}

// RosterService applies join/leave transitions to raid membership lists.
//
// The read-modify-write on a raid's two lists is not transactionally
// isolated in the store, so transitions are serialized per announcement
// message with a keyed mutex; signals for different raids proceed in
// parallel. The write replaces both lists at once (last writer wins), which
// is safe under that serialization.
type RosterService struct {
	raidRepo   raid.Repository
	memberRepo member.Repository
	logger     *logrus.Entry

	mu    sync.Mutex
	locks map[string]*sync.Mutex // keyed by announcement message ID
}

func NewRosterService(rr raid.Repository, mr member.Repository, logger *logrus.Entry) *RosterService {
	return &RosterService{
		raidRepo:   rr,
		memberRepo: mr,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *RosterService) lockFor(messageID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[messageID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[messageID] = l
	}
	return l
}

// HandleReaction applies one reaction toggle. Signals for a non-join emoji
// or with no matching raid are ignored, not errors.
func (s *RosterService) HandleReaction(ctx context.Context, sig ReactionSignal) error {
	if sig.Emoji != JoinEmoji {
		return nil
	}

	l := s.lockFor(sig.MessageID)
	l.Lock()
	defer l.Unlock()

	// Read inside the lock so concurrent signals for the same raid never
	// base their transition on the same pre-mutation state.
	rd, err := s.raidRepo.GetByMessageID(ctx, sig.MessageID)
	if err != nil {
		if err == idb.ErrRaidNotFound {
			return nil
		}
		return fmt.Errorf("failed to load raid for reaction: %w", err)
	}

	var changed bool
	switch sig.Kind {
	case ReactionAdded:
		changed = rd.Join(sig.UserID)
	case ReactionRemoved:
		changed = rd.Leave(sig.UserID)
	}
	if !changed {
		return nil
	}

	if err := s.raidRepo.UpdateMembership(ctx, rd.ID, rd.Participants, rd.Waitlist); err != nil {
		return fmt.Errorf("failed to write membership for raid %s: %w", rd.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"raid_id":      rd.ID,
		"user_id":      sig.UserID,
		"kind":         sig.Kind,
		"participants": len(rd.Participants),
		"waitlist":     len(rd.Waitlist),
	}).Info("Membership updated")
	return nil
}

// GroupedRoster is a raid's membership grouped by registered job for display.
type GroupedRoster struct {
	Raid         *raid.Raid
	Participants map[string][]string // job -> user IDs, join order preserved
	Waitlist     map[string][]string
}

// Roster loads the raid behind an announcement message and groups its
// membership by job. Users without a profile land under UnknownJob.
func (s *RosterService) Roster(ctx context.Context, messageID string) (*GroupedRoster, error) {
	rd, err := s.raidRepo.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members for roster: %w", err)
	}
	byID := make(map[string]*member.Member, len(members))
	for _, m := range members {
		byID[m.DiscordID] = m
	}

	group := func(userIDs []string) map[string][]string {
		grouped := make(map[string][]string)
		for _, id := range userIDs {
			job := UnknownJob
			if m, ok := byID[id]; ok {
				job = m.Job
			}
			grouped[job] = append(grouped[job], id)
		}
		return grouped
	}

	return &GroupedRoster{
		Raid:         rd,
		Participants: group(rd.Participants),
		Waitlist:     group(rd.Waitlist),
	}, nil
}
