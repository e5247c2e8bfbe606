package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/member"
	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"
	idb "github.com/ksumini/mapleland-discord-bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeRaidRepo is an in-memory raid.Repository. Reads hand out deep copies
// so callers can only publish changes through explicit writes, like the
// real store.
type fakeRaidRepo struct {
	mu      sync.Mutex
	raids   map[string]*raid.Raid
	listErr error
}

func newFakeRaidRepo(raids ...*raid.Raid) *fakeRaidRepo {
	r := &fakeRaidRepo{raids: make(map[string]*raid.Raid)}
	for _, rd := range raids {
		r.raids[rd.ID] = rd
	}
	return r
}

func copyRaid(rd *raid.Raid) *raid.Raid {
	cp := *rd
	cp.Participants = append([]string(nil), rd.Participants...)
	cp.Waitlist = append([]string(nil), rd.Waitlist...)
	return &cp
}

func (r *fakeRaidRepo) Create(_ context.Context, rd *raid.Raid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.raids {
		if existing.ScheduledAt.Equal(rd.ScheduledAt) {
			return idb.ErrDuplicateSchedule
		}
	}
	rd.CreatedAt = time.Now()
	r.raids[rd.ID] = copyRaid(rd)
	return nil
}

func (r *fakeRaidRepo) GetByID(_ context.Context, id string) (*raid.Raid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.raids[id]
	if !ok {
		return nil, idb.ErrRaidNotFound
	}
	return copyRaid(rd), nil
}

func (r *fakeRaidRepo) GetByScheduledAt(_ context.Context, at time.Time) (*raid.Raid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rd := range r.raids {
		if rd.ScheduledAt.Equal(at) {
			return copyRaid(rd), nil
		}
	}
	return nil, idb.ErrRaidNotFound
}

func (r *fakeRaidRepo) GetByMessageID(_ context.Context, messageID string) (*raid.Raid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rd := range r.raids {
		if rd.MessageID == messageID {
			return copyRaid(rd), nil
		}
	}
	return nil, idb.ErrRaidNotFound
}

func (r *fakeRaidRepo) List(_ context.Context) ([]*raid.Raid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*raid.Raid, 0, len(r.raids))
	for _, rd := range r.raids {
		out = append(out, copyRaid(rd))
	}
	return out, nil
}

func (r *fakeRaidRepo) Update(_ context.Context, rd *raid.Raid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.raids[rd.ID]
	if !ok {
		return idb.ErrRaidNotFound
	}
	stored.ScheduledAt = rd.ScheduledAt
	stored.MaxParticipants = rd.MaxParticipants
	stored.Note = rd.Note
	return nil
}

func (r *fakeRaidRepo) UpdateMessageID(_ context.Context, id string, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.raids[id]
	if !ok {
		return idb.ErrRaidNotFound
	}
	rd.MessageID = messageID
	return nil
}

func (r *fakeRaidRepo) UpdateMembership(_ context.Context, id string, participants, waitlist []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.raids[id]
	if !ok {
		return idb.ErrRaidNotFound
	}
	rd.Participants = append([]string(nil), participants...)
	rd.Waitlist = append([]string(nil), waitlist...)
	return nil
}

func (r *fakeRaidRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.raids[id]; !ok {
		return idb.ErrRaidNotFound
	}
	delete(r.raids, id)
	return nil
}

func (r *fakeRaidRepo) stored(id string) *raid.Raid {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyRaid(r.raids[id])
}

// fakeNotifier records DMs and can fail selected recipients.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentDM
	failFor map[string]bool
}

type sentDM struct {
	UserID string
	Text   string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[string]bool)}
}

func (n *fakeNotifier) SendDirectMessage(userID string, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[userID] {
		return fmt.Errorf("user %s unreachable", userID)
	}
	n.sent = append(n.sent, sentDM{UserID: userID, Text: text})
	return nil
}

func (n *fakeNotifier) sentTo(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, dm := range n.sent {
		if dm.UserID == userID {
			count++
		}
	}
	return count
}

func (n *fakeNotifier) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// fakeAnnouncer records announcement lifecycle calls.
type fakeAnnouncer struct {
	nextMessageID string
	posted        []string
	edited        []string
	cancelled     []string
	postErr       error
}

func (a *fakeAnnouncer) PostAnnouncement(r *raid.Raid) (string, error) {
	if a.postErr != nil {
		return "", a.postErr
	}
	a.posted = append(a.posted, r.ID)
	return a.nextMessageID, nil
}

func (a *fakeAnnouncer) EditAnnouncement(r *raid.Raid) error {
	a.edited = append(a.edited, r.ID)
	return nil
}

func (a *fakeAnnouncer) CancelAnnouncement(r *raid.Raid) error {
	a.cancelled = append(a.cancelled, r.ID)
	return nil
}

// fakeMemberRepo is an in-memory member.Repository.
type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[string]*member.Member
}

func newFakeMemberRepo(members ...*member.Member) *fakeMemberRepo {
	r := &fakeMemberRepo{members: make(map[string]*member.Member)}
	for _, m := range members {
		r.members[m.DiscordID] = m
	}
	return r
}

func (r *fakeMemberRepo) Upsert(_ context.Context, m *member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.members[m.DiscordID] = &cp
	return nil
}

func (r *fakeMemberRepo) GetByDiscordID(_ context.Context, discordID string) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[discordID]
	if !ok {
		return nil, idb.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMemberRepo) GetByNickname(_ context.Context, nickname string) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Nickname == nickname {
			cp := *m
			return &cp, nil
		}
	}
	return nil, idb.ErrMemberNotFound
}

func (r *fakeMemberRepo) ListAll(_ context.Context) ([]*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*member.Member, 0, len(r.members))
	for _, m := range r.members {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}
