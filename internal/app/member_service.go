package app

import (
	"context"
	"fmt"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/member"
	idb "github.com/ksumini/mapleland-discord-bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// ErrNicknameTaken means the in-game ID is already registered to another member.
var ErrNicknameTaken = fmt.Errorf("nickname already registered by another member")

// MemberService handles self-service profile registration.
type MemberService struct {
	memberRepo member.Repository
	logger     *logrus.Entry
}

func NewMemberService(mr member.Repository, logger *logrus.Entry) *MemberService {
	return &MemberService{memberRepo: mr, logger: logger}
}

// Register creates or updates the caller's profile. It returns the stored
// profile and whether this was a first registration (as opposed to an edit).
func (s *MemberService) Register(ctx context.Context, discordID, nickname string, level int, job string) (*member.Member, bool, error) {
	existing, err := s.memberRepo.GetByNickname(ctx, nickname)
	if err == nil && existing.DiscordID != discordID {
		return nil, false, ErrNicknameTaken
	}
	if err != nil && err != idb.ErrMemberNotFound {
		return nil, false, fmt.Errorf("failed to check nickname: %w", err)
	}

	isNew := true
	if _, err := s.memberRepo.GetByDiscordID(ctx, discordID); err == nil {
		isNew = false
	} else if err != idb.ErrMemberNotFound {
		return nil, false, fmt.Errorf("failed to check existing profile: %w", err)
	}

	m := &member.Member{
		DiscordID: discordID,
		Nickname:  nickname,
		Level:     level,
		Job:       job,
	}
	if err := s.memberRepo.Upsert(ctx, m); err != nil {
		return nil, false, fmt.Errorf("failed to save profile: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"discord_id": discordID,
		"nickname":   nickname,
		"is_new":     isNew,
	}).Info("Member profile saved")
	return m, isNew, nil
}
