package discord

import (
	"fmt"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/member"

	"github.com/bwmarrin/discordgo"
)

// Slash command names, kept identical to what guild members already know.
const (
	cmdCreateRaid   = "일정생성"
	cmdEditRaid     = "일정수정"
	cmdDeleteRaid   = "일정삭제"
	cmdShowRaids    = "일정확인"
	cmdRegister     = "공대원등록"
	cmdDistribution = "분배금정산"
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	jobChoices := make([]*discordgo.ApplicationCommandOptionChoice, len(member.Jobs))
	for i, job := range member.Jobs {
		jobChoices[i] = &discordgo.ApplicationCommandOptionChoice{Name: job, Value: job}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdCreateRaid,
			Description: "자쿰 공대 일정을 생성합니다. (관리자 전용)",
		},
		{
			Name:        cmdEditRaid,
			Description: "자쿰 공대 일정을 수정합니다. (관리자 전용)",
		},
		{
			Name:        cmdDeleteRaid,
			Description: "자쿰 공대 일정을 삭제합니다. (관리자 전용)",
		},
		{
			Name:        cmdShowRaids,
			Description: "현재 등록된 자쿰 일정들을 확인합니다.",
		},
		{
			Name:        cmdRegister,
			Description: "공대원 등록 또는 정보 수정",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "아이디",
					Description: "메이플 아이디",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "렙",
					Description: "레벨 (숫자)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "직업",
					Description: "직업",
					Required:    true,
					Choices:     jobChoices,
				},
			},
		},
		{
			Name:        cmdDistribution,
			Description: "정산 정보를 불러옵니다.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "날짜",
					Description: "YYYY-MM-DD 형식 (예: 2025-07-27)",
					Required:    true,
				},
			},
		},
	}
}

// RegisterCommands creates the global application commands. Must be called
// after the session is open so the application ID is known.
func RegisterCommands(s *discordgo.Session) error {
	for _, cmd := range commandDefinitions() {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
	}
	return nil
}
