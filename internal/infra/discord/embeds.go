package discord

import (
	"fmt"
	"strings"

	"github.com/ksumini/mapleland-discord-bot/internal/app"
	"github.com/ksumini/mapleland-discord-bot/internal/domain/distribution"
	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"

	"github.com/bwmarrin/discordgo"
)

const (
	colorOrange  = 0xE67E22
	colorRed     = 0xE74C3C
	colorGreen   = 0x2ECC71
	colorBlurple = 0x5865F2

	divider = "━━━━━━━━━━━━━━━━━━━━━━━━━━"

	// joinEmojiName mirrors app.JoinEmoji; discordgo reaction endpoints
	// take the bare emoji name.
	joinEmojiName = "✅"

	rosterButtonID = "show_participants"
)

// weekdaysKo maps time.Weekday to the short Korean day name.
var weekdaysKo = [...]string{"일", "월", "화", "수", "목", "금", "토"}

func formatSchedule(r *raid.Raid) string {
	at := r.ScheduledAt
	return fmt.Sprintf("%s (%s) %s", at.Format("2006-01-02"), weekdaysKo[at.Weekday()], at.Format("15:04"))
}

func noteOrDefault(note string) string {
	if strings.TrimSpace(note) == "" {
		return "지금부터 참여 신청 받습니다!"
	}
	return note
}

func announcementEmbed(r *raid.Raid, edited bool) *discordgo.MessageEmbed {
	title := "🔔 New 자쿰 공대 일정 생성!"
	if edited {
		title = "🔔 변경사항이 있습니다!"
	}
	description := fmt.Sprintf(
		"%s\n📅 **일시:** %s\n👥 **최대 인원:** %d명\n\n📝 **특이사항:**\n%s\n%s\n✅ 눌러 참여 신청하세요!",
		divider, formatSchedule(r), r.MaxParticipants, noteOrDefault(r.Note), divider,
	)
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorOrange,
	}
}

func cancelledEmbed(r *raid.Raid) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ 일정이 취소되었습니다",
		Description: fmt.Sprintf("해당 일정 (%s)은 취소되었습니다.", formatSchedule(r)),
		Color:       colorRed,
	}
}

func scheduleEmbed(raids []*raid.Raid) *discordgo.MessageEmbed {
	var b strings.Builder
	for _, r := range raids {
		fmt.Fprintf(&b, "%s\n📅 **%s**\n- **참여**: %d / %d\n- **대기자**: %d명\n- **특이사항**:\n%s\n",
			divider, formatSchedule(r), len(r.Participants), r.MaxParticipants, len(r.Waitlist), noteOrDefault(r.Note))
	}
	return &discordgo.MessageEmbed{
		Title:       "📋 자쿰 일정 목록",
		Description: b.String(),
		Color:       colorBlurple,
	}
}

func formatGrouped(grouped map[string][]string) string {
	if len(grouped) == 0 {
		return "없음"
	}
	var b strings.Builder
	for job, userIDs := range grouped {
		mentions := make([]string, len(userIDs))
		for i, id := range userIDs {
			mentions[i] = "<@" + id + ">"
		}
		fmt.Fprintf(&b, "- %s: %s\n", job, strings.Join(mentions, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func rosterEmbed(roster *app.GroupedRoster) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📋 자쿰 공대 참여 명단",
		Description: fmt.Sprintf("**일정:** %s\n**최대 인원:** %d명", formatSchedule(roster.Raid), roster.Raid.MaxParticipants),
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "✅ 참여자", Value: formatGrouped(roster.Participants)},
			{Name: "🕐 대기자", Value: formatGrouped(roster.Waitlist)},
		},
	}
}

func distributionEmbed(d *distribution.Distribution) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("정산: %s", d.Title),
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "날짜", Value: d.RaidDate.Format("2006-01-02"), Inline: true},
			{Name: "정산 상태", Value: d.Status, Inline: true},
			{Name: "참여자 수", Value: fmt.Sprintf("%d", d.ParticipantCount), Inline: true},
			{Name: "총 수익", Value: formatMeso(d.TotalProfit), Inline: true},
			{Name: "인당 분배금", Value: formatMeso(d.PerPerson), Inline: true},
		},
	}
}

// formatMeso renders an amount with thousands separators, e.g. 1,234,567원.
func formatMeso(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out + "원"
}

func rosterButtonRow() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "📋 참여자 명단 보기",
					Style:    discordgo.PrimaryButton,
					CustomID: rosterButtonID,
				},
			},
		},
	}
}
