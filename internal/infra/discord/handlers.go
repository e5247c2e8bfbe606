package discord

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ksumini/mapleland-discord-bot/internal/app"
	idb "github.com/ksumini/mapleland-discord-bot/internal/infra/database"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// interactionTimeout bounds store lookups done while a user is waiting on an
// interaction response.
const interactionTimeout = 10 * time.Second

// selectLimit is Discord's cap on options in one select menu.
const selectLimit = 25

const (
	modalCreateRaid     = "raid_create_modal"
	modalEditRaidPrefix = "raid_edit_modal:"
	selectEditRaid      = "raid_edit_select"
	selectDeleteRaid    = "raid_delete_select"
)

// Handler routes Discord gateway events to the application services.
type Handler struct {
	raidSvc   *app.RaidService
	rosterSvc *app.RosterService
	memberSvc *app.MemberService
	distSvc   *app.DistributionService
	tz        *time.Location
	logger    *logrus.Entry
}

func NewHandler(
	raidSvc *app.RaidService,
	rosterSvc *app.RosterService,
	memberSvc *app.MemberService,
	distSvc *app.DistributionService,
	tz *time.Location,
	logger *logrus.Entry,
) *Handler {
	return &Handler{
		raidSvc:   raidSvc,
		rosterSvc: rosterSvc,
		memberSvc: memberSvc,
		distSvc:   distSvc,
		tz:        tz,
		logger:    logger,
	}
}

// Register attaches all gateway event handlers to the session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.onReady)
	s.AddHandler(h.onInteraction)
	s.AddHandler(h.onReactionAdd)
	s.AddHandler(h.onReactionRemove)
}

func (h *Handler) onReady(s *discordgo.Session, r *discordgo.Ready) {
	h.logger.WithField("user", r.User.String()).Info("Discord gateway ready")
}

// --- Reaction toggle signals ---

func (h *Handler) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}
	h.handleReaction(app.ReactionSignal{
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
		Kind:      app.ReactionAdded,
	})
}

func (h *Handler) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.UserID == s.State.User.ID {
		return
	}
	h.handleReaction(app.ReactionSignal{
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
		Kind:      app.ReactionRemoved,
	})
}

func (h *Handler) handleReaction(sig app.ReactionSignal) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	if err := h.rosterSvc.HandleReaction(ctx, sig); err != nil {
		h.logger.WithFields(logrus.Fields{
			"message_id": sig.MessageID,
			"user_id":    sig.UserID,
		}).WithError(err).Error("Failed to process reaction signal")
	}
}

// --- Interaction routing ---

func (h *Handler) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case cmdCreateRaid:
			h.openCreateModal(s, i)
		case cmdEditRaid:
			h.openRaidSelect(s, i, selectEditRaid, "📋 수정할 일정을 선택하세요")
		case cmdDeleteRaid:
			h.openRaidSelect(s, i, selectDeleteRaid, "🗑 삭제할 일정을 선택하세요")
		case cmdShowRaids:
			h.showRaids(s, i)
		case cmdRegister:
			h.registerMember(s, i)
		case cmdDistribution:
			h.lookupDistribution(s, i)
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		switch {
		case data.CustomID == modalCreateRaid:
			h.submitCreateModal(s, i)
		case strings.HasPrefix(data.CustomID, modalEditRaidPrefix):
			h.submitEditModal(s, i, strings.TrimPrefix(data.CustomID, modalEditRaidPrefix))
		}
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		switch data.CustomID {
		case selectEditRaid:
			h.openEditModal(s, i, data.Values[0])
		case selectDeleteRaid:
			h.deleteRaid(s, i, data.Values[0])
		case rosterButtonID:
			h.showRoster(s, i)
		}
	}
}

// --- Raid administration ---

func (h *Handler) openCreateModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		h.respondText(s, i, "❌ 이 명령어는 관리자만 사용할 수 있어요.")
		return
	}
	h.respondModal(s, i, modalCreateRaid, "자쿰 공대 일정 생성", raidModalInputs("", "", "", ""))
}

func (h *Handler) submitCreateModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		h.respondText(s, i, "❌ 이 명령어는 관리자만 사용할 수 있어요.")
		return
	}

	in, err := parseRaidModal(i.ModalSubmitData())
	if err != nil {
		h.respondText(s, i, "❌ 날짜, 시간 또는 인원 형식이 잘못되었습니다.")
		return
	}
	scheduledAt, err := h.raidSvc.ParseSchedule(in.date, in.time)
	if err != nil {
		h.respondText(s, i, "❌ 날짜, 시간 또는 인원 형식이 잘못되었습니다.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	_, err = h.raidSvc.CreateRaid(ctx, scheduledAt, in.maxParticipants, in.note)
	switch err {
	case nil:
		h.respondText(s, i, "✅ 공대 일정이 생성되었고, 공지 채널에 안내 메시지를 보냈어요!")
	case app.ErrPastSchedule:
		h.respondText(s, i, "❌ 과거 시점의 일정은 생성할 수 없습니다.")
	case app.ErrCapacityTooSmall:
		h.respondText(s, i, "❌ 최소 인원은 6명 이상이어야 합니다.")
	case app.ErrScheduleConflict:
		h.respondText(s, i, "⚠️ 이미 해당 시각의 일정이 존재합니다.")
	default:
		h.logger.WithError(err).Error("Failed to create raid")
		h.respondText(s, i, "❌ 일정 생성 중 오류가 발생했습니다.")
	}
}

// openRaidSelect answers the edit/delete commands with a dropdown of
// existing raids, newest first.
func (h *Handler) openRaidSelect(s *discordgo.Session, i *discordgo.InteractionCreate, customID, prompt string) {
	if !isAdmin(i) {
		h.respondText(s, i, "❌ 관리자만 사용할 수 있습니다.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	raids, err := h.raidSvc.ListRaids(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list raids for select")
		h.respondText(s, i, "❌ 일정 목록을 불러오지 못했습니다.")
		return
	}
	if len(raids) == 0 {
		h.respondText(s, i, "⚠️ 대상 일정이 없습니다.")
		return
	}

	// Newest first, capped at Discord's option limit.
	options := make([]discordgo.SelectMenuOption, 0, selectLimit)
	for idx := len(raids) - 1; idx >= 0 && len(options) < selectLimit; idx-- {
		options = append(options, discordgo.SelectMenuOption{
			Label: formatSchedule(raids[idx]),
			Value: raids[idx].ID,
		})
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: prompt,
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{CustomID: customID, Options: options},
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to send raid select")
	}
}

func (h *Handler) openEditModal(s *discordgo.Session, i *discordgo.InteractionCreate, raidID string) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	rd, err := h.raidSvc.GetRaid(ctx, raidID)
	if err != nil {
		h.respondText(s, i, "❌ 해당 일정이 존재하지 않습니다.")
		return
	}

	h.respondModal(s, i, modalEditRaidPrefix+raidID, "자쿰 일정 수정", raidModalInputs(
		rd.ScheduledAt.Format("2006-01-02"),
		rd.ScheduledAt.Format("15:04"),
		strconv.Itoa(rd.MaxParticipants),
		rd.Note,
	))
}

func (h *Handler) submitEditModal(s *discordgo.Session, i *discordgo.InteractionCreate, raidID string) {
	if !isAdmin(i) {
		h.respondText(s, i, "❌ 관리자만 수정할 수 있습니다.")
		return
	}

	in, err := parseRaidModal(i.ModalSubmitData())
	if err != nil {
		h.respondText(s, i, "❌ 형식이 잘못되었습니다.")
		return
	}
	scheduledAt, err := h.raidSvc.ParseSchedule(in.date, in.time)
	if err != nil {
		h.respondText(s, i, "❌ 형식이 잘못되었습니다.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	rd, err := h.raidSvc.EditRaid(ctx, raidID, scheduledAt, in.maxParticipants, in.note)
	switch err {
	case nil:
		h.respondText(s, i, "✅ `"+formatSchedule(rd)+"` 일정이 성공적으로 수정되었습니다!")
	case app.ErrCapacityTooSmall:
		h.respondText(s, i, "❌ 최소 인원은 6명 이상이어야 합니다.")
	case app.ErrScheduleConflict:
		h.respondText(s, i, "⚠️ 수정하려는 일정이 이미 존재합니다.")
	case idb.ErrRaidNotFound:
		h.respondText(s, i, "❌ 해당 일정이 존재하지 않습니다.")
	default:
		h.logger.WithError(err).Error("Failed to edit raid")
		h.respondText(s, i, "❌ 일정 수정 중 오류가 발생했습니다.")
	}
}

func (h *Handler) deleteRaid(s *discordgo.Session, i *discordgo.InteractionCreate, raidID string) {
	if !isAdmin(i) {
		h.respondText(s, i, "❌ 관리자만 사용할 수 있습니다.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	rd, err := h.raidSvc.DeleteRaid(ctx, raidID)
	switch err {
	case nil:
		h.respondText(s, i, "✅ `"+formatSchedule(rd)+"` 일정이 삭제되었습니다.")
	case idb.ErrRaidNotFound:
		h.respondText(s, i, "❌ 해당 일정이 존재하지 않습니다.")
	default:
		h.logger.WithError(err).Error("Failed to delete raid")
		h.respondText(s, i, "❌ 일정 삭제 중 오류가 발생했습니다.")
	}
}

func (h *Handler) showRaids(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	raids, err := h.raidSvc.ListRaids(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list raids")
		h.respondText(s, i, "❌ 일정 목록을 불러오지 못했습니다.")
		return
	}
	if len(raids) == 0 {
		h.respondText(s, i, "📭 등록된 일정이 없습니다.")
		return
	}
	h.respondEmbed(s, i, scheduleEmbed(raids))
}

func (h *Handler) showRoster(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	roster, err := h.rosterSvc.Roster(ctx, i.Message.ID)
	if err != nil {
		if err == idb.ErrRaidNotFound {
			h.respondText(s, i, "❌ 해당 일정 정보를 찾을 수 없습니다😭")
			return
		}
		h.logger.WithError(err).Error("Failed to build roster")
		h.respondText(s, i, "❌ 명단을 불러오지 못했습니다.")
		return
	}
	h.respondEmbed(s, i, rosterEmbed(roster))
}

// --- Member registration ---

func (h *Handler) registerMember(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil {
		h.respondText(s, i, "❌ 서버 안에서만 사용할 수 있는 명령어입니다.")
		return
	}
	userID := i.Member.User.ID

	opts := optionMap(i.ApplicationCommandData().Options)
	nickname := opts["아이디"].StringValue()
	level := int(opts["렙"].IntValue())
	job := opts["직업"].StringValue()

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	m, isNew, err := h.memberSvc.Register(ctx, userID, nickname, level, job)
	if err != nil {
		if err == app.ErrNicknameTaken {
			h.respondText(s, i, "⚠️ `"+nickname+"`는 이미 다른 유저가 등록한 아이디입니다.")
			return
		}
		h.logger.WithError(err).Error("Failed to register member")
		h.respondText(s, i, "❌ 등록 중 오류가 발생했습니다.")
		return
	}

	nick := m.GuildNick()
	if ownerID := h.guildOwnerID(s, i.GuildID); ownerID == userID {
		h.respondText(s, i, "👑 서버 소유자의 닉네임은 봇이 수정할 수 없어요.\n대신 수동으로 `"+nick+"`으로 바꿔주세요!")
		return
	}
	if err := s.GuildMemberNickname(i.GuildID, userID, nick); err != nil {
		h.logger.WithField("user_id", userID).WithError(err).Warn("Failed to set guild nickname")
		h.respondText(s, i, "⚠️ 등록은 완료됐지만 닉네임을 수정할 권한이 없어요!")
		return
	}

	if isNew {
		h.respondText(s, i, "✅ 등록 완료: `"+nick+"`")
	} else {
		h.respondText(s, i, "🔄 정보 수정 완료: `"+nick+"`")
	}
}

func (h *Handler) guildOwnerID(s *discordgo.Session, guildID string) string {
	if g, err := s.State.Guild(guildID); err == nil {
		return g.OwnerID
	}
	if g, err := s.Guild(guildID); err == nil {
		return g.OwnerID
	}
	return ""
}

// --- Distribution lookup ---

func (h *Handler) lookupDistribution(s *discordgo.Session, i *discordgo.InteractionCreate) {
	dateStr := optionMap(i.ApplicationCommandData().Options)["날짜"].StringValue()
	date, err := time.ParseInLocation("2006-01-02", dateStr, h.tz)
	if err != nil {
		h.respondText(s, i, "날짜 형식이 올바르지 않습니다. (YYYY-MM-DD)")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	d, err := h.distSvc.Lookup(ctx, date)
	if err != nil {
		if err == idb.ErrDistributionNotFound {
			h.respondText(s, i, "해당 날짜의 정산 정보를 찾을 수 없습니다.")
			return
		}
		h.logger.WithError(err).Error("Failed to look up distribution")
		h.respondText(s, i, "❌ 정산 정보를 불러오지 못했습니다.")
		return
	}
	h.respondEmbed(s, i, distributionEmbed(d))
}

// --- Helpers ---

func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func (h *Handler) respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to respond to interaction")
	}
}

func (h *Handler) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to respond with embed")
	}
}

func (h *Handler) respondModal(s *discordgo.Session, i *discordgo.InteractionCreate, customID, title string, components []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: components,
		},
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to open modal")
	}
}

type raidModalInput struct {
	date            string
	time            string
	maxParticipants int
	note            string
}

func raidModalInputs(date, timeStr, maxParticipants, note string) []discordgo.MessageComponent {
	row := func(input discordgo.TextInput) discordgo.MessageComponent {
		return discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}}
	}
	return []discordgo.MessageComponent{
		row(discordgo.TextInput{
			CustomID:    "date",
			Label:       "📅 날짜 (예: 2025-08-10)",
			Style:       discordgo.TextInputShort,
			Placeholder: "YYYY-MM-DD",
			Required:    true,
			Value:       date,
		}),
		row(discordgo.TextInput{
			CustomID:    "time",
			Label:       "⏰ 시간 (예: 21:00)",
			Style:       discordgo.TextInputShort,
			Placeholder: "HH:MM",
			Required:    true,
			Value:       timeStr,
		}),
		row(discordgo.TextInput{
			CustomID:    "max_participants",
			Label:       "👥 최대 인원",
			Style:       discordgo.TextInputShort,
			Placeholder: "숫자만 입력",
			Required:    true,
			MaxLength:   2,
			Value:       maxParticipants,
		}),
		row(discordgo.TextInput{
			CustomID: "note",
			Label:    "📝 특이사항 (예: 듀블 우대, 연습 공대 등)",
			Style:    discordgo.TextInputParagraph,
			Required: false,
			Value:    note,
		}),
	}
}

func parseRaidModal(data discordgo.ModalSubmitInteractionData) (raidModalInput, error) {
	values := make(map[string]string)
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}

	maxParticipants, err := strconv.Atoi(strings.TrimSpace(values["max_participants"]))
	if err != nil {
		return raidModalInput{}, err
	}
	return raidModalInput{
		date:            strings.TrimSpace(values["date"]),
		time:            strings.TrimSpace(values["time"]),
		maxParticipants: maxParticipants,
		note:            strings.TrimSpace(values["note"]),
	}, nil
}
