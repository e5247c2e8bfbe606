package discord

import (
	"fmt"

	"github.com/ksumini/mapleland-discord-bot/internal/domain/raid"

	"github.com/bwmarrin/discordgo"
)

// NewSession creates the Discord gateway session with the intents the bot
// needs: guilds and members for nickname management, reactions for the
// join/leave toggle.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions
	return session, nil
}

// SessionNotifier implements the domain Notifier interface over a discordgo
// session. Each send opens (or reuses) the recipient's DM channel.
type SessionNotifier struct {
	session *discordgo.Session
}

func NewSessionNotifier(s *discordgo.Session) *SessionNotifier {
	return &SessionNotifier{session: s}
}

func (n *SessionNotifier) SendDirectMessage(userID string, text string) error {
	channel, err := n.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("failed to open DM channel for user %s: %w", userID, err)
	}
	if _, err := n.session.ChannelMessageSend(channel.ID, text); err != nil {
		return fmt.Errorf("failed to DM user %s: %w", userID, err)
	}
	return nil
}

// ChannelAnnouncer posts and maintains raid announcements in the configured
// announcement channel.
type ChannelAnnouncer struct {
	session   *discordgo.Session
	channelID string
}

func NewChannelAnnouncer(s *discordgo.Session, channelID string) *ChannelAnnouncer {
	return &ChannelAnnouncer{session: s, channelID: channelID}
}

func (a *ChannelAnnouncer) PostAnnouncement(r *raid.Raid) (string, error) {
	msg, err := a.session.ChannelMessageSendComplex(a.channelID, &discordgo.MessageSend{
		Embed:      announcementEmbed(r, false),
		Components: rosterButtonRow(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to post announcement: %w", err)
	}
	// Seed the join reaction so members only have to click it.
	if err := a.session.MessageReactionAdd(a.channelID, msg.ID, joinEmojiName); err != nil {
		return "", fmt.Errorf("failed to seed join reaction: %w", err)
	}
	return msg.ID, nil
}

func (a *ChannelAnnouncer) EditAnnouncement(r *raid.Raid) error {
	if r.MessageID == "" {
		return fmt.Errorf("raid %s has no announcement message", r.ID)
	}
	if _, err := a.session.ChannelMessageEditEmbed(a.channelID, r.MessageID, announcementEmbed(r, true)); err != nil {
		return fmt.Errorf("failed to edit announcement: %w", err)
	}
	return nil
}

func (a *ChannelAnnouncer) CancelAnnouncement(r *raid.Raid) error {
	if r.MessageID == "" {
		return fmt.Errorf("raid %s has no announcement message", r.ID)
	}
	if _, err := a.session.ChannelMessageEditEmbed(a.channelID, r.MessageID, cancelledEmbed(r)); err != nil {
		return fmt.Errorf("failed to cancel announcement: %w", err)
	}
	return nil
}
