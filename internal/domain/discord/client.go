package discord

import "github.com/ksumini/mapleland-discord-bot/internal/domain/raid"

// Notifier sends a direct message to a single user. Implementations must not
// let one unreachable recipient affect any other; the caller decides what to
// do with the returned error (typically log and continue).
type Notifier interface {
	SendDirectMessage(userID string, text string) error
}

// Announcer posts and maintains raid announcement messages in the
// configured announcement channel.
type Announcer interface {
	// PostAnnouncement publishes the announcement embed, seeds the join
	// reaction and returns the message ID.
	PostAnnouncement(r *raid.Raid) (messageID string, err error)
	// EditAnnouncement rewrites the announcement embed after a raid edit.
	EditAnnouncement(r *raid.Raid) error
	// CancelAnnouncement replaces the announcement embed with a cancelled notice.
	CancelAnnouncement(r *raid.Raid) error
}
