package member

import (
	"fmt"
	"time"
)

// Member is a registered guild member profile.
// Corresponds to the 'members' table.
type Member struct {
	DiscordID string // platform identity, primary key
	Nickname  string // in-game ID, unique across members
	Level     int
	Job       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Jobs is the fixed set of selectable classes, in display order.
var Jobs = []string{
	"다크나이트",
	"나이트로드",
	"보우마스터",
	"비숍",
	"신궁",
	"섀도어",
	"팔라딘",
	"히어로",
}

// GuildNick renders the nickname the bot assigns in the guild.
func (m *Member) GuildNick() string {
	return fmt.Sprintf("%s/%d/%s", m.Nickname, m.Level, m.Job)
}
