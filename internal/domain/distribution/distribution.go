package distribution

import "time"

// Distribution is one profit-distribution record for a raid date.
// Corresponds to the 'distributions' table; rows are written by the
// treasurer's tooling, the bot only reads them.
type Distribution struct {
	ID               int64
	RaidDate         time.Time // date only
	Title            string
	Status           string // e.g. "정산 완료", "진행 중"
	ParticipantCount int
	TotalProfit      int64 // in meso
	PerPerson        int64 // in meso
	CreatedAt        time.Time
}
