package raid

import "time"

// MinParticipants is the smallest party size an administrator may configure.
const MinParticipants = 6

// Raid represents one scheduled raid party.
// Corresponds to the 'raids' table.
type Raid struct {
	ID              string    // UUID, assigned at creation
	ScheduledAt     time.Time // civil time in the bot's configured timezone; unique among raids
	MaxParticipants int
	Note            string
	Participants    []string // Discord user IDs, insertion order = join order
	Waitlist        []string // Discord user IDs, FIFO
	MessageID       string   // announcement message reference; set shortly after creation
	CreatedAt       time.Time
}

// Contains reports whether the user is present in either membership list.
func (r *Raid) Contains(userID string) bool {
	for _, id := range r.Participants {
		if id == userID {
			return true
		}
	}
	for _, id := range r.Waitlist {
		if id == userID {
			return true
		}
	}
	return false
}

// Join applies a join signal. Duplicate or replayed signals are no-ops.
// When the party is full the user goes to the end of the waitlist.
// It returns true if the membership lists changed.
func (r *Raid) Join(userID string) bool {
	if r.Contains(userID) {
		return false
	}
	if len(r.Participants) < r.MaxParticipants {
		r.Participants = append(r.Participants, userID)
	} else {
		r.Waitlist = append(r.Waitlist, userID)
	}
	return true
}

// Leave applies a leave signal. Removing a participant promotes the head of
// the waitlist into the freed slot. A user present in neither list is a no-op.
// It returns true if the membership lists changed.
func (r *Raid) Leave(userID string) bool {
	if i := index(r.Participants, userID); i >= 0 {
		r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
		if len(r.Waitlist) > 0 {
			promoted := r.Waitlist[0]
			r.Waitlist = r.Waitlist[1:]
			r.Participants = append(r.Participants, promoted)
		}
		return true
	}
	if i := index(r.Waitlist, userID); i >= 0 {
		r.Waitlist = append(r.Waitlist[:i], r.Waitlist[i+1:]...)
		return true
	}
	return false
}

func index(list []string, userID string) int {
	for i, id := range list {
		if id == userID {
			return i
		}
	}
	return -1
}
