package model

import (
	"slices"
	"sync"

	"github.com/secmon-lab/bailiff/pkg/domain/types"
)

// Ballot is the attendance set of one session vote. It lives in process
// memory only and is safe for concurrent use.
type Ballot struct {
	ChannelID string
	RecordID  RecordID

	mu        sync.Mutex
	attendees []string // actor IDs in first-signal order
}

// NewBallot creates an empty ballot for a session vote panel
func NewBallot(channelID string, id RecordID) *Ballot {
	return &Ballot{ChannelID: channelID, RecordID: id}
}

// Toggle flips the actor's membership and returns the new state
func (b *Ballot) Toggle(actorID string) types.Attendance {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := slices.Index(b.attendees, actorID); i >= 0 {
		b.attendees = slices.Delete(b.attendees, i, i+1)
		return types.AttendanceAbsent
	}
	b.attendees = append(b.attendees, actorID)
	return types.AttendancePresent
}

// Attendees returns a snapshot of the attendee IDs
func (b *Ballot) Attendees() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.attendees)
}
