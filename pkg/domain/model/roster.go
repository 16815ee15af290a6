package model

import (
	"slices"
	"time"
)

// Player is one entry of the game server roster
type Player struct {
	Username string `json:"Username"`
}

// Roster is the set of usernames observed in one poll
type Roster map[string]struct{}

// NewRoster builds a roster from a player list. Duplicates collapse and
// empty usernames are dropped.
func NewRoster(players []Player) Roster {
	r := make(Roster, len(players))
	for _, p := range players {
		if p.Username == "" {
			continue
		}
		r[p.Username] = struct{}{}
	}
	return r
}

// Usernames returns the roster members in sorted order
func (r Roster) Usernames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Diff returns who joined and who left between prev and r, both sorted
func (r Roster) Diff(prev Roster) (joined, left []string) {
	for name := range r {
		if _, ok := prev[name]; !ok {
			joined = append(joined, name)
		}
	}
	for name := range prev {
		if _, ok := r[name]; !ok {
			left = append(left, name)
		}
	}
	slices.Sort(joined)
	slices.Sort(left)
	return joined, left
}

// RosterSnapshot is the last successful roster observation. A zero
// snapshot has not been seeded yet.
type RosterSnapshot struct {
	Roster     Roster
	ObservedAt time.Time
}

// Seeded reports whether a successful observation has been recorded
func (s *RosterSnapshot) Seeded() bool {
	return s != nil && s.Roster != nil
}

// RosterEventPanel renders a join or leave notice for the roster log
func RosterEventPanel(username string, joined bool) *Panel {
	p := &Panel{
		Title:  "Player Left",
		Color:  ColorDenied,
		Fields: Fields{{Name: FieldRobloxUsername, Value: username}},
	}
	if joined {
		p.Title = "Player Joined"
		p.Color = ColorApproved
	}
	return p
}
