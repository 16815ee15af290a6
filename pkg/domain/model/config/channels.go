package config

import "github.com/secmon-lab/bailiff/pkg/domain/types"

// Channels holds the destination channel of every feature
type Channels struct {
	Announcement string
	Warrant      string
	MostWanted   string
	Moderation   string
	Citation     string
	Arrest       string
	SessionVote  string
	RosterLog    string
}

// ForKind returns the channel records of kind are kept in
func (c *Channels) ForKind(kind types.RecordKind) string {
	switch kind {
	case types.RecordKindWarrant:
		return c.Warrant
	case types.RecordKindMostWanted:
		return c.MostWanted
	case types.RecordKindModerationLog:
		return c.Moderation
	case types.RecordKindCitation:
		return c.Citation
	case types.RecordKindArrest:
		return c.Arrest
	case types.RecordKindSessionVote:
		return c.SessionVote
	}
	return ""
}

// RecordChannels returns the distinct channels that hold records
func (c *Channels) RecordChannels() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, kind := range types.AllRecordKinds() {
		id := c.ForKind(kind)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
