package interfaces

import (
	"context"
	"iter"

	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
)

// MaxSearchLimit caps how many messages one search may scan
const MaxSearchLimit = 1000

// SearchQuery selects records of one kind whose field equals a value
type SearchQuery struct {
	Kind  types.RecordKind
	Field string // empty matches every record of the kind
	Value string
	Limit int // messages scanned; clamped to MaxSearchLimit
}

// ScanLimit returns the effective number of messages to scan
func (q SearchQuery) ScanLimit() int {
	if q.Limit <= 0 || q.Limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return q.Limit
}

// Matches reports whether rec satisfies the query
func (q SearchQuery) Matches(rec *model.Record) bool {
	if rec.Kind != q.Kind {
		return false
	}
	if q.Field == "" {
		return true
	}
	return model.MatchField(rec, q.Field, q.Value)
}

// RecordStore keeps records as panel messages, keyed by channel and the
// hosting message's identifier. Writes are last-writer-wins.
type RecordStore interface {
	// Create renders and posts the record, then re-renders it with its new
	// identifier. Returns the record with ID set.
	Create(ctx context.Context, channelID string, rec *model.Record) (*model.Record, error)

	// Get returns the record hosted by a message. ErrNotFound when the
	// message is gone, ErrMalformedRecord when it carries no panel.
	Get(ctx context.Context, channelID string, id model.RecordID) (*model.Record, error)

	// Search scans recent messages newest first and yields matching
	// records. The sequence is lazy and can be consumed once.
	Search(ctx context.Context, channelID string, q SearchQuery) iter.Seq2[*model.Record, error]

	// Update re-renders the record in place, keeping its footer
	Update(ctx context.Context, channelID string, rec *model.Record) error

	// Delete removes the hosting message
	Delete(ctx context.Context, channelID string, id model.RecordID) error
}
