package memory

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/utils/seq"
)

// firstID makes identifiers look like Slack timestamps so they convert
// back and forth the same way
const firstID model.RecordID = 1_700_000_000_000_001

type message struct {
	id    model.RecordID
	text  string
	panel *model.Panel
}

// RecordStore keeps records in per-channel ordered message logs. It is the
// development backend and stands in for Slack in tests.
type RecordStore struct {
	mu       sync.RWMutex
	logs     map[string][]*message // oldest first
	channels map[string]struct{}   // nil accepts every channel
	nextID   model.RecordID
}

var _ interfaces.RecordStore = &RecordStore{}

// RecordStoreOption configures a RecordStore
type RecordStoreOption func(*RecordStore)

// WithChannels restricts the store to the given channels. Any other channel
// is reported as unavailable.
func WithChannels(ids ...string) RecordStoreOption {
	return func(s *RecordStore) {
		s.channels = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			s.channels[id] = struct{}{}
		}
	}
}

// NewRecordStore creates an empty store
func NewRecordStore(opts ...RecordStoreOption) *RecordStore {
	s := &RecordStore{
		logs:   make(map[string][]*message),
		nextID: firstID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RecordStore) checkChannel(channelID string) error {
	if s.channels == nil {
		return nil
	}
	if _, ok := s.channels[channelID]; !ok {
		return goerr.Wrap(model.ErrChannelUnavailable, "unknown channel", goerr.V(model.ChannelIDKey, channelID))
	}
	return nil
}

// append must be called with the lock held
func (s *RecordStore) append(channelID string, msg *message) {
	msg.id = s.nextID
	s.nextID++
	s.logs[channelID] = append(s.logs[channelID], msg)
}

// find must be called with the lock held
func (s *RecordStore) find(channelID string, id model.RecordID) *message {
	for _, msg := range s.logs[channelID] {
		if msg.id == id {
			return msg
		}
	}
	return nil
}

// Create posts the record and renders it a second time with its identifier
func (s *RecordStore) Create(ctx context.Context, channelID string, rec *model.Record) (*model.Record, error) {
	draft, err := model.EncodePanel(rec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkChannel(channelID); err != nil {
		return nil, err
	}

	msg := &message{panel: draft}
	s.append(channelID, msg)

	created := rec.Clone()
	created.ID = msg.id
	panel, err := model.EncodePanel(created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode record", goerr.V(model.RecordIDKey, created.ID))
	}
	msg.panel = panel

	return created, nil
}

// Get decodes the record hosted by a message
func (s *RecordStore) Get(ctx context.Context, channelID string, id model.RecordID) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkChannel(channelID); err != nil {
		return nil, err
	}

	msg := s.find(channelID, id)
	if msg == nil {
		return nil, goerr.Wrap(model.ErrNotFound, "message not found",
			goerr.V(model.ChannelIDKey, channelID), goerr.V(model.RecordIDKey, id))
	}
	return decode(msg)
}

// Search scans the channel's most recent messages newest first
func (s *RecordStore) Search(ctx context.Context, channelID string, q interfaces.SearchQuery) iter.Seq2[*model.Record, error] {
	return seq.Once(func(yield func(*model.Record, error) bool) {
		s.mu.RLock()
		if err := s.checkChannel(channelID); err != nil {
			s.mu.RUnlock()
			yield(nil, err)
			return
		}
		log := s.logs[channelID]
		window := slices.Clone(log[max(0, len(log)-q.ScanLimit()):])
		s.mu.RUnlock()

		for _, msg := range slices.Backward(window) {
			if err := ctx.Err(); err != nil {
				yield(nil, goerr.Wrap(err, "search cancelled"))
				return
			}
			if msg.panel == nil {
				continue
			}
			rec, err := decode(msg)
			if err != nil || !q.Matches(rec) {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}, model.ErrCursorConsumed)
}

// Update re-renders the record in place
func (s *RecordStore) Update(ctx context.Context, channelID string, rec *model.Record) error {
	panel, err := model.EncodePanel(rec)
	if err != nil {
		return goerr.Wrap(err, "failed to encode record", goerr.V(model.RecordIDKey, rec.ID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkChannel(channelID); err != nil {
		return err
	}

	msg := s.find(channelID, rec.ID)
	if msg == nil {
		return goerr.Wrap(model.ErrNotFound, "message not found",
			goerr.V(model.ChannelIDKey, channelID), goerr.V(model.RecordIDKey, rec.ID))
	}
	if msg.panel != nil && msg.panel.Footer != "" {
		panel.Footer = msg.panel.Footer
	}
	msg.panel = panel
	return nil
}

// Delete removes the hosting message
func (s *RecordStore) Delete(ctx context.Context, channelID string, id model.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkChannel(channelID); err != nil {
		return err
	}

	log := s.logs[channelID]
	for i, msg := range log {
		if msg.id == id {
			s.logs[channelID] = slices.Delete(log, i, i+1)
			return nil
		}
	}
	return goerr.Wrap(model.ErrNotFound, "message not found",
		goerr.V(model.ChannelIDKey, channelID), goerr.V(model.RecordIDKey, id))
}

// PutRawMessage appends a plain message with no panel and returns its ID
func (s *RecordStore) PutRawMessage(channelID, text string) model.RecordID {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &message{text: text}
	s.append(channelID, msg)
	return msg.id
}

// PutPanel appends a message carrying an arbitrary panel and returns its ID
func (s *RecordStore) PutPanel(channelID string, panel *model.Panel) model.RecordID {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &message{panel: panel}
	s.append(channelID, msg)
	return msg.id
}

// Panel returns the panel currently hosted by a message
func (s *RecordStore) Panel(channelID string, id model.RecordID) (*model.Panel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg := s.find(channelID, id)
	if msg == nil || msg.panel == nil {
		return nil, false
	}
	return msg.panel, true
}

func decode(msg *message) (*model.Record, error) {
	if msg.panel == nil {
		return nil, goerr.Wrap(model.ErrMalformedRecord, "message has no panel", goerr.V(model.RecordIDKey, msg.id))
	}
	rec := model.DecodePanel(msg.panel)
	rec.ID = msg.id
	return rec, nil
}
