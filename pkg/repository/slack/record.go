package slack

import (
	"context"
	"iter"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/secmon-lab/bailiff/pkg/utils/seq"
)

// RecordStore uses Slack messages as the system of record. Each record is
// one message posted by this bot whose attachment is the record's panel.
// Messages from other authors are never read as records.
type RecordStore struct {
	svc slack.Service

	mu    sync.Mutex
	botID string
}

var _ interfaces.RecordStore = &RecordStore{}

// New creates a record store on top of the Slack service
func New(svc slack.Service) *RecordStore {
	return &RecordStore{svc: svc}
}

// Create posts the record, then updates it with its identifier
func (s *RecordStore) Create(ctx context.Context, channelID string, rec *model.Record) (*model.Record, error) {
	draft, err := model.EncodePanel(rec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode record")
	}

	ts, err := s.svc.PostPanel(ctx, channelID, draft, draft.Title)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to post record", goerr.V(model.KindKey, rec.Kind))
	}

	id, err := model.RecordIDFromTimestamp(ts)
	if err != nil {
		return nil, goerr.Wrap(err, "unexpected message timestamp", goerr.V("ts", ts))
	}

	created := rec.Clone()
	created.ID = id
	panel, err := model.EncodePanel(created)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode record", goerr.V(model.RecordIDKey, id))
	}

	if err := s.svc.UpdatePanel(ctx, channelID, ts, panel); err != nil {
		// The message exists but lacks its footer; Get still resolves it by
		// timestamp.
		logging.From(ctx).Warn("failed to write record footer",
			"channel_id", channelID, "record_id", id, "error", err)
		return nil, goerr.Wrap(err, "failed to finalize record", goerr.V(model.RecordIDKey, id))
	}

	return created, nil
}

func (s *RecordStore) ownBotID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.botID == "" {
		id, err := s.svc.BotID(ctx)
		if err != nil {
			return "", goerr.Wrap(err, "failed to resolve own bot ID")
		}
		s.botID = id
	}
	return s.botID, nil
}

// getOwned fetches the message hosting id and checks this bot posted it
func (s *RecordStore) getOwned(ctx context.Context, channelID string, id model.RecordID) (*slack.Message, error) {
	botID, err := s.ownBotID(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := s.svc.GetMessage(ctx, channelID, id.Timestamp())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get record", goerr.V(model.RecordIDKey, id))
	}
	if msg.BotID != botID {
		return nil, goerr.Wrap(model.ErrMalformedRecord, "message was not posted by this bot",
			goerr.V(model.RecordIDKey, id), goerr.V("bot_id", msg.BotID))
	}
	return msg, nil
}

// Get decodes the record hosted by a message
func (s *RecordStore) Get(ctx context.Context, channelID string, id model.RecordID) (*model.Record, error) {
	msg, err := s.getOwned(ctx, channelID, id)
	if err != nil {
		return nil, err
	}
	return decode(msg, id)
}

// Search scans the channel's most recent messages newest first
func (s *RecordStore) Search(ctx context.Context, channelID string, q interfaces.SearchQuery) iter.Seq2[*model.Record, error] {
	return seq.Once(func(yield func(*model.Record, error) bool) {
		botID, err := s.ownBotID(ctx)
		if err != nil {
			yield(nil, goerr.Wrap(err, "failed to search records", goerr.V(model.KindKey, q.Kind)))
			return
		}

		for msg, err := range s.svc.History(ctx, channelID, q.ScanLimit()) {
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to search records", goerr.V(model.KindKey, q.Kind)))
				return
			}
			if msg.Panel == nil || msg.BotID != botID {
				continue
			}

			id, err := model.RecordIDFromTimestamp(msg.TS)
			if err != nil {
				continue
			}
			rec, err := decode(msg, id)
			if err != nil || !q.Matches(rec) {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}, model.ErrCursorConsumed)
}

// Update re-renders the record in place, keeping the existing footer
func (s *RecordStore) Update(ctx context.Context, channelID string, rec *model.Record) error {
	msg, err := s.getOwned(ctx, channelID, rec.ID)
	if err != nil {
		return err
	}

	panel, err := model.EncodePanel(rec)
	if err != nil {
		return goerr.Wrap(err, "failed to encode record", goerr.V(model.RecordIDKey, rec.ID))
	}
	if msg.Panel != nil && msg.Panel.Footer != "" {
		panel.Footer = msg.Panel.Footer
	}

	if err := s.svc.UpdatePanel(ctx, channelID, msg.TS, panel); err != nil {
		return goerr.Wrap(err, "failed to update record", goerr.V(model.RecordIDKey, rec.ID))
	}
	return nil
}

// Delete removes the hosting message
func (s *RecordStore) Delete(ctx context.Context, channelID string, id model.RecordID) error {
	if err := s.svc.DeleteMessage(ctx, channelID, id.Timestamp()); err != nil {
		return goerr.Wrap(err, "failed to delete record", goerr.V(model.RecordIDKey, id))
	}
	return nil
}

func decode(msg *slack.Message, id model.RecordID) (*model.Record, error) {
	if msg.Panel == nil {
		return nil, goerr.Wrap(model.ErrMalformedRecord, "message has no panel", goerr.V(model.RecordIDKey, id))
	}
	rec := model.DecodePanel(msg.Panel)
	rec.ID = id
	return rec, nil
}
