package repository_test

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/secmon-lab/bailiff/pkg/repository/memory"
	slackrepo "github.com/secmon-lab/bailiff/pkg/repository/slack"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/seq"
)

const (
	channelA = "C_MODERATION"
	channelB = "C_CITATION"
	channelX = "C_UNKNOWN"
)

type recordFixture struct {
	store interfaces.RecordStore
	// putRaw posts a message without a panel
	putRaw func(channelID, text string) model.RecordID
	// panelOf returns the panel currently hosted by a message
	panelOf func(channelID string, id model.RecordID) *model.Panel
}

func moderationLog(user string) *model.Record {
	return &model.Record{
		Kind: types.RecordKindModerationLog,
		Fields: model.Fields{
			{Name: model.FieldRobloxUsername, Value: user},
			{Name: model.FieldType, Value: "Strike 1"},
			{Name: model.FieldReason, Value: "x"},
			{Name: model.FieldModerator, Value: "<@U001>"},
		},
	}
}

func runRecordStoreTest(t *testing.T, newFixture func(t *testing.T) *recordFixture) {
	t.Helper()

	t.Run("Create then Get returns the same fields", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		created, err := f.store.Create(ctx, channelA, moderationLog("abc123"))
		gt.NoError(t, err).Required()
		gt.Bool(t, created.ID > 0).True()

		got, err := f.store.Get(ctx, channelA, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(created.ID)
		gt.Value(t, got.Kind).Equal(types.RecordKindModerationLog)
		gt.Value(t, got.Fields).Equal(moderationLog("abc123").Fields)
		gt.Value(t, got.CreatedBy).Equal("<@U001>")

		panel := f.panelOf(channelA, created.ID)
		gt.Value(t, panel.Footer).Equal(fmt.Sprintf("Moderation ID: %d", created.ID))
	})

	t.Run("Get in another channel is not found", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		created, err := f.store.Create(ctx, channelA, moderationLog("abc123"))
		gt.NoError(t, err).Required()

		_, err = f.store.Get(ctx, channelB, created.ID)
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("Create in unknown channel is unavailable", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.store.Create(context.Background(), channelX, moderationLog("abc123"))
		gt.Error(t, err).Is(model.ErrChannelUnavailable)
	})

	t.Run("Get of a message without panel is malformed", func(t *testing.T) {
		f := newFixture(t)
		id := f.putRaw(channelA, "hello")

		_, err := f.store.Get(context.Background(), channelA, id)
		gt.Error(t, err).Is(model.ErrMalformedRecord)
	})

	t.Run("Search is case-insensitive on the whole value", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		created, err := f.store.Create(ctx, channelA, moderationLog("abc123"))
		gt.NoError(t, err).Required()
		f.putRaw(channelA, "chatter")

		hits, err := seq.Collect(f.store.Search(ctx, channelA, interfaces.SearchQuery{
			Kind: types.RecordKindModerationLog, Field: model.FieldRobloxUsername, Value: "ABC123", Limit: 100,
		}))
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(1)
		gt.Value(t, hits[0].ID).Equal(created.ID)

		misses, err := seq.Collect(f.store.Search(ctx, channelA, interfaces.SearchQuery{
			Kind: types.RecordKindModerationLog, Field: model.FieldRobloxUsername, Value: "abc1234", Limit: 100,
		}))
		gt.NoError(t, err).Required()
		gt.Array(t, misses).Length(0)
	})

	t.Run("Search yields newest first within the scan limit", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		var ids []model.RecordID
		for range 3 {
			rec, err := f.store.Create(ctx, channelA, moderationLog("repeat"))
			gt.NoError(t, err).Required()
			ids = append(ids, rec.ID)
		}

		all, err := seq.Collect(f.store.Search(ctx, channelA, interfaces.SearchQuery{
			Kind: types.RecordKindModerationLog, Field: model.FieldRobloxUsername, Value: "repeat", Limit: 10,
		}))
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(3)
		gt.Value(t, all[0].ID).Equal(ids[2])
		gt.Value(t, all[2].ID).Equal(ids[0])

		limited, err := seq.Collect(f.store.Search(ctx, channelA, interfaces.SearchQuery{
			Kind: types.RecordKindModerationLog, Field: model.FieldRobloxUsername, Value: "repeat", Limit: 2,
		}))
		gt.NoError(t, err).Required()
		gt.Array(t, limited).Length(2)
	})

	t.Run("Search skips other kinds", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		_, err := f.store.Create(ctx, channelA, &model.Record{
			Kind: types.RecordKindArrest,
			Fields: model.Fields{
				{Name: model.FieldSuspectRobloxUsername, Value: "abc123"},
				{Name: model.FieldCharges, Value: "c"},
				{Name: model.FieldArrestingOfficer, Value: "<@U1>"},
			},
		})
		gt.NoError(t, err).Required()

		hits, err := seq.Collect(f.store.Search(ctx, channelA, interfaces.SearchQuery{
			Kind: types.RecordKindModerationLog, Field: model.FieldRobloxUsername, Value: "abc123",
		}))
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(0)
	})

	t.Run("Search results can be consumed once", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, err := f.store.Create(ctx, channelA, moderationLog("abc123"))
		gt.NoError(t, err).Required()

		results := f.store.Search(ctx, channelA, interfaces.SearchQuery{
			Kind: types.RecordKindModerationLog, Field: model.FieldRobloxUsername, Value: "abc123",
		})
		first, err := seq.Collect(results)
		gt.NoError(t, err).Required()
		gt.Array(t, first).Length(1)

		_, err = seq.Collect(results)
		gt.Error(t, err).Is(model.ErrCursorConsumed)
	})

	t.Run("Update keeps the footer and replaces fields", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		created, err := f.store.Create(ctx, channelA, moderationLog("abc123"))
		gt.NoError(t, err).Required()
		footer := f.panelOf(channelA, created.ID).Footer

		edited := created.Clone()
		edited.Fields = edited.Fields.With(model.FieldType, "Ban").With(model.FieldReason, "repeat offender")
		gt.NoError(t, f.store.Update(ctx, channelA, edited)).Required()

		got, err := f.store.Get(ctx, channelA, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Fields.Get(model.FieldType)).Equal("Ban")
		gt.Value(t, got.Fields.Get(model.FieldReason)).Equal("repeat offender")
		gt.Value(t, got.Fields.Get(model.FieldRobloxUsername)).Equal("abc123")
		gt.Value(t, f.panelOf(channelA, created.ID).Footer).Equal(footer)
	})

	t.Run("Update of a deleted record is not found", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		created, err := f.store.Create(ctx, channelA, moderationLog("abc123"))
		gt.NoError(t, err).Required()
		gt.NoError(t, f.store.Delete(ctx, channelA, created.ID)).Required()

		_, err = f.store.Get(ctx, channelA, created.ID)
		gt.Error(t, err).Is(model.ErrNotFound)

		err = f.store.Update(ctx, channelA, created)
		gt.Error(t, err).Is(model.ErrNotFound)

		err = f.store.Delete(ctx, channelA, created.ID)
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("approval status survives a round trip", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		created, err := f.store.Create(ctx, channelA, &model.Record{
			Kind:   types.RecordKindWarrant,
			Status: types.ApprovalStatusPending,
			Fields: model.Fields{
				{Name: model.FieldUserRequested, Value: "<@U1>"},
				{Name: model.FieldSuspectUsername, Value: "bad"},
				{Name: model.FieldCharges, Value: "theft"},
			},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, f.panelOf(channelA, created.ID).Controls).Length(2)

		decided := created.Clone()
		decided.Status = types.ApprovalStatusApproved
		decided.DecidedBy = "judge"
		gt.NoError(t, f.store.Update(ctx, channelA, decided)).Required()

		got, err := f.store.Get(ctx, channelA, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ApprovalStatusApproved)
		gt.Value(t, got.DecidedBy).Equal("judge")
		gt.Array(t, f.panelOf(channelA, created.ID).Controls).Length(0)
	})
}

func TestMemoryRecordStore(t *testing.T) {
	runRecordStoreTest(t, func(t *testing.T) *recordFixture {
		store := memory.NewRecordStore(memory.WithChannels(channelA, channelB))
		return &recordFixture{
			store:  store,
			putRaw: store.PutRawMessage,
			panelOf: func(channelID string, id model.RecordID) *model.Panel {
				p, ok := store.Panel(channelID, id)
				gt.Bool(t, ok).True()
				return p
			},
		}
	})
}

func TestSlackRecordStore(t *testing.T) {
	runRecordStoreTest(t, func(t *testing.T) *recordFixture {
		svc := newFakeSlack(channelA, channelB)
		return &recordFixture{
			store: slackrepo.New(svc),
			putRaw: func(channelID, text string) model.RecordID {
				id, err := model.RecordIDFromTimestamp(svc.post(channelID, &slack.Message{Text: text}))
				gt.NoError(t, err).Required()
				return id
			},
			panelOf: func(channelID string, id model.RecordID) *model.Panel {
				msg, err := svc.GetMessage(context.Background(), channelID, id.Timestamp())
				gt.NoError(t, err).Required()
				return msg.Panel
			},
		}
	})
}

const fakeBotID = "B_BAILIFF"

func TestSlackRecordStore_IgnoresForeignPanels(t *testing.T) {
	ctx := context.Background()
	svc := newFakeSlack(channelA)
	store := slackrepo.New(svc)

	own, err := store.Create(ctx, channelA, moderationLog("abc123"))
	gt.NoError(t, err).Required()

	// Another bot posts a panel that decodes like a moderation log
	forged, err := model.EncodePanel(moderationLog("abc123"))
	gt.NoError(t, err).Required()
	foreignTS := svc.post(channelA, &slack.Message{Text: forged.Title, BotID: "B_OTHER", Panel: forged})
	foreignID, err := model.RecordIDFromTimestamp(foreignTS)
	gt.NoError(t, err).Required()

	t.Run("Get refuses the foreign message", func(t *testing.T) {
		_, err := store.Get(ctx, channelA, foreignID)
		gt.Error(t, err).Is(model.ErrMalformedRecord)
	})

	t.Run("Update refuses the foreign message", func(t *testing.T) {
		rec := moderationLog("abc123")
		rec.ID = foreignID
		gt.Error(t, store.Update(ctx, channelA, rec)).Is(model.ErrMalformedRecord)
	})

	t.Run("Search skips the foreign message", func(t *testing.T) {
		hits, err := seq.Collect(store.Search(ctx, channelA, interfaces.SearchQuery{
			Kind: types.RecordKindModerationLog, Field: model.FieldRobloxUsername, Value: "abc123",
		}))
		gt.NoError(t, err).Required()
		gt.Array(t, hits).Length(1)
		gt.Value(t, hits[0].ID).Equal(own.ID)
	})
}

// fakeSlack keeps channel histories in memory and reports errors the way
// the real client classifies them
type fakeSlack struct {
	slack.Service

	mu       sync.Mutex
	seq      int
	channels map[string][]*slack.Message // oldest first
}

func newFakeSlack(channels ...string) *fakeSlack {
	f := &fakeSlack{channels: make(map[string][]*slack.Message)}
	for _, ch := range channels {
		f.channels[ch] = nil
	}
	return f
}

func (f *fakeSlack) post(channelID string, msg *slack.Message) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	msg.TS = fmt.Sprintf("1700000000.%06d", f.seq)
	f.channels[channelID] = append(f.channels[channelID], msg)
	return msg.TS
}

func (f *fakeSlack) lookup(channelID, ts string) (int, error) {
	log, ok := f.channels[channelID]
	if !ok {
		return 0, goerr.Wrap(model.ErrChannelUnavailable, "channel_not_found")
	}
	for i, msg := range log {
		if msg.TS == ts {
			return i, nil
		}
	}
	return 0, goerr.Wrap(model.ErrNotFound, "message_not_found")
}

func (f *fakeSlack) PostPanel(_ context.Context, channelID string, panel *model.Panel, text string) (string, error) {
	f.mu.Lock()
	_, ok := f.channels[channelID]
	f.mu.Unlock()
	if !ok {
		return "", goerr.Wrap(model.ErrChannelUnavailable, "channel_not_found")
	}
	return f.post(channelID, &slack.Message{Text: text, BotID: fakeBotID, Panel: panel}), nil
}

func (f *fakeSlack) BotID(context.Context) (string, error) {
	return fakeBotID, nil
}

func (f *fakeSlack) UpdatePanel(_ context.Context, channelID, ts string, panel *model.Panel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.lookup(channelID, ts)
	if err != nil {
		return err
	}
	f.channels[channelID][i].Panel = panel
	return nil
}

func (f *fakeSlack) DeleteMessage(_ context.Context, channelID, ts string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.lookup(channelID, ts)
	if err != nil {
		return err
	}
	f.channels[channelID] = slices.Delete(f.channels[channelID], i, i+1)
	return nil
}

func (f *fakeSlack) GetMessage(_ context.Context, channelID, ts string) (*slack.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, err := f.lookup(channelID, ts)
	if err != nil {
		return nil, err
	}
	c := *f.channels[channelID][i]
	return &c, nil
}

func (f *fakeSlack) History(_ context.Context, channelID string, limit int) iter.Seq2[*slack.Message, error] {
	return func(yield func(*slack.Message, error) bool) {
		f.mu.Lock()
		log, ok := f.channels[channelID]
		snapshot := slices.Clone(log)
		f.mu.Unlock()
		if !ok {
			yield(nil, goerr.Wrap(model.ErrChannelUnavailable, "channel_not_found"))
			return
		}

		n := 0
		for _, msg := range slices.Backward(snapshot) {
			if n == limit {
				return
			}
			n++
			if !yield(msg, nil) {
				return
			}
		}
	}
}
