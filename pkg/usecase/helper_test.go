package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/model/config"
	"github.com/secmon-lab/bailiff/pkg/repository/memory"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/usecase"
)

const (
	chAnnounce   = "C_ANNOUNCE"
	chWarrant    = "C_WARRANT"
	chMostWanted = "C_MOST_WANTED"
	chModeration = "C_MODERATION"
	chCitation   = "C_CITATION"
	chArrest     = "C_ARREST"
	chVote       = "C_VOTE"

	groupPolice    = "S_POLICE"
	groupJudge     = "S_JUDGE"
	groupModerator = "S_MOD"
	groupStaff     = "S_STAFF"
)

var (
	officer   = &model.Actor{ID: "U_OFFICER", Name: "officer", Capabilities: []string{groupPolice}}
	judge     = &model.Actor{ID: "U_JUDGE", Name: "judge", Capabilities: []string{groupJudge}}
	moderator = &model.Actor{ID: "U_MOD", Name: "moderator", Capabilities: []string{groupModerator}}
	staff     = &model.Actor{ID: "U_STAFF", Name: "staff", Capabilities: []string{groupStaff}}
	member    = &model.Actor{ID: "U_MEMBER", Name: "member"}
	admin     = &model.Actor{ID: "U_ADMIN", Name: "admin", Elevated: true}
)

func testPolicy() *model.AccessPolicy {
	return model.NewAccessPolicy(
		model.AccessRule{Name: model.RuleAnnounce, Capabilities: []string{groupStaff}},
		model.AccessRule{Name: model.RuleWarrantCreate, Capabilities: []string{groupPolice}},
		model.AccessRule{Name: model.RuleWarrantDecide, Capabilities: []string{groupJudge}},
		model.AccessRule{Name: model.RuleMostWantedCreate, Capabilities: []string{groupPolice}},
		model.AccessRule{Name: model.RuleMostWantedDecide, Capabilities: []string{groupJudge}},
		model.AccessRule{Name: model.RuleModeration, Capabilities: []string{groupModerator, groupStaff}},
		model.AccessRule{Name: model.RuleCitation, Capabilities: []string{groupPolice}},
		model.AccessRule{Name: model.RuleArrest, Capabilities: []string{groupPolice}},
		model.AccessRule{Name: model.RuleSessionVoteStart, Capabilities: []string{groupStaff}},
		model.AccessRule{Name: model.RuleSessionVoteView, Capabilities: []string{groupStaff}},
		model.AccessRule{Name: model.RuleReactions, Capabilities: []string{groupStaff}},
	)
}

func testChannels() *config.Channels {
	return &config.Channels{
		Announcement: chAnnounce,
		Warrant:      chWarrant,
		MostWanted:   chMostWanted,
		Moderation:   chModeration,
		Citation:     chCitation,
		Arrest:       chArrest,
		SessionVote:  chVote,
	}
}

type postedPanel struct {
	ChannelID string
	Panel     *model.Panel
	Text      string
}

type response struct {
	URL   string
	Reply *model.Reply
}

// fakeSlack answers the Slack calls use cases make without a network
type fakeSlack struct {
	slack.Service

	mu        sync.Mutex
	actors    map[string]*model.Actor
	users     map[string]*slack.User
	reactions map[string][]slack.Reaction // by ts
	posted    []postedPanel
	responses []response
	respondCh chan response
}

func newFakeSlack(actors ...*model.Actor) *fakeSlack {
	f := &fakeSlack{
		actors:    make(map[string]*model.Actor),
		users:     make(map[string]*slack.User),
		reactions: make(map[string][]slack.Reaction),
		respondCh: make(chan response, 16),
	}
	for _, a := range actors {
		f.actors[a.ID] = a
	}
	return f
}

func (f *fakeSlack) GetActor(_ context.Context, userID string) (*model.Actor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.actors[userID]; ok {
		return a, nil
	}
	return &model.Actor{ID: userID}, nil
}

func (f *fakeSlack) GetUserInfo(_ context.Context, userID string) (*slack.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return &slack.User{ID: userID, Name: userID}, nil
}

func (f *fakeSlack) GetReactions(_ context.Context, _ string, ts string) ([]slack.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reactions[ts]
	if !ok {
		return nil, model.ErrNotFound
	}
	return r, nil
}

func (f *fakeSlack) GetPermalink(_ context.Context, channelID, ts string) (string, error) {
	return "https://example.slack.com/archives/" + channelID + "/p" + ts, nil
}

func (f *fakeSlack) PostPanel(_ context.Context, channelID string, panel *model.Panel, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, postedPanel{ChannelID: channelID, Panel: panel, Text: text})
	return "1700000000.000001", nil
}

func (f *fakeSlack) Respond(_ context.Context, responseURL string, reply *model.Reply) error {
	f.mu.Lock()
	r := response{URL: responseURL, Reply: reply}
	f.responses = append(f.responses, r)
	f.mu.Unlock()
	select {
	case f.respondCh <- r:
	default:
	}
	return nil
}

func (f *fakeSlack) Posted() []postedPanel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]postedPanel{}, f.posted...)
}

func (f *fakeSlack) Responses() []response {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]response{}, f.responses...)
}

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	uc    *usecase.UseCases
	store *memory.RecordStore
	slack *fakeSlack
	clock *fakeClock
}

func newFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()
	ch := testChannels()
	store := memory.NewRecordStore(memory.WithChannels(ch.RecordChannels()...))
	fs := newFakeSlack(officer, judge, moderator, staff, member, admin)
	clock := newFakeClock()

	opts = append([]usecase.Option{
		usecase.WithClock(clock.Now),
		usecase.WithAnnouncement(&config.Announcement{
			ServerName:   "Salt Lake City Whitelisted",
			ServerCode:   "slcwl",
			RulesChannel: "C_RULES",
			GroupURL:     "https://www.roblox.com/groups/1",
			ImageURL:     "https://example.com/banner.png",
		}),
	}, opts...)

	uc := usecase.New(store, fs, testPolicy(), ch, opts...)
	t.Cleanup(uc.Confirmation.Close)

	return &fixture{uc: uc, store: store, slack: fs, clock: clock}
}

// createRecord stores a record directly and returns it with its ID
func (f *fixture) createRecord(t *testing.T, channelID string, rec *model.Record) *model.Record {
	t.Helper()
	created, err := f.store.Create(context.Background(), channelID, rec)
	if err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	return created
}
