package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/service/worker"
	"github.com/secmon-lab/bailiff/pkg/utils/metrics"
)

// mockRosterClient serves queued responses in order, then repeats the
// last one served
type mockRosterClient struct {
	mu        sync.Mutex
	responses []rosterResponse
	last      *rosterResponse
	calls     int
}

type rosterResponse struct {
	players []string
	err     error
}

func (m *mockRosterClient) push(err error, players ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, rosterResponse{players: players, err: err})
}

func (m *mockRosterClient) Fetch(ctx context.Context) ([]model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.responses) > 0 {
		m.last = &m.responses[0]
		m.responses = m.responses[1:]
	}
	if m.last == nil {
		return nil, nil
	}
	resp := *m.last
	if resp.err != nil {
		return nil, resp.err
	}
	players := make([]model.Player, len(resp.players))
	for i, name := range resp.players {
		players[i] = model.Player{Username: name}
	}
	return players, nil
}

// mockSlackService records posted panels
type mockSlackService struct {
	slack.Service

	mu     sync.Mutex
	posted []*model.Panel
}

func (m *mockSlackService) PostPanel(ctx context.Context, channelID string, panel *model.Panel, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, panel)
	return "1700000000.000001", nil
}

func (m *mockSlackService) titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.posted {
		out = append(out, p.Title+":"+p.Fields.Get(model.FieldRobloxUsername))
	}
	return out
}

func TestRosterPollWorker_Diff(t *testing.T) {
	ctx := context.Background()
	client := &mockRosterClient{}
	svc := &mockSlackService{}
	m := metrics.New()
	w := worker.NewRosterPollWorker(client, svc, "C_LOG", time.Hour, m)

	client.push(nil, "alice", "bob")
	gt.NoError(t, w.Poll(ctx)).Required()
	snap := w.Snapshot()
	gt.Bool(t, snap.Seeded()).True()
	gt.Array(t, svc.titles()).Length(0)

	client.push(nil, "bob", "carol")
	gt.NoError(t, w.Poll(ctx)).Required()
	gt.Value(t, svc.titles()).Equal([]string{"Player Joined:carol", "Player Left:alice"})
	gt.Value(t, testutil.ToFloat64(m.RosterPlayers)).Equal(float64(2))
	gt.Value(t, testutil.ToFloat64(m.RosterJoins)).Equal(float64(1))
	gt.Value(t, testutil.ToFloat64(m.RosterLeaves)).Equal(float64(1))
}

func TestRosterPollWorker_FailedFetchSkipsCycle(t *testing.T) {
	ctx := context.Background()
	client := &mockRosterClient{}
	svc := &mockSlackService{}
	m := metrics.New()
	w := worker.NewRosterPollWorker(client, svc, "C_LOG", time.Hour, m)

	client.push(nil, "alice", "bob")
	gt.NoError(t, w.Poll(ctx)).Required()

	client.push(goerr.Wrap(model.ErrUpstreamUnavailable, "status 503"))
	gt.Error(t, w.Poll(ctx)).Is(model.ErrUpstreamUnavailable)
	gt.Value(t, w.Snapshot().Roster.Usernames()).Equal([]string{"alice", "bob"})
	gt.Array(t, svc.titles()).Length(0)

	// Same players after the outage: nobody joined or left
	client.push(nil, "alice", "bob")
	gt.NoError(t, w.Poll(ctx)).Required()
	gt.Array(t, svc.titles()).Length(0)
	gt.Value(t, testutil.ToFloat64(m.RosterFetchFailures)).Equal(float64(1))
}

func TestRosterPollWorker_ChangesAcrossOutage(t *testing.T) {
	ctx := context.Background()
	client := &mockRosterClient{}
	svc := &mockSlackService{}
	w := worker.NewRosterPollWorker(client, svc, "C_LOG", time.Hour, nil)

	client.push(nil, "alice", "bob")
	client.push(nil, "bob", "carol")
	client.push(goerr.Wrap(model.ErrUpstreamUnavailable, "status 503"))
	client.push(nil, "bob", "carol")

	gt.NoError(t, w.Poll(ctx)).Required()
	gt.NoError(t, w.Poll(ctx)).Required()
	gt.Error(t, w.Poll(ctx)).Is(model.ErrUpstreamUnavailable)
	gt.NoError(t, w.Poll(ctx)).Required()

	// Only the real change is reported; the outage produces no notices
	gt.Value(t, svc.titles()).Equal([]string{"Player Joined:carol", "Player Left:alice"})
	gt.Value(t, client.calls).Equal(4)
}

func TestRosterPollWorker_FailedInitialFetch(t *testing.T) {
	ctx := context.Background()
	client := &mockRosterClient{}
	svc := &mockSlackService{}
	w := worker.NewRosterPollWorker(client, svc, "C_LOG", time.Hour, nil)

	client.push(goerr.Wrap(model.ErrUpstreamUnavailable, "down"))
	client.push(nil, "alice")
	client.push(nil, "alice", "bob")

	gt.NoError(t, w.Start(ctx)).Required()
	defer w.Stop()
	snap := w.Snapshot()
	gt.Bool(t, snap.Seeded()).False()

	// First success only seeds
	gt.NoError(t, w.Poll(ctx)).Required()
	gt.Array(t, svc.titles()).Length(0)

	gt.NoError(t, w.Poll(ctx)).Required()
	gt.Value(t, svc.titles()).Equal([]string{"Player Joined:bob"})
}

func TestRosterPollWorker_PeriodicPoll(t *testing.T) {
	ctx := context.Background()
	client := &mockRosterClient{}
	svc := &mockSlackService{}
	w := worker.NewRosterPollWorker(client, svc, "C_LOG", 20*time.Millisecond, nil)

	client.push(nil, "alice")
	client.push(nil, "alice", "bob")

	gt.NoError(t, w.Start(ctx)).Required()

	deadline := time.Now().Add(2 * time.Second)
	for len(svc.titles()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	w.Stop()

	gt.Value(t, svc.titles()).Equal([]string{"Player Joined:bob"})
}
