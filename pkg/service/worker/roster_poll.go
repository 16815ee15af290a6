package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/service/roster"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/secmon-lab/bailiff/pkg/utils/metrics"
)

// DefaultRosterInterval is the default roster poll interval
const DefaultRosterInterval = 20 * time.Second

// RosterPollWorker polls the game server roster and reports joins and
// leaves to a log channel
//
// Architecture assumptions:
// - Single server instance; the snapshot lives in this process only
// - A failed fetch is no observation: the cycle is skipped, the snapshot kept
type RosterPollWorker struct {
	client       roster.Client
	slackService slack.Service
	channelID    string
	interval     time.Duration
	metrics      *metrics.Metrics

	mu       sync.RWMutex
	snapshot model.RosterSnapshot

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRosterPollWorker creates a new worker posting roster changes to channelID
func NewRosterPollWorker(client roster.Client, slackSvc slack.Service, channelID string, interval time.Duration, m *metrics.Metrics) *RosterPollWorker {
	if interval <= 0 {
		interval = DefaultRosterInterval
	}
	return &RosterPollWorker{
		client:       client,
		slackService: slackSvc,
		channelID:    channelID,
		interval:     interval,
		metrics:      m,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start seeds the snapshot with a blocking fetch, then polls in the
// background. A failed initial fetch is logged and leaves the snapshot
// unset so the next success only seeds it.
func (w *RosterPollWorker) Start(ctx context.Context) error {
	logging.Default().Info("Roster poll worker starting",
		"interval", w.interval.String(),
		"channel_id", w.channelID)

	if err := w.poll(ctx); err != nil {
		logging.Default().Error("Initial roster fetch failed (will retry next interval)",
			"error", err.Error())
	}

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *RosterPollWorker) Stop() {
	logging.Default().Info("Roster poll worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Roster poll worker stopped")
}

// Snapshot returns the last successful observation
func (w *RosterPollWorker) Snapshot() model.RosterSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

func (w *RosterPollWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				logging.Default().Error("Roster poll failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Roster poll worker context cancelled")
			return
		}
	}
}

// poll performs one cycle: fetch, diff against the snapshot, replace the
// snapshot, then post one notice per change
func (w *RosterPollWorker) poll(ctx context.Context) error {
	players, err := w.client.Fetch(ctx)
	if err != nil {
		w.metrics.ObserveRosterFailure()
		return goerr.Wrap(err, "failed to fetch roster")
	}

	current := model.NewRoster(players)

	w.mu.Lock()
	prev := w.snapshot
	w.snapshot = model.RosterSnapshot{Roster: current, ObservedAt: time.Now()}
	w.mu.Unlock()

	if !prev.Seeded() {
		w.metrics.ObserveRoster(len(current), 0, 0)
		logging.Default().Info("Roster snapshot seeded", "players", len(current))
		logging.Default().Debug("Roster snapshot members", "usernames", current.Usernames())
		return nil
	}

	joined, left := current.Diff(prev.Roster)
	w.metrics.ObserveRoster(len(current), len(joined), len(left))

	var failed int
	for _, name := range joined {
		if !w.post(ctx, name, true) {
			failed++
		}
	}
	for _, name := range left {
		if !w.post(ctx, name, false) {
			failed++
		}
	}

	if failed > 0 {
		return goerr.New("failed to post roster notices",
			goerr.V("failed", failed), goerr.V("joined", len(joined)), goerr.V("left", len(left)))
	}
	return nil
}

func (w *RosterPollWorker) post(ctx context.Context, username string, joined bool) bool {
	panel := model.RosterEventPanel(username, joined)
	if _, err := w.slackService.PostPanel(ctx, w.channelID, panel, panel.Title+": "+username); err != nil {
		logging.Default().Warn("Failed to post roster notice",
			"username", username, "joined", joined, "error", err.Error())
		return false
	}
	return true
}
