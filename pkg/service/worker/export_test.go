package worker

import "context"

// Poll runs a single roster poll cycle
func (w *RosterPollWorker) Poll(ctx context.Context) error {
	return w.poll(ctx)
}
