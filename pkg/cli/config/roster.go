package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/service/roster"
	"github.com/secmon-lab/bailiff/pkg/service/worker"
	"github.com/urfave/cli/v3"
)

// DefaultRosterInterval is how often the roster is polled
const DefaultRosterInterval = worker.DefaultRosterInterval

// Roster holds CLI flags for the game server roster poller
type Roster struct {
	endpoint string
	apiKey   string
	interval time.Duration
}

// Flags returns CLI flags for roster configuration
func (x *Roster) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "roster-endpoint",
			Usage:       "Player list endpoint of the game server. The poller is disabled when empty",
			Category:    "Roster",
			Destination: &x.endpoint,
			Sources:     cli.EnvVars("BAILIFF_ROSTER_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "roster-api-key",
			Usage:       "Bearer key for the player list endpoint",
			Category:    "Roster",
			Destination: &x.apiKey,
			Sources:     cli.EnvVars("BAILIFF_ROSTER_API_KEY"),
		},
		&cli.DurationFlag{
			Name:        "roster-interval",
			Usage:       "Roster polling interval",
			Category:    "Roster",
			Value:       DefaultRosterInterval,
			Destination: &x.interval,
			Sources:     cli.EnvVars("BAILIFF_ROSTER_INTERVAL"),
		},
	}
}

func (x Roster) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", x.endpoint),
		slog.Int("api-key.len", len(x.apiKey)),
		slog.Duration("interval", x.interval),
	)
}

// Enabled reports whether a roster endpoint is configured
func (x *Roster) Enabled() bool {
	return x.endpoint != ""
}

// Interval returns the polling interval
func (x *Roster) Interval() time.Duration {
	return x.interval
}

// Configure creates the roster client. The caller checks Enabled first.
func (x *Roster) Configure() (roster.Client, error) {
	if x.interval <= 0 {
		return nil, goerr.Wrap(ErrInvalidInterval, "invalid roster interval", goerr.V("interval", x.interval))
	}
	if x.apiKey == "" {
		return nil, goerr.Wrap(ErrMissingSecret, "roster api key is required", goerr.V(FlagKey, "roster-api-key"))
	}

	client, err := roster.New(x.endpoint, x.apiKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize roster client")
	}
	return client, nil
}
