package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/repository/memory"
	slackrepo "github.com/secmon-lab/bailiff/pkg/repository/slack"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for record store backend configuration
type Repository struct {
	backend string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "record-backend",
			Usage:       "Record store backend (slack or memory)",
			Value:       "slack",
			Sources:     cli.EnvVars("BAILIFF_RECORD_BACKEND"),
			Destination: &r.backend,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure returns the record store for the configured backend. The memory
// backend only accepts the given record channels.
func (r *Repository) Configure(svc slack.Service, recordChannels []string) (interfaces.RecordStore, error) {
	switch r.backend {
	case "slack":
		logging.Default().Info("Using Slack channel history as record store")
		return slackrepo.New(svc), nil

	case "memory":
		logging.Default().Info("Using in-memory record store (development mode)")
		return memory.NewRecordStore(memory.WithChannels(recordChannels...)), nil

	default:
		return nil, goerr.New("invalid record backend", goerr.V("backend", r.backend))
	}
}
