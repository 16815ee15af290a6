package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/cli/config"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.App

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file without starting the server",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			cfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			configured := make(map[string]bool, len(cfg.Rules))
			for _, r := range cfg.Rules {
				configured[r.Name] = true
			}
			for _, name := range model.AllRuleNames() {
				if !configured[string(name)] {
					logger.Warn("Rule not configured, only workspace admins are allowed", "rule", name)
				}
			}
			if cfg.Channels.RosterLog == "" {
				logger.Warn("channels.roster_log is empty, the roster poller cannot be enabled")
			}

			logger.Info("Configuration validation passed",
				"path", appCfg.Path(),
				"config", cfg,
			)
			return nil
		},
	}
}
