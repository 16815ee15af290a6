package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/bailiff/pkg/cli/config"
	httpctrl "github.com/secmon-lab/bailiff/pkg/controller/http"
	"github.com/secmon-lab/bailiff/pkg/service/worker"
	"github.com/secmon-lab/bailiff/pkg/usecase"
	"github.com/secmon-lab/bailiff/pkg/utils/async"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/secmon-lab/bailiff/pkg/utils/metrics"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var confirmTimeout time.Duration
	var appCfg config.App
	var repoCfg config.Repository
	var slackCfg config.Slack
	var rosterCfg config.Roster
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("BAILIFF_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "confirm-timeout",
			Usage:       "How long an edit or delete confirmation prompt stays valid",
			Value:       usecase.DefaultConfirmTimeout,
			Sources:     cli.EnvVars("BAILIFF_CONFIRM_TIMEOUT"),
			Destination: &confirmTimeout,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, rosterCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server receiving Slack commands and interactions",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			cfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}
			channels := cfg.ToDomainChannels()

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack")
			}

			store, err := repoCfg.Configure(slackSvc, channels.RecordChannels())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize record store")
			}

			logging.Default().Info("Configuration loaded",
				"config", cfg,
				"slack", slackCfg,
				"roster", rosterCfg,
				"sentry", sentryCfg,
				"backend", repoCfg.Backend(),
			)

			m := metrics.New()
			uc := usecase.New(store, slackSvc, cfg.ToDomainPolicy(), channels,
				usecase.WithConfirmTimeout(confirmTimeout),
				usecase.WithAnnouncement(cfg.ToDomainAnnouncement()),
				usecase.WithMetrics(m),
			)
			defer uc.Confirmation.Close()

			var rosterWorker *worker.RosterPollWorker
			if rosterCfg.Enabled() {
				if channels.RosterLog == "" {
					return goerr.Wrap(config.ErrMissingChannel, "roster poller needs channels.roster_log",
						goerr.V(config.ChannelKey, "roster_log"))
				}
				client, err := rosterCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to configure roster poller")
				}
				rosterWorker = worker.NewRosterPollWorker(client, slackSvc, channels.RosterLog, rosterCfg.Interval(), m)
				if err := rosterWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start roster poll worker")
				}
			} else {
				logging.Default().Info("Roster endpoint not configured, roster poller disabled")
			}

			httpHandler := httpctrl.New(
				httpctrl.WithSlackSigningSecret(slackCfg.SigningSecret()),
				httpctrl.WithSlackCommand(httpctrl.NewSlackCommandHandler(uc.Command, async.Dispatch)),
				httpctrl.WithSlackInteraction(httpctrl.NewSlackInteractionHandler(uc.Interaction, async.Dispatch)),
				httpctrl.WithMetrics(m),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "commands", uc.Command.Names())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				if rosterWorker != nil {
					rosterWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if rosterWorker != nil {
					rosterWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
