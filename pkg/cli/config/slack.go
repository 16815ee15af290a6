package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken      string
	signingSecret string
	groupCacheTTL time.Duration
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("BAILIFF_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for command and interaction verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("BAILIFF_SLACK_SIGNING_SECRET"),
		},
		&cli.DurationFlag{
			Name:        "slack-group-cache-ttl",
			Usage:       "How long user group membership is cached",
			Category:    "Slack",
			Value:       5 * time.Minute,
			Destination: &x.groupCacheTTL,
			Sources:     cli.EnvVars("BAILIFF_SLACK_GROUP_CACHE_TTL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.Duration("group-cache-ttl", x.groupCacheTTL),
	)
}

// Validate checks that both secrets are present
func (x *Slack) Validate() error {
	if x.botToken == "" {
		return goerr.Wrap(ErrMissingSecret, "slack bot token is required", goerr.V(FlagKey, "slack-bot-token"))
	}
	if x.signingSecret == "" {
		return goerr.Wrap(ErrMissingSecret, "slack signing secret is required", goerr.V(FlagKey, "slack-signing-secret"))
	}
	return nil
}

// Configure validates the flags and creates the Slack service
func (x *Slack) Configure() (slack.Service, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	svc, err := slack.New(x.botToken, slack.WithGroupCacheTTL(x.groupCacheTTL))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}
