package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	domainConfig "github.com/secmon-lab/bailiff/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the TOML application configuration
type AppConfig struct {
	Channels     Channels     `toml:"channels"`
	Rules        []Rule       `toml:"rules"`
	Announcement Announcement `toml:"announcement"`
}

// Channels maps every feature to the Slack channel it posts to
type Channels struct {
	Announcement string `toml:"announcement"`
	Warrant      string `toml:"warrant"`
	MostWanted   string `toml:"most_wanted"`
	Moderation   string `toml:"moderation"`
	Citation     string `toml:"citation"`
	Arrest       string `toml:"arrest"`
	SessionVote  string `toml:"session_vote"`
	RosterLog    string `toml:"roster_log"`
}

// Rule grants an action category to the listed Slack user groups
type Rule struct {
	Name         string   `toml:"name"`
	Capabilities []string `toml:"capabilities"`
}

// Announcement holds the server details shown on SSU and SSD panels
type Announcement struct {
	ServerName   string `toml:"server_name"`
	ServerCode   string `toml:"server_code"`
	RulesChannel string `toml:"rules_channel"`
	GroupURL     string `toml:"group_url"`
	ImageURL     string `toml:"image_url"`
	Footer       string `toml:"footer"`
}

// Validate checks that every record and announcement channel is set.
// roster_log is optional here; the roster poller checks it when enabled.
func (c *Channels) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"announcement", c.Announcement},
		{"warrant", c.Warrant},
		{"most_wanted", c.MostWanted},
		{"moderation", c.Moderation},
		{"citation", c.Citation},
		{"arrest", c.Arrest},
		{"session_vote", c.SessionVote},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return goerr.Wrap(ErrMissingChannel, "channel is empty", goerr.V(ChannelKey, r.key))
		}
	}
	return nil
}

// Validate checks if the Rule is valid
func (r *Rule) Validate() error {
	if r.Name == "" {
		return goerr.Wrap(ErrMissingName, "rule name is required")
	}
	if !model.RuleName(r.Name).IsValid() {
		return goerr.Wrap(ErrUnknownRule, "rule is not recognised", goerr.V(RuleNameKey, r.Name))
	}
	for _, tag := range r.Capabilities {
		if strings.TrimSpace(tag) == "" {
			return goerr.Wrap(ErrInvalidConfig, "capability must not be empty", goerr.V(RuleNameKey, r.Name))
		}
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if err := a.Channels.Validate(); err != nil {
		return goerr.Wrap(err, "invalid channels")
	}

	names := make(map[string]bool)
	for i, rule := range a.Rules {
		if err := rule.Validate(); err != nil {
			return goerr.Wrap(err, "invalid rule", goerr.V(RuleIndexKey, i))
		}
		if names[rule.Name] {
			return goerr.Wrap(ErrDuplicateRule, "rule defined twice", goerr.V(RuleNameKey, rule.Name))
		}
		names[rule.Name] = true
	}

	if a.Announcement.ServerName == "" {
		return goerr.Wrap(ErrMissingName, "announcement.server_name is required")
	}

	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	return ParseAppConfiguration(data, path)
}

// ParseAppConfiguration decodes and validates TOML data. path is only used
// for error context.
func ParseAppConfiguration(data []byte, path string) (*AppConfig, error) {
	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// ToDomainChannels converts the channel section to the domain type
func (a *AppConfig) ToDomainChannels() *domainConfig.Channels {
	return &domainConfig.Channels{
		Announcement: a.Channels.Announcement,
		Warrant:      a.Channels.Warrant,
		MostWanted:   a.Channels.MostWanted,
		Moderation:   a.Channels.Moderation,
		Citation:     a.Channels.Citation,
		Arrest:       a.Channels.Arrest,
		SessionVote:  a.Channels.SessionVote,
		RosterLog:    a.Channels.RosterLog,
	}
}

// ToDomainPolicy converts the rules to an access policy. Rules that are
// not listed admit elevated members only.
func (a *AppConfig) ToDomainPolicy() *model.AccessPolicy {
	rules := make([]model.AccessRule, len(a.Rules))
	for i, r := range a.Rules {
		rules[i] = model.AccessRule{
			Name:         model.RuleName(r.Name),
			Capabilities: append([]string(nil), r.Capabilities...),
		}
	}
	return model.NewAccessPolicy(rules...)
}

// ToDomainAnnouncement converts the announcement section to the domain type
func (a *AppConfig) ToDomainAnnouncement() *domainConfig.Announcement {
	return &domainConfig.Announcement{
		ServerName:   a.Announcement.ServerName,
		ServerCode:   a.Announcement.ServerCode,
		RulesChannel: a.Announcement.RulesChannel,
		GroupURL:     a.Announcement.GroupURL,
		ImageURL:     a.Announcement.ImageURL,
		Footer:       a.Announcement.Footer,
	}
}

// LogValue summarises the configuration without listing member groups
func (a *AppConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("rules", len(a.Rules)),
		slog.String("server_name", a.Announcement.ServerName),
		slog.Bool("roster_log", a.Channels.RosterLog != ""),
	)
}

// App holds the CLI flag pointing at the TOML configuration file
type App struct {
	path string
}

// Flags returns CLI flags for the configuration file
func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML configuration file",
			Value:       "bailiff.toml",
			Sources:     cli.EnvVars("BAILIFF_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Path returns the configured file path
func (x *App) Path() string {
	return x.path
}

// Configure loads and validates the configuration file
func (x *App) Configure() (*AppConfig, error) {
	return LoadAppConfiguration(x.path)
}
