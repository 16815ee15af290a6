package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound  = goerr.New("configuration file not found")
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrMissingChannel  = goerr.New("required channel is not configured")
	ErrUnknownRule     = goerr.New("unknown access rule")
	ErrDuplicateRule   = goerr.New("duplicate access rule")
	ErrMissingName     = goerr.New("name is required")
	ErrMissingSecret   = goerr.New("required secret is not set")
	ErrInvalidInterval = goerr.New("interval must be positive")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	ChannelKey    = "channel"
	RuleNameKey   = "rule_name"
	RuleIndexKey  = "rule_index"
	FlagKey       = "flag"
)
