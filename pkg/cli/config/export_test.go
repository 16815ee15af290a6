package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, signingSecret string) *Slack {
	return &Slack{botToken: botToken, signingSecret: signingSecret}
}

// NewRosterForTest creates a Roster config for testing purposes
func NewRosterForTest(endpoint, apiKey string) *Roster {
	return &Roster{endpoint: endpoint, apiKey: apiKey, interval: DefaultRosterInterval}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

var SecretFilter = secretFilter
