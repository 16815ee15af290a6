package config

// Announcement holds the server details shown on start-up and shut-down
// announcements
type Announcement struct {
	ServerName   string
	ServerCode   string
	RulesChannel string // channel ID linked from the start-up text
	GroupURL     string
	ImageURL     string
	Footer       string // defaults to ServerName
}
