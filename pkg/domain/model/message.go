package model

// Command is a slash command invocation
type Command struct {
	Name        string // without the leading slash
	Text        string // raw argument text
	ChannelID   string
	UserID      string
	ResponseURL string
}

// Interaction is a button press on a panel or an ephemeral prompt
type Interaction struct {
	Control     Control
	ChannelID   string
	MessageTS   string // empty for ephemeral prompts
	UserID      string
	ResponseURL string
}

// Reply is the private acknowledgement sent back to the invoking actor
type Reply struct {
	Text     string
	Panel    *Panel
	Controls []Control

	// ReplaceOriginal overwrites the ephemeral message the interaction
	// came from instead of posting a new one.
	ReplaceOriginal bool
}

// TextReply builds a plain text reply
func TextReply(text string) *Reply {
	return &Reply{Text: text}
}
