package slack

import (
	"context"
	"iter"

	"github.com/secmon-lab/bailiff/pkg/domain/model"
)

// Service provides the Slack primitives the bot is built on: panel messages,
// history scans, member introspection and ephemeral replies
type Service interface {
	// PostPanel posts a panel message and returns its timestamp.
	// The text parameter is used as a fallback for notifications.
	PostPanel(ctx context.Context, channelID string, panel *model.Panel, text string) (string, error)

	// UpdatePanel re-renders a panel message in place. Controls absent from
	// panel are removed from the message.
	UpdatePanel(ctx context.Context, channelID, ts string, panel *model.Panel) error

	// DeleteMessage removes a message
	DeleteMessage(ctx context.Context, channelID, ts string) error

	// GetMessage fetches one message by timestamp
	GetMessage(ctx context.Context, channelID, ts string) (*Message, error)

	// History scans at most limit messages, newest first. The sequence
	// pages lazily and stops at the first error.
	History(ctx context.Context, channelID string, limit int) iter.Seq2[*Message, error]

	// GetPermalink returns a link to a message
	GetPermalink(ctx context.Context, channelID, ts string) (string, error)

	// GetUserInfo retrieves user information for the given user ID
	GetUserInfo(ctx context.Context, userID string) (*User, error)

	// GetActor resolves a user into an actor with capability tags (user
	// group IDs, cached) and the elevated flag
	GetActor(ctx context.Context, userID string) (*model.Actor, error)

	// GetReactions lists the reactions on a message
	GetReactions(ctx context.Context, channelID, ts string) ([]Reaction, error)

	// Respond delivers an ephemeral reply through a response URL
	Respond(ctx context.Context, responseURL string, reply *model.Reply) error

	// BotID returns the bot ID messages posted with this token carry
	BotID(ctx context.Context) (string, error)
}

// Message is a channel message as far as the bot cares about it
type Message struct {
	TS     string
	UserID string
	BotID  string
	Text   string
	Panel  *model.Panel // nil when the message carries no panel
}

// User represents a Slack user
type User struct {
	ID          string
	Name        string
	RealName    string
	DisplayName string
	IsBot       bool
	IsAdmin     bool
	IsOwner     bool
}

// PreferredName returns the name Slack shows for the user
func (u *User) PreferredName() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.RealName != "":
		return u.RealName
	default:
		return u.Name
	}
}

// Reaction is one emoji on a message and the users who added it
type Reaction struct {
	Name  string
	Count int
	Users []string
}
