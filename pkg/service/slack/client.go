package slack

import (
	"context"
	"iter"
	"net/http"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/slack-go/slack"
)

const (
	// DefaultGroupCacheTTL is the default TTL for user group membership
	DefaultGroupCacheTTL = 60 * time.Second

	historyPageSize = 200
)

// client implements Service interface
type client struct {
	api        *slack.Client
	apiURL     string
	httpClient *http.Client
	groupTTL   time.Duration

	mu          sync.RWMutex
	groups      map[string][]string // user ID -> user group IDs
	groupsUntil time.Time
	botID       string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithGroupCacheTTL sets the TTL for user group membership cache
func WithGroupCacheTTL(ttl time.Duration) Option {
	return func(c *client) {
		c.groupTTL = ttl
	}
}

// WithAPIURL points the client at another Web API endpoint
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.apiURL = url
	}
}

// WithHTTPClient sets the HTTP client used for API calls and response URLs
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// New creates a new Slack service with the provided bot token
func New(token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &client{
		httpClient: http.DefaultClient,
		groupTTL:   DefaultGroupCacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	apiOpts := []slack.Option{slack.OptionHTTPClient(c.httpClient)}
	if c.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(c.apiURL))
	}
	c.api = slack.New(token, apiOpts...)

	return c, nil
}

// PostPanel posts a panel message and returns its timestamp
func (c *client) PostPanel(ctx context.Context, channelID string, panel *model.Panel, text string) (string, error) {
	if text == "" {
		text = panel.Title
	}

	_, ts, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionAttachments(toAttachment(panel)),
		slack.MsgOptionBlocks(toBlocks(panel.Controls)...),
	)
	if err != nil {
		return "", goerr.Wrap(classify(err), "failed to post panel", goerr.V(model.ChannelIDKey, channelID))
	}
	return ts, nil
}

// UpdatePanel re-renders a panel message in place
func (c *client) UpdatePanel(ctx context.Context, channelID, ts string, panel *model.Panel) error {
	_, _, _, err := c.api.UpdateMessageContext(ctx, channelID, ts,
		slack.MsgOptionText(panel.Title, false),
		slack.MsgOptionAttachments(toAttachment(panel)),
		slack.MsgOptionBlocks(toBlocks(panel.Controls)...),
	)
	if err != nil {
		return goerr.Wrap(classify(err), "failed to update panel",
			goerr.V(model.ChannelIDKey, channelID), goerr.V("ts", ts))
	}
	return nil
}

// DeleteMessage removes a message
func (c *client) DeleteMessage(ctx context.Context, channelID, ts string) error {
	if _, _, err := c.api.DeleteMessageContext(ctx, channelID, ts); err != nil {
		return goerr.Wrap(classify(err), "failed to delete message",
			goerr.V(model.ChannelIDKey, channelID), goerr.V("ts", ts))
	}
	return nil
}

// GetMessage fetches one message by timestamp
func (c *client) GetMessage(ctx context.Context, channelID, ts string) (*Message, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    ts,
		Oldest:    ts,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return nil, goerr.Wrap(classify(err), "failed to get message",
			goerr.V(model.ChannelIDKey, channelID), goerr.V("ts", ts))
	}

	for _, msg := range resp.Messages {
		if msg.Timestamp == ts {
			return toMessage(msg), nil
		}
	}
	return nil, goerr.Wrap(model.ErrNotFound, "message not found",
		goerr.V(model.ChannelIDKey, channelID), goerr.V("ts", ts))
}

// History scans at most limit messages, newest first
func (c *client) History(ctx context.Context, channelID string, limit int) iter.Seq2[*Message, error] {
	return func(yield func(*Message, error) bool) {
		var cursor string
		remaining := limit

		for remaining > 0 {
			resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
				ChannelID: channelID,
				Cursor:    cursor,
				Limit:     min(remaining, historyPageSize),
			})
			if err != nil {
				yield(nil, goerr.Wrap(classify(err), "failed to scan history", goerr.V(model.ChannelIDKey, channelID)))
				return
			}

			for _, msg := range resp.Messages {
				if remaining == 0 {
					return
				}
				remaining--
				if !yield(toMessage(msg), nil) {
					return
				}
			}

			if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
				return
			}
			cursor = resp.ResponseMetaData.NextCursor
		}
	}
}

// GetPermalink returns a link to a message
func (c *client) GetPermalink(ctx context.Context, channelID, ts string) (string, error) {
	link, err := c.api.GetPermalinkContext(ctx, &slack.PermalinkParameters{Channel: channelID, Ts: ts})
	if err != nil {
		return "", goerr.Wrap(classify(err), "failed to get permalink",
			goerr.V(model.ChannelIDKey, channelID), goerr.V("ts", ts))
	}
	return link, nil
}

// GetUserInfo retrieves user information for the given user ID
func (c *client) GetUserInfo(ctx context.Context, userID string) (*User, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user info", goerr.V("user_id", userID))
	}

	return &User{
		ID:          user.ID,
		Name:        user.Name,
		RealName:    user.RealName,
		DisplayName: user.Profile.DisplayName,
		IsBot:       user.IsBot,
		IsAdmin:     user.IsAdmin,
		IsOwner:     user.IsOwner,
	}, nil
}

// GetReactions lists the reactions on a message
func (c *client) GetReactions(ctx context.Context, channelID, ts string) ([]Reaction, error) {
	items, err := c.api.GetReactionsContext(ctx, slack.NewRefToMessage(channelID, ts), slack.GetReactionsParameters{Full: true})
	if err != nil {
		return nil, goerr.Wrap(classify(err), "failed to get reactions",
			goerr.V(model.ChannelIDKey, channelID), goerr.V("ts", ts))
	}

	reactions := make([]Reaction, 0, len(items))
	for _, item := range items {
		reactions = append(reactions, Reaction{Name: item.Name, Count: item.Count, Users: item.Users})
	}
	return reactions, nil
}

// Respond delivers an ephemeral reply through a response URL
func (c *client) Respond(ctx context.Context, responseURL string, reply *model.Reply) error {
	if err := slack.PostWebhookCustomHTTPContext(ctx, responseURL, c.httpClient, toWebhookMessage(reply)); err != nil {
		return goerr.Wrap(err, "failed to respond")
	}
	return nil
}

// BotID resolves the token's bot ID with auth.test. A successful lookup is
// cached for the life of the client.
func (c *client) BotID(ctx context.Context) (string, error) {
	c.mu.RLock()
	id := c.botID
	c.mu.RUnlock()
	if id != "" {
		return id, nil
	}

	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", goerr.Wrap(classify(err), "failed to resolve bot ID")
	}
	if resp.BotID == "" {
		return "", goerr.New("token does not belong to a bot user", goerr.V("user_id", resp.UserID))
	}

	c.mu.Lock()
	c.botID = resp.BotID
	c.mu.Unlock()
	return resp.BotID, nil
}

func toMessage(msg slack.Message) *Message {
	return &Message{
		TS:     msg.Timestamp,
		UserID: msg.User,
		BotID:  msg.BotID,
		Text:   msg.Text,
		Panel:  panelOf(msg.Attachments),
	}
}
