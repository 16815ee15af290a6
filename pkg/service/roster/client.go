package roster

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/utils/safe"
)

// DefaultTimeout bounds one roster request
const DefaultTimeout = 10 * time.Second

// maxBodySize caps the roster response we are willing to read
const maxBodySize = 4 << 20

// Client fetches the game server's current player list
type Client interface {
	Fetch(ctx context.Context) ([]model.Player, error)
}

type client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// Option is a functional option for client configuration
type Option func(*client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// New creates a roster client for endpoint, authenticating with apiKey as a
// bearer credential
func New(endpoint, apiKey string, opts ...Option) (Client, error) {
	if endpoint == "" {
		return nil, goerr.New("roster endpoint is required")
	}

	c := &client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns the current players. Any non-200 response or transport
// failure is reported as ErrUpstreamUnavailable.
func (c *client) Fetch(ctx context.Context) ([]model.Player, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build roster request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "roster request failed",
			goerr.V("endpoint", c.endpoint), goerr.V("cause", err.Error()))
	}
	defer safe.DrainClose(ctx, resp.Body, "roster response")

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "unexpected roster status",
			goerr.V("endpoint", c.endpoint), goerr.V("status", resp.StatusCode))
	}

	var players []model.Player
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&players); err != nil {
		return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "malformed roster response",
			goerr.V("endpoint", c.endpoint), goerr.V("cause", err.Error()))
	}
	return players, nil
}
