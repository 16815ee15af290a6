package slack

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/slack-go/slack"
)

// GetActor resolves a user into an actor. Group membership is fetched for
// the whole workspace at once and cached for the configured TTL.
func (c *client) GetActor(ctx context.Context, userID string) (*model.Actor, error) {
	user, err := c.GetUserInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	groups, err := c.groupsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.Actor{
		ID:           user.ID,
		Name:         user.PreferredName(),
		Capabilities: groups,
		Elevated:     user.IsAdmin || user.IsOwner,
	}, nil
}

func (c *client) groupsOf(ctx context.Context, userID string) ([]string, error) {
	now := time.Now()

	// Check cache first
	c.mu.RLock()
	if c.groups != nil && now.Before(c.groupsUntil) {
		groups := c.groups[userID]
		c.mu.RUnlock()
		return groups, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check cache after acquiring write lock
	if c.groups != nil && now.Before(c.groupsUntil) {
		return c.groups[userID], nil
	}

	list, err := c.api.GetUserGroupsContext(ctx, slack.GetUserGroupsOptionIncludeUsers(true))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list user groups")
	}

	membership := make(map[string][]string)
	for _, g := range list {
		for _, member := range g.Users {
			membership[member] = append(membership[member], g.ID)
		}
	}

	c.groups = membership
	c.groupsUntil = now.Add(c.groupTTL)
	return membership[userID], nil
}
