package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"golang.org/x/sync/errgroup"
)

// maxUserLookups bounds concurrent users.info calls for one request
const maxUserLookups = 8

// ReactionUseCase lists who reacted to a message
type ReactionUseCase struct {
	slack  slack.Service
	policy *model.AccessPolicy
}

func NewReactionUseCase(slackSvc slack.Service, policy *model.AccessPolicy) *ReactionUseCase {
	return &ReactionUseCase{slack: slackSvc, policy: policy}
}

// Fetch lists the non-bot users that reacted with emoji to the message in
// channelID. emoji is accepted with or without surrounding colons.
func (uc *ReactionUseCase) Fetch(ctx context.Context, actor *model.Actor, channelID, rawID, emoji string) (*model.Reply, error) {
	if !uc.policy.Allows(actor, model.RuleReactions) {
		return nil, goerr.Wrap(ErrPermissionDenied, "cannot fetch reactions", goerr.V(ActorIDKey, actor.ID))
	}

	id, err := model.ParseRecordID(rawID)
	if err != nil {
		return nil, err
	}
	name := strings.Trim(strings.TrimSpace(emoji), ":")
	if name == "" {
		return nil, newUserError(ErrInvalidArgument, "Please specify an emoji.")
	}

	reactions, err := uc.slack.GetReactions(ctx, channelID, id.Timestamp())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, newUserError(err, "Could not find a message with that ID in this channel.")
		}
		return nil, goerr.Wrap(err, "failed to get reactions", goerr.V(model.RecordIDKey, id))
	}

	var users []string
	found := false
	for _, r := range reactions {
		if r.Name == name {
			users = r.Users
			found = true
			break
		}
	}
	if !found {
		return nil, goerr.Wrap(ErrReactionNotFound, "reaction not on message",
			goerr.V("emoji", name), goerr.V(model.RecordIDKey, id))
	}

	humans, err := uc.humans(ctx, users)
	if err != nil {
		return nil, err
	}
	if len(humans) == 0 {
		return model.TextReply("No users have reacted with that emoji."), nil
	}

	mentions := make([]string, len(humans))
	for i, u := range humans {
		mentions[i] = (&model.Actor{ID: u}).Mention()
	}
	return model.TextReply(fmt.Sprintf("Users who reacted (%d):\n%s", len(humans), strings.Join(mentions, "\n"))), nil
}

// humans filters out bot users, keeping the reaction order
func (uc *ReactionUseCase) humans(ctx context.Context, userIDs []string) ([]string, error) {
	isBot := make([]bool, len(userIDs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxUserLookups)
	for i, id := range userIDs {
		eg.Go(func() error {
			u, err := uc.slack.GetUserInfo(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to get user", goerr.V(ActorIDKey, id))
			}
			isBot[i] = u.IsBot
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for i, id := range userIDs {
		if !isBot[i] {
			out = append(out, id)
		}
	}
	return out, nil
}
