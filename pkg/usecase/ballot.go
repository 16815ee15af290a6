package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/model/config"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
)

// BallotUseCase runs session votes. Ballots live in process memory, so a
// restart closes every open vote.
type BallotUseCase struct {
	store    interfaces.RecordStore
	policy   *model.AccessPolicy
	channels *config.Channels

	mu      sync.Mutex
	ballots map[string]*model.Ballot
}

func NewBallotUseCase(store interfaces.RecordStore, policy *model.AccessPolicy, channels *config.Channels) *BallotUseCase {
	return &BallotUseCase{
		store:    store,
		policy:   policy,
		channels: channels,
		ballots:  make(map[string]*model.Ballot),
	}
}

func ballotKey(channelID string, id model.RecordID) string {
	return channelID + "/" + id.String()
}

// Start posts a session vote panel and opens its ballot
func (uc *BallotUseCase) Start(ctx context.Context, actor *model.Actor, sessionTime string) (*model.Reply, error) {
	if !uc.policy.Allows(actor, model.RuleSessionVoteStart) {
		return nil, goerr.Wrap(ErrPermissionDenied, "cannot start session vote", goerr.V(ActorIDKey, actor.ID))
	}
	if strings.TrimSpace(sessionTime) == "" {
		return nil, newUserError(ErrInvalidArgument, "Session time cannot be empty.")
	}

	channelID, err := channelOf(uc.channels, types.RecordKindSessionVote)
	if err != nil {
		return nil, err
	}

	rec := &model.Record{
		Kind: types.RecordKindSessionVote,
		Fields: model.Fields{
			{Name: model.FieldSessionTime, Value: sessionTime},
			{Name: model.FieldHostedBy, Value: actor.Mention()},
		},
	}
	created, err := uc.store.Create(ctx, channelID, rec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to post session vote")
	}

	uc.mu.Lock()
	uc.ballots[ballotKey(channelID, created.ID)] = model.NewBallot(channelID, created.ID)
	uc.mu.Unlock()

	logging.From(ctx).Info("session vote started",
		"channel_id", channelID,
		"record_id", created.ID,
		"actor_id", actor.ID)

	return model.TextReply(fmt.Sprintf("Session vote started in <#%s>.", channelID)), nil
}

func (uc *BallotUseCase) ballot(channelID, messageTS string) (*model.Ballot, error) {
	id, err := model.RecordIDFromTimestamp(messageTS)
	if err != nil {
		return nil, goerr.Wrap(ErrBallotClosed, "interaction has no message", goerr.V("ts", messageTS))
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	b, ok := uc.ballots[ballotKey(channelID, id)]
	if !ok {
		return nil, goerr.Wrap(ErrBallotClosed, "no open ballot",
			goerr.V(model.ChannelIDKey, channelID), goerr.V(model.RecordIDKey, id))
	}
	return b, nil
}

// Toggle marks or unmarks the actor's attendance. Anyone may vote.
func (uc *BallotUseCase) Toggle(ctx context.Context, actor *model.Actor, channelID, messageTS string) (*model.Reply, error) {
	b, err := uc.ballot(channelID, messageTS)
	if err != nil {
		return nil, err
	}

	if b.Toggle(actor.ID) == types.AttendancePresent {
		return model.TextReply("Successfully marked your attendance."), nil
	}
	return model.TextReply("Successfully unmarked your attendance."), nil
}

// View lists the attendees in the order they signed up
func (uc *BallotUseCase) View(ctx context.Context, actor *model.Actor, channelID, messageTS string) (*model.Reply, error) {
	if !uc.policy.Allows(actor, model.RuleSessionVoteView) {
		return nil, newUserError(ErrPermissionDenied, "You do not have permission to view attendees.")
	}

	b, err := uc.ballot(channelID, messageTS)
	if err != nil {
		return nil, err
	}

	attendees := b.Attendees()
	if len(attendees) == 0 {
		return model.TextReply("No one has marked attendance yet."), nil
	}

	mentions := make([]string, len(attendees))
	for i, id := range attendees {
		mentions[i] = (&model.Actor{ID: id}).Mention()
	}
	return model.TextReply(fmt.Sprintf("*Attendees (%d):*\n%s", len(attendees), strings.Join(mentions, "\n"))), nil
}
