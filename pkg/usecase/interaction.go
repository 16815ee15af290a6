package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/secmon-lab/bailiff/pkg/utils/metrics"
)

// InteractionUseCase routes button presses to the feature owning them
type InteractionUseCase struct {
	uc      *UseCases
	slack   slack.Service
	metrics *metrics.Metrics
}

func NewInteractionUseCase(uc *UseCases) *InteractionUseCase {
	return &InteractionUseCase{uc: uc, slack: uc.slack, metrics: uc.metrics}
}

// Execute runs the interaction and returns its reply
func (i *InteractionUseCase) Execute(ctx context.Context, in *model.Interaction) (*model.Reply, error) {
	action := in.Control.Action
	if !action.IsValid() {
		return nil, goerr.Wrap(ErrInvalidArgument, "unknown control", goerr.V("action", action))
	}

	actor, err := i.slack.GetActor(ctx, in.UserID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve actor", goerr.V(ActorIDKey, in.UserID))
	}

	switch action {
	case types.ControlActionApprove:
		return i.uc.Approval.Decide(ctx, actor, types.RecordKind(in.Control.Value), in.ChannelID, in.MessageTS, types.DecisionApprove)
	case types.ControlActionDeny:
		return i.uc.Approval.Decide(ctx, actor, types.RecordKind(in.Control.Value), in.ChannelID, in.MessageTS, types.DecisionDeny)
	case types.ControlActionConfirm:
		return i.uc.Confirmation.Confirm(ctx, actor, model.ProposalID(in.Control.Value))
	case types.ControlActionCancel:
		return i.uc.Confirmation.Cancel(ctx, actor, model.ProposalID(in.Control.Value))
	case types.ControlActionToggleAttend:
		return i.uc.Ballot.Toggle(ctx, actor, in.ChannelID, in.MessageTS)
	case types.ControlActionViewAttendees:
		return i.uc.Ballot.View(ctx, actor, in.ChannelID, in.MessageTS)
	}
	return nil, goerr.Wrap(ErrInvalidArgument, "unhandled control", goerr.V("action", action))
}

// Handle runs the interaction and delivers the reply through its response URL
func (i *InteractionUseCase) Handle(ctx context.Context, in *model.Interaction) error {
	ctx = logging.With(ctx, logging.From(ctx).With("action", in.Control.Action, "user_id", in.UserID))

	reply, err := i.Execute(ctx, in)
	action := in.Control.Action.String()
	if !in.Control.Action.IsValid() {
		action = "unknown"
	}
	i.metrics.ObserveInteraction(action, outcomeOf(err))
	if err != nil {
		reply = failureReply(ctx, err, "failed to handle interaction")
	}

	if err := i.slack.Respond(ctx, in.ResponseURL, reply); err != nil {
		return goerr.Wrap(err, "failed to respond to interaction", goerr.V("action", in.Control.Action))
	}
	return nil
}
