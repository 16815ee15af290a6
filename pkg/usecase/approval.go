package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
)

// ApprovalUseCase settles warrant and most wanted requests from their panel
type ApprovalUseCase struct {
	store  interfaces.RecordStore
	policy *model.AccessPolicy
	locks  *keyedMutex
}

func NewApprovalUseCase(store interfaces.RecordStore, policy *model.AccessPolicy) *ApprovalUseCase {
	return &ApprovalUseCase{
		store:  store,
		policy: policy,
		locks:  newKeyedMutex(),
	}
}

// Decide approves or denies the pending request hosted by the message at
// messageTS. A request is decided once; both buttons go away with the
// decision.
func (uc *ApprovalUseCase) Decide(ctx context.Context, actor *model.Actor, kind types.RecordKind, channelID, messageTS string, decision types.Decision) (*model.Reply, error) {
	schema, err := model.SchemaOf(kind)
	if err != nil {
		return nil, goerr.Wrap(ErrNothingToUpdate, "unknown kind on control", goerr.V(model.KindKey, kind))
	}
	if !kind.RequiresApproval() {
		return nil, goerr.Wrap(ErrNothingToUpdate, "kind has no approval", goerr.V(model.KindKey, kind))
	}
	if decision.Status() == "" {
		return nil, goerr.Wrap(ErrInvalidArgument, "unknown decision", goerr.V("decision", decision))
	}

	if !uc.policy.Allows(actor, schema.DecideRule) {
		return nil, newUserError(ErrPermissionDenied, "You do not have permission to approve or deny %s.", schema.Plural)
	}

	id, err := model.RecordIDFromTimestamp(messageTS)
	if err != nil {
		return nil, goerr.Wrap(ErrNothingToUpdate, "interaction has no message", goerr.V("ts", messageTS))
	}

	unlock := uc.locks.Lock(channelID + "/" + id.String())
	defer unlock()

	rec, err := uc.store.Get(ctx, channelID, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrMalformedRecord) {
			return nil, goerr.Wrap(ErrNothingToUpdate, err.Error(),
				goerr.V(model.ChannelIDKey, channelID), goerr.V(model.RecordIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to load record",
			goerr.V(model.ChannelIDKey, channelID), goerr.V(model.RecordIDKey, id))
	}
	if rec.Kind != kind {
		return nil, goerr.Wrap(ErrNothingToUpdate, "panel kind does not match control",
			goerr.V(model.KindKey, rec.Kind), goerr.V("control_kind", kind))
	}
	if rec.Status.Normalize().IsTerminal() {
		return nil, goerr.Wrap(ErrAlreadyDecided, "request already decided",
			goerr.V(model.RecordIDKey, id), goerr.V("status", rec.Status))
	}

	rec.Status = decision.Status()
	rec.DecidedBy = actor.DisplayName()
	if err := uc.store.Update(ctx, channelID, rec); err != nil {
		return nil, goerr.Wrap(err, "failed to update record",
			goerr.V(model.ChannelIDKey, channelID), goerr.V(model.RecordIDKey, id))
	}

	logging.From(ctx).Info("request decided",
		"kind", kind,
		"record_id", id,
		"status", rec.Status,
		"actor_id", actor.ID)

	return model.TextReply(fmt.Sprintf("%s %s.", schema.Label, strings.ToLower(decision.Verb()))), nil
}
