package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/model/config"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/errutil"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
)

// ExpiredPromptText replaces a confirmation prompt nobody answered in time
const ExpiredPromptText = "This confirmation has expired. Nothing was changed."

// settled proposals are kept this long after their deadline so late clicks
// get a precise answer
const proposalRetention = 10 * time.Minute

// ConfirmationUseCase gates edits and deletes behind a confirm prompt only
// the proposer can answer
type ConfirmationUseCase struct {
	store    interfaces.RecordStore
	slack    slack.Service
	policy   *model.AccessPolicy
	channels *config.Channels
	clock    Clock
	timeout  time.Duration

	mu        sync.Mutex
	proposals map[model.ProposalID]*model.Proposal
	timers    map[model.ProposalID]*time.Timer
}

func NewConfirmationUseCase(store interfaces.RecordStore, slackSvc slack.Service, policy *model.AccessPolicy, channels *config.Channels, clock Clock, timeout time.Duration) *ConfirmationUseCase {
	return &ConfirmationUseCase{
		store:     store,
		slack:     slackSvc,
		policy:    policy,
		channels:  channels,
		clock:     clock,
		timeout:   timeout,
		proposals: make(map[model.ProposalID]*model.Proposal),
		timers:    make(map[model.ProposalID]*time.Timer),
	}
}

// ProposeEdit checks the edit and asks the actor to confirm it. Nothing is
// written until Confirm.
func (uc *ConfirmationUseCase) ProposeEdit(ctx context.Context, actor *model.Actor, kind types.RecordKind, rawID string, changes model.Fields, responseURL string) (*model.Reply, error) {
	schema, rec, err := uc.load(ctx, actor, kind, rawID)
	if err != nil {
		return nil, err
	}

	for _, c := range changes {
		if !schema.IsEditable(c.Name) {
			return nil, goerr.Wrap(ErrInvalidArgument, "field is not editable",
				goerr.V(model.KindKey, kind), goerr.V(model.FieldKey, c.Name))
		}
		if strings.TrimSpace(c.Value) == "" {
			return nil, newUserError(ErrInvalidArgument, "%s cannot be empty.", c.Name)
		}
	}

	p := uc.propose(ctx, actor, types.ProposalOpEdit, rec, changes, responseURL)

	var b strings.Builder
	fmt.Fprintf(&b, "Please confirm the following changes to %s %s:\n", schema.Noun, rec.ID)
	for _, c := range changes {
		fmt.Fprintf(&b, "*%s:* %s -> %s\n", c.Name, rec.Fields.Get(c.Name), c.Value)
	}
	fmt.Fprintf(&b, "This prompt expires in %s.", expiryText(uc.timeout))

	return &model.Reply{Text: b.String(), Controls: promptControls(p, "Confirm")}, nil
}

// ProposeDelete asks the actor to confirm deleting a record
func (uc *ConfirmationUseCase) ProposeDelete(ctx context.Context, actor *model.Actor, kind types.RecordKind, rawID string, responseURL string) (*model.Reply, error) {
	schema, rec, err := uc.load(ctx, actor, kind, rawID)
	if err != nil {
		return nil, err
	}

	p := uc.propose(ctx, actor, types.ProposalOpDelete, rec, nil, responseURL)

	text := fmt.Sprintf("Are you sure you want to delete %s %s (%s)? This prompt expires in %s.",
		schema.Noun, rec.ID, rec.Fields.Get(schema.SubjectField), expiryText(uc.timeout))
	return &model.Reply{Text: text, Controls: promptControls(p, "Delete")}, nil
}

// expiryText renders a prompt timeout in whole seconds
func expiryText(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", secs)
}

func promptControls(p *model.Proposal, confirmLabel string) []model.Control {
	style := types.ControlStylePrimary
	if p.Op == types.ProposalOpDelete {
		style = types.ControlStyleDanger
	}
	return []model.Control{
		{Action: types.ControlActionConfirm, Label: confirmLabel, Value: p.ID.String(), Style: style},
		{Action: types.ControlActionCancel, Label: "Cancel", Value: p.ID.String()},
	}
}

func (uc *ConfirmationUseCase) load(ctx context.Context, actor *model.Actor, kind types.RecordKind, rawID string) (*model.Schema, *model.Record, error) {
	schema, err := model.SchemaOf(kind)
	if err != nil {
		return nil, nil, err
	}
	if schema.MutateRule == "" || !uc.policy.Allows(actor, schema.MutateRule) {
		return nil, nil, goerr.Wrap(ErrPermissionDenied, "cannot change record",
			goerr.V(model.KindKey, kind), goerr.V(ActorIDKey, actor.ID))
	}

	rec, err := getRecord(ctx, uc.store, uc.channels, kind, rawID)
	if err != nil {
		return nil, nil, err
	}
	return schema, rec, nil
}

func (uc *ConfirmationUseCase) propose(ctx context.Context, actor *model.Actor, op types.ProposalOp, rec *model.Record, changes model.Fields, responseURL string) *model.Proposal {
	now := uc.clock()
	p := &model.Proposal{
		ID:          model.NewProposalID(),
		Op:          op,
		Kind:        rec.Kind,
		ChannelID:   uc.channels.ForKind(rec.Kind),
		RecordID:    rec.ID,
		ProposerID:  actor.ID,
		Changes:     changes.Clone(),
		State:       types.ProposalStateProposed,
		ResponseURL: responseURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(uc.timeout),
	}

	uc.mu.Lock()
	uc.prune(now)
	uc.proposals[p.ID] = p
	logger := logging.From(ctx)
	uc.timers[p.ID] = time.AfterFunc(uc.timeout, func() {
		uc.expire(logging.With(context.Background(), logger), p.ID)
	})
	uc.mu.Unlock()

	logger.Info("change proposed",
		"proposal_id", p.ID,
		"op", p.Op,
		"kind", p.Kind,
		"record_id", p.RecordID,
		"actor_id", actor.ID)

	return p
}

// prune drops settled proposals past their retention. Caller holds mu.
func (uc *ConfirmationUseCase) prune(now time.Time) {
	for id, p := range uc.proposals {
		if p.State.IsTerminal() && now.After(p.ExpiresAt.Add(proposalRetention)) {
			delete(uc.proposals, id)
		}
	}
}

// claim moves a proposal out of PROPOSED on behalf of actor. Only one
// caller can win the claim.
func (uc *ConfirmationUseCase) claim(actor *model.Actor, id model.ProposalID, to types.ProposalState) (*model.Proposal, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	p, ok := uc.proposals[id]
	if !ok {
		return nil, goerr.Wrap(ErrProposalNotFound, "unknown proposal", goerr.V(ProposalIDKey, id))
	}
	if p.ProposerID != actor.ID {
		return nil, goerr.Wrap(ErrNotProposer, "actor is not the proposer",
			goerr.V(ProposalIDKey, id), goerr.V(ActorIDKey, actor.ID))
	}

	switch {
	case p.State == types.ProposalStateExpired:
		return nil, goerr.Wrap(ErrProposalExpired, "proposal expired", goerr.V(ProposalIDKey, id))
	case p.State.IsTerminal():
		return nil, goerr.Wrap(ErrProposalNotFound, "proposal already settled",
			goerr.V(ProposalIDKey, id), goerr.V("state", p.State))
	case p.Expired(uc.clock()):
		p.State = types.ProposalStateExpired
		uc.stopTimer(id)
		return nil, goerr.Wrap(ErrProposalExpired, "proposal deadline passed", goerr.V(ProposalIDKey, id))
	}

	p.State = to
	uc.stopTimer(id)
	return p, nil
}

// stopTimer disarms the expiry timer. Caller holds mu.
func (uc *ConfirmationUseCase) stopTimer(id model.ProposalID) {
	if t, ok := uc.timers[id]; ok {
		t.Stop()
		delete(uc.timers, id)
	}
}

// Confirm applies a proposal. Only its proposer may confirm, and only
// before the deadline.
func (uc *ConfirmationUseCase) Confirm(ctx context.Context, actor *model.Actor, id model.ProposalID) (*model.Reply, error) {
	p, err := uc.claim(actor, id, types.ProposalStateApplied)
	if err != nil {
		return nil, err
	}
	schema := model.MustSchemaOf(p.Kind)

	switch p.Op {
	case types.ProposalOpEdit:
		err = uc.applyEdit(ctx, p)
	case types.ProposalOpDelete:
		err = uc.store.Delete(ctx, p.ChannelID, p.RecordID)
	default:
		err = goerr.New("unknown proposal op", goerr.V("op", p.Op))
	}
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, newUserError(model.ErrNotFound, "That %s no longer exists. Nothing was changed.", schema.Noun)
		}
		return nil, goerr.Wrap(err, "failed to apply proposal",
			goerr.V(ProposalIDKey, id), goerr.V(model.RecordIDKey, p.RecordID))
	}

	logging.From(ctx).Info("change applied",
		"proposal_id", p.ID,
		"op", p.Op,
		"kind", p.Kind,
		"record_id", p.RecordID,
		"actor_id", actor.ID)

	verb := "updated"
	if p.Op == types.ProposalOpDelete {
		verb = "deleted"
	}
	return &model.Reply{
		Text:            fmt.Sprintf("%s %s.", capitalize(schema.Noun), verb),
		ReplaceOriginal: true,
	}, nil
}

func (uc *ConfirmationUseCase) applyEdit(ctx context.Context, p *model.Proposal) error {
	rec, err := uc.store.Get(ctx, p.ChannelID, p.RecordID)
	if err != nil {
		return err
	}
	if rec.Kind != p.Kind {
		return goerr.Wrap(model.ErrNotFound, "record kind changed", goerr.V(model.RecordIDKey, p.RecordID))
	}
	for _, c := range p.Changes {
		rec.Fields = rec.Fields.With(c.Name, c.Value)
	}
	return uc.store.Update(ctx, p.ChannelID, rec)
}

// Cancel abandons a proposal. Only its proposer may cancel.
func (uc *ConfirmationUseCase) Cancel(ctx context.Context, actor *model.Actor, id model.ProposalID) (*model.Reply, error) {
	p, err := uc.claim(actor, id, types.ProposalStateCancelled)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("change cancelled",
		"proposal_id", p.ID,
		"op", p.Op,
		"record_id", p.RecordID,
		"actor_id", actor.ID)

	op := "edit"
	if p.Op == types.ProposalOpDelete {
		op = "delete"
	}
	return &model.Reply{
		Text:            fmt.Sprintf("%s %s cancelled.", capitalize(model.MustSchemaOf(p.Kind).Noun), op),
		ReplaceOriginal: true,
	}, nil
}

// Proposal returns a copy of a stored proposal
func (uc *ConfirmationUseCase) Proposal(id model.ProposalID) (*model.Proposal, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	p, ok := uc.proposals[id]
	if !ok {
		return nil, false
	}
	c := *p
	c.Changes = p.Changes.Clone()
	return &c, true
}

// expire runs when the confirmation timer fires
func (uc *ConfirmationUseCase) expire(ctx context.Context, id model.ProposalID) {
	uc.mu.Lock()
	p, ok := uc.proposals[id]
	if !ok || p.State != types.ProposalStateProposed {
		uc.mu.Unlock()
		return
	}
	p.State = types.ProposalStateExpired
	delete(uc.timers, id)
	responseURL := p.ResponseURL
	uc.mu.Unlock()

	logging.From(ctx).Info("change expired", "proposal_id", id, "record_id", p.RecordID)

	if responseURL == "" {
		return
	}
	reply := &model.Reply{Text: ExpiredPromptText, ReplaceOriginal: true}
	if err := uc.slack.Respond(ctx, responseURL, reply); err != nil {
		_ = errutil.Handle(ctx, err, "failed to replace expired confirmation prompt")
	}
}

// Close stops every pending timer. Pending proposals stay PROPOSED and
// expire by the clock on the next Confirm.
func (uc *ConfirmationUseCase) Close() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for id, t := range uc.timers {
		t.Stop()
		delete(uc.timers, id)
	}
}
