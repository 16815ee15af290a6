package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/interfaces"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/model/config"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
)

// RecordUseCase creates, looks up and searches records
type RecordUseCase struct {
	store    interfaces.RecordStore
	slack    slack.Service
	policy   *model.AccessPolicy
	channels *config.Channels
}

func NewRecordUseCase(store interfaces.RecordStore, slackSvc slack.Service, policy *model.AccessPolicy, channels *config.Channels) *RecordUseCase {
	return &RecordUseCase{
		store:    store,
		slack:    slackSvc,
		policy:   policy,
		channels: channels,
	}
}

// channelOf returns the channel holding records of kind
func channelOf(channels *config.Channels, kind types.RecordKind) (string, error) {
	id := channels.ForKind(kind)
	if id == "" {
		return "", goerr.Wrap(model.ErrChannelUnavailable, "no channel configured", goerr.V(model.KindKey, kind))
	}
	return id, nil
}

// Create posts a new record to its kind's channel. The creator field is
// filled with the actor; approval kinds start pending.
func (uc *RecordUseCase) Create(ctx context.Context, actor *model.Actor, kind types.RecordKind, fields model.Fields) (*model.Reply, error) {
	schema, err := model.SchemaOf(kind)
	if err != nil {
		return nil, err
	}
	if !uc.policy.Allows(actor, schema.CreateRule) {
		return nil, goerr.Wrap(ErrPermissionDenied, "cannot create record",
			goerr.V(model.KindKey, kind), goerr.V(ActorIDKey, actor.ID))
	}

	channelID, err := channelOf(uc.channels, kind)
	if err != nil {
		return nil, err
	}

	rec := &model.Record{
		Kind:   kind,
		Fields: fields.With(schema.CreatorField, actor.Mention()),
	}
	if kind.RequiresApproval() {
		rec.Status = types.ApprovalStatusPending
	}
	if err := rec.Validate(); err != nil {
		return nil, newUserError(ErrInvalidArgument, "Every field of a %s must have a value.", schema.Noun)
	}

	created, err := uc.store.Create(ctx, channelID, rec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create record", goerr.V(model.KindKey, kind))
	}

	logging.From(ctx).Info("record created",
		"kind", kind,
		"channel_id", channelID,
		"record_id", created.ID,
		"actor_id", actor.ID)

	return model.TextReply(fmt.Sprintf("%s created in <#%s>. ID: %s", schema.Label, channelID, created.ID)), nil
}

// Lookup returns the panel of one record, without its controls
func (uc *RecordUseCase) Lookup(ctx context.Context, actor *model.Actor, kind types.RecordKind, rawID string) (*model.Reply, error) {
	schema, err := model.SchemaOf(kind)
	if err != nil {
		return nil, err
	}
	if schema.ReadRule != "" && !uc.policy.Allows(actor, schema.ReadRule) {
		return nil, goerr.Wrap(ErrPermissionDenied, "cannot read record",
			goerr.V(model.KindKey, kind), goerr.V(ActorIDKey, actor.ID))
	}

	rec, err := uc.get(ctx, kind, rawID)
	if err != nil {
		return nil, err
	}

	panel, err := model.EncodePanel(rec)
	if err != nil {
		return nil, err
	}
	panel.Controls = nil

	return &model.Reply{Panel: panel}, nil
}

// get loads a record of kind from the kind's channel. A record of another
// kind under the same ID is reported as not found.
func (uc *RecordUseCase) get(ctx context.Context, kind types.RecordKind, rawID string) (*model.Record, error) {
	return getRecord(ctx, uc.store, uc.channels, kind, rawID)
}

func getRecord(ctx context.Context, store interfaces.RecordStore, channels *config.Channels, kind types.RecordKind, rawID string) (*model.Record, error) {
	id, err := model.ParseRecordID(rawID)
	if err != nil {
		return nil, err
	}
	channelID, err := channelOf(channels, kind)
	if err != nil {
		return nil, err
	}

	rec, err := store.Get(ctx, channelID, id)
	if err != nil {
		return nil, err
	}
	if rec.Kind != kind {
		return nil, goerr.Wrap(model.ErrNotFound, "record has another kind",
			goerr.V(model.RecordIDKey, id), goerr.V(model.KindKey, rec.Kind))
	}
	return rec, nil
}

// Search lists the records whose subject field equals value, ignoring case
func (uc *RecordUseCase) Search(ctx context.Context, actor *model.Actor, kind types.RecordKind, value string) (*model.Reply, error) {
	schema, err := model.SchemaOf(kind)
	if err != nil {
		return nil, err
	}
	if schema.ReadRule != "" && !uc.policy.Allows(actor, schema.ReadRule) {
		return nil, goerr.Wrap(ErrPermissionDenied, "cannot search records",
			goerr.V(model.KindKey, kind), goerr.V(ActorIDKey, actor.ID))
	}

	channelID, err := channelOf(uc.channels, kind)
	if err != nil {
		return nil, err
	}

	query := interfaces.SearchQuery{
		Kind:  kind,
		Field: schema.SubjectField,
		Value: value,
		Limit: interfaces.MaxSearchLimit,
	}

	var entries []string
	for rec, err := range uc.store.Search(ctx, channelID, query) {
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search records", goerr.V(model.KindKey, kind))
		}
		entries = append(entries, uc.formatEntry(ctx, schema, channelID, rec))
	}

	if len(entries) == 0 {
		return model.TextReply(fmt.Sprintf("No %s found for '%s'.", schema.Plural, value)), nil
	}

	header := fmt.Sprintf("*%s for '%s' (%d):*", capitalize(schema.Plural), value, len(entries))
	return model.TextReply(header + "\n\n" + strings.Join(entries, "\n\n")), nil
}

func (uc *RecordUseCase) formatEntry(ctx context.Context, schema *model.Schema, channelID string, rec *model.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*ID:* %s\n", rec.ID)
	for _, name := range schema.Fields {
		fmt.Fprintf(&b, "*%s:* %s\n", name, rec.Fields.Get(name))
	}

	link, err := uc.slack.GetPermalink(ctx, channelID, rec.ID.Timestamp())
	if err != nil {
		logging.From(ctx).Warn("failed to get permalink",
			"error", err.Error(),
			"channel_id", channelID,
			"record_id", rec.ID)
		link = model.UnknownValue
	}
	fmt.Fprintf(&b, "*Link:* %s", link)
	return b.String()
}

// capitalize upper-cases the first letter of an ASCII phrase
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
