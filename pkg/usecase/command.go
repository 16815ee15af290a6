package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/utils/errutil"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/secmon-lab/bailiff/pkg/utils/metrics"
)

// MaxWantedLevel is the highest wanted level a most wanted entry can have
const MaxWantedLevel = 5

type commandFunc func(ctx context.Context, actor *model.Actor, cmd *model.Command, args []string) (*model.Reply, error)

// commandDef describes one slash command
type commandDef struct {
	name        string
	params      []string
	rest        int // index of the parameter that takes surplus words
	description string
	run         commandFunc
}

func (d *commandDef) usage() string {
	var b strings.Builder
	b.WriteString("/" + d.name)
	for _, p := range d.params {
		fmt.Fprintf(&b, " <%s>", p)
	}
	return b.String()
}

// CommandUseCase parses and runs slash commands
type CommandUseCase struct {
	slack    slack.Service
	metrics  *metrics.Metrics
	commands map[string]*commandDef
	order    []string
}

func NewCommandUseCase(uc *UseCases) *CommandUseCase {
	c := &CommandUseCase{
		slack:    uc.slack,
		metrics:  uc.metrics,
		commands: make(map[string]*commandDef),
	}

	c.register(&commandDef{
		name: "ssu", description: "Send the server start-up announcement",
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, _ []string) (*model.Reply, error) {
			return uc.Announcement.Startup(ctx, actor)
		},
	})
	c.register(&commandDef{
		name: "ssd", description: "Send the server shut-down announcement",
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, _ []string) (*model.Reply, error) {
			return uc.Announcement.Shutdown(ctx, actor)
		},
	})

	c.register(&commandDef{
		name: "warrant", params: []string{"suspect", "charges"}, rest: 1,
		description: "Create a warrant request",
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, args []string) (*model.Reply, error) {
			return uc.Record.Create(ctx, actor, types.RecordKindWarrant, model.Fields{
				{Name: model.FieldSuspectUsername, Value: args[0]},
				{Name: model.FieldCharges, Value: args[1]},
			})
		},
	})
	c.register(&commandDef{
		name: "most_wanted", params: []string{"suspect", "charges", "stars"}, rest: 1,
		description: "Create a most wanted request with a wanted level of 1 to 5 stars",
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, args []string) (*model.Reply, error) {
			level, err := wantedLevel(args[2])
			if err != nil {
				return nil, err
			}
			return uc.Record.Create(ctx, actor, types.RecordKindMostWanted, model.Fields{
				{Name: model.FieldSuspectRobloxUsername, Value: args[0]},
				{Name: model.FieldCharges, Value: args[1]},
				{Name: model.FieldWantedLevel, Value: level},
			})
		},
	})

	c.register(&commandDef{
		name: "log_moderation", params: []string{"roblox_user", "type", "reason"}, rest: 2,
		description: "Log a moderation action",
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, args []string) (*model.Reply, error) {
			return uc.Record.Create(ctx, actor, types.RecordKindModerationLog, model.Fields{
				{Name: model.FieldRobloxUsername, Value: args[0]},
				{Name: model.FieldType, Value: args[1]},
				{Name: model.FieldReason, Value: args[2]},
			})
		},
	})
	c.register(&commandDef{
		name: "citation_log", params: []string{"suspect", "reason", "fine"}, rest: 1,
		description: "Log a citation",
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, args []string) (*model.Reply, error) {
			return uc.Record.Create(ctx, actor, types.RecordKindCitation, model.Fields{
				{Name: model.FieldSuspectRobloxUsername, Value: args[0]},
				{Name: model.FieldReason, Value: args[1]},
				{Name: model.FieldFineAmount, Value: args[2]},
			})
		},
	})
	c.register(&commandDef{
		name: "arrest_log", params: []string{"suspect", "charges"}, rest: 1,
		description: "Log an arrest",
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, args []string) (*model.Reply, error) {
			return uc.Record.Create(ctx, actor, types.RecordKindArrest, model.Fields{
				{Name: model.FieldSuspectRobloxUsername, Value: args[0]},
				{Name: model.FieldCharges, Value: args[1]},
			})
		},
	})

	c.registerLookup(uc, "warrant_lookup", types.RecordKindWarrant)
	c.registerLookup(uc, "most_wanted_lookup", types.RecordKindMostWanted)
	c.registerLookup(uc, "moderation_lookup", types.RecordKindModerationLog)
	c.registerLookup(uc, "citation_lookup", types.RecordKindCitation)
	c.registerLookup(uc, "arrest_lookup", types.RecordKindArrest)

	c.registerSearch(uc, "moderation_logs", "roblox_user", types.RecordKindModerationLog)
	c.registerSearch(uc, "citation_logs", "suspect", types.RecordKindCitation)
	c.registerSearch(uc, "arrest_logs", "suspect", types.RecordKindArrest)

	c.registerEdit(uc, "moderation_edit", types.RecordKindModerationLog,
		[]string{"new_type", "new_reason"}, []string{model.FieldType, model.FieldReason}, 2)
	c.registerEdit(uc, "citation_edit", types.RecordKindCitation,
		[]string{"reason", "fine"}, []string{model.FieldReason, model.FieldFineAmount}, 1)
	c.registerEdit(uc, "arrest_edit", types.RecordKindArrest,
		[]string{"charges"}, []string{model.FieldCharges}, 1)

	c.registerDelete(uc, "moderation_delete", types.RecordKindModerationLog)
	c.registerDelete(uc, "citation_delete", types.RecordKindCitation)
	c.registerDelete(uc, "arrest_delete", types.RecordKindArrest)

	c.register(&commandDef{
		name: "ssu_vote", params: []string{"session_time"},
		description: "Start a session vote",
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, args []string) (*model.Reply, error) {
			return uc.Ballot.Start(ctx, actor, args[0])
		},
	})
	c.register(&commandDef{
		name: "fetch_reactions", params: []string{"message_id", "emoji"}, rest: 1,
		description: "List the users who reacted to a message in this channel",
		run: func(ctx context.Context, actor *model.Actor, cmd *model.Command, args []string) (*model.Reply, error) {
			return uc.Reaction.Fetch(ctx, actor, cmd.ChannelID, args[0], args[1])
		},
	})
	c.register(&commandDef{
		name: "bailiff_help", description: "List the available commands",
		run: func(_ context.Context, _ *model.Actor, _ *model.Command, _ []string) (*model.Reply, error) {
			return model.TextReply(c.help()), nil
		},
	})

	return c
}

func (c *CommandUseCase) register(def *commandDef) {
	c.commands[def.name] = def
	c.order = append(c.order, def.name)
}

func (c *CommandUseCase) registerLookup(uc *UseCases, name string, kind types.RecordKind) {
	schema := model.MustSchemaOf(kind)
	c.register(&commandDef{
		name: name, params: []string{"id"},
		description: fmt.Sprintf("Show a %s by ID", schema.Noun),
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, args []string) (*model.Reply, error) {
			return uc.Record.Lookup(ctx, actor, kind, args[0])
		},
	})
}

func (c *CommandUseCase) registerSearch(uc *UseCases, name, param string, kind types.RecordKind) {
	schema := model.MustSchemaOf(kind)
	c.register(&commandDef{
		name: name, params: []string{param},
		description: fmt.Sprintf("Search %s by %s", schema.Plural, strings.ToLower(schema.SubjectField)),
		run: func(ctx context.Context, actor *model.Actor, _ *model.Command, args []string) (*model.Reply, error) {
			return uc.Record.Search(ctx, actor, kind, args[0])
		},
	})
}

func (c *CommandUseCase) registerEdit(uc *UseCases, name string, kind types.RecordKind, params, fields []string, rest int) {
	schema := model.MustSchemaOf(kind)
	c.register(&commandDef{
		name: name, params: append([]string{"id"}, params...), rest: rest,
		description: fmt.Sprintf("Edit a %s (asks for confirmation)", schema.Noun),
		run: func(ctx context.Context, actor *model.Actor, cmd *model.Command, args []string) (*model.Reply, error) {
			changes := make(model.Fields, len(fields))
			for i, f := range fields {
				changes[i] = model.Field{Name: f, Value: args[i+1]}
			}
			return uc.Confirmation.ProposeEdit(ctx, actor, kind, args[0], changes, cmd.ResponseURL)
		},
	})
}

func (c *CommandUseCase) registerDelete(uc *UseCases, name string, kind types.RecordKind) {
	schema := model.MustSchemaOf(kind)
	c.register(&commandDef{
		name: name, params: []string{"id"},
		description: fmt.Sprintf("Delete a %s (asks for confirmation)", schema.Noun),
		run: func(ctx context.Context, actor *model.Actor, cmd *model.Command, args []string) (*model.Reply, error) {
			return uc.Confirmation.ProposeDelete(ctx, actor, kind, args[0], cmd.ResponseURL)
		},
	})
}

func (c *CommandUseCase) help() string {
	var b strings.Builder
	b.WriteString("*Commands:*")
	for _, name := range c.order {
		def := c.commands[name]
		fmt.Fprintf(&b, "\n`%s` %s", def.usage(), def.description)
	}
	return b.String()
}

// Names returns the registered command names in registration order
func (c *CommandUseCase) Names() []string {
	return append([]string{}, c.order...)
}

// wantedLevel renders a 1 to 5 star rating
func wantedLevel(raw string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > MaxWantedLevel {
		return "", newUserError(ErrInvalidArgument, "Stars must be a whole number from 1 to %d.", MaxWantedLevel)
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", MaxWantedLevel-n), nil
}

// Execute runs a command and returns its reply
func (c *CommandUseCase) Execute(ctx context.Context, cmd *model.Command) (*model.Reply, error) {
	def, ok := c.commands[cmd.Name]
	if !ok {
		return nil, goerr.Wrap(ErrUnknownCommand, "command is not registered", goerr.V(CommandKey, cmd.Name))
	}

	actor, err := c.slack.GetActor(ctx, cmd.UserID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve actor", goerr.V(ActorIDKey, cmd.UserID))
	}

	args, err := splitArgs(cmd.Text)
	if err != nil {
		return nil, newUserError(err, "Usage: `%s` (close every quote)", def.usage())
	}
	bound, ok := bindArgs(args, len(def.params), def.rest)
	if !ok {
		return nil, newUserError(ErrInvalidArgument, "Usage: `%s`", def.usage())
	}

	return def.run(ctx, actor, cmd, bound)
}

// Handle runs a command and delivers the reply through its response URL.
// Failures become a user-facing reply; only unexpected ones are reported.
func (c *CommandUseCase) Handle(ctx context.Context, cmd *model.Command) error {
	ctx = logging.With(ctx, logging.From(ctx).With("command", cmd.Name, "user_id", cmd.UserID))

	reply, err := c.Execute(ctx, cmd)
	c.metrics.ObserveCommand(c.metricName(cmd.Name), outcomeOf(err))
	if err != nil {
		reply = failureReply(ctx, err, "failed to handle command")
	}

	if err := c.slack.Respond(ctx, cmd.ResponseURL, reply); err != nil {
		return goerr.Wrap(err, "failed to respond to command", goerr.V(CommandKey, cmd.Name))
	}
	return nil
}

// metricName keeps label cardinality bounded
func (c *CommandUseCase) metricName(name string) string {
	if _, ok := c.commands[name]; ok {
		return name
	}
	return "unknown"
}

// failureReply logs err at the right level and returns the text for the actor
func failureReply(ctx context.Context, err error, msg string) *model.Reply {
	if IsUserError(err) {
		logging.From(ctx).Info("request rejected", "reason", err.Error())
	} else {
		_ = errutil.Handle(ctx, err, msg)
	}
	return model.TextReply(UserMessage(err))
}
