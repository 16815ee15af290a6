package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/service/slack"
	"github.com/secmon-lab/bailiff/pkg/usecase"
)

func TestReactionUseCase_Fetch(t *testing.T) {
	ctx := context.Background()
	const ts = "1712345678.123456"

	setup := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.slack.reactions[ts] = []slack.Reaction{
			{Name: "white_check_mark", Count: 3, Users: []string{"U1", "B1", "U2"}},
			{Name: "robot", Count: 1, Users: []string{"B1"}},
		}
		f.slack.users["B1"] = &slack.User{ID: "B1", IsBot: true}
		return f
	}

	t.Run("lists humans in order", func(t *testing.T) {
		f := setup(t)
		for _, emoji := range []string{"white_check_mark", ":white_check_mark:"} {
			reply, err := f.uc.Reaction.Fetch(ctx, staff, "C_GENERAL", "1712345678123456", emoji)
			gt.NoError(t, err).Required()
			gt.Value(t, reply.Text).Equal("Users who reacted (2):\n<@U1>\n<@U2>")
		}
	})

	t.Run("only bots reacted", func(t *testing.T) {
		f := setup(t)
		reply, err := f.uc.Reaction.Fetch(ctx, staff, "C_GENERAL", ts, "robot")
		gt.NoError(t, err).Required()
		gt.Value(t, reply.Text).Equal("No users have reacted with that emoji.")
	})

	t.Run("reaction missing", func(t *testing.T) {
		f := setup(t)
		_, err := f.uc.Reaction.Fetch(ctx, staff, "C_GENERAL", ts, "fire")
		gt.Error(t, err).Is(usecase.ErrReactionNotFound)
		gt.Value(t, usecase.UserMessage(err)).Equal("That reaction was not found on the message.")
	})

	t.Run("message missing", func(t *testing.T) {
		f := setup(t)
		_, err := f.uc.Reaction.Fetch(ctx, staff, "C_GENERAL", "1712345678000000", "fire")
		gt.Error(t, err).Is(model.ErrNotFound)
		gt.Value(t, usecase.UserMessage(err)).Equal("Could not find a message with that ID in this channel.")
	})

	t.Run("requires rule", func(t *testing.T) {
		f := setup(t)
		_, err := f.uc.Reaction.Fetch(ctx, member, "C_GENERAL", ts, "robot")
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})
}
