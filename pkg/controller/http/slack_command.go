package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/utils/async"
	"github.com/secmon-lab/bailiff/pkg/utils/errutil"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// CommandUseCase runs a slash command and delivers its reply
type CommandUseCase interface {
	Handle(ctx context.Context, cmd *model.Command) error
}

// SlackCommandHandler handles Slack slash command requests
type SlackCommandHandler struct {
	uc       CommandUseCase
	dispatch async.Dispatcher
}

// NewSlackCommandHandler creates a new slash command handler. A nil
// dispatcher runs commands in a background goroutine.
func NewSlackCommandHandler(uc CommandUseCase, dispatch async.Dispatcher) *SlackCommandHandler {
	if dispatch == nil {
		dispatch = async.Dispatch
	}
	return &SlackCommandHandler{uc: uc, dispatch: dispatch}
}

// ServeHTTP acknowledges the command at once; the reply is delivered later
// through the command's response URL
func (h *SlackCommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, err := slack.SlashCommandParse(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
		return
	}

	cmd := &model.Command{
		Name:        strings.TrimPrefix(s.Command, "/"),
		Text:        s.Text,
		ChannelID:   s.ChannelID,
		UserID:      s.UserID,
		ResponseURL: s.ResponseURL,
	}
	if cmd.Name == "" || cmd.UserID == "" || cmd.ResponseURL == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("incomplete slash command",
			goerr.V("command", s.Command), goerr.V("user_id", s.UserID)), http.StatusBadRequest)
		return
	}

	// Return 200 immediately to satisfy Slack's 3-second timeout requirement
	w.WriteHeader(http.StatusOK)

	h.dispatch(ctx, func(ctx context.Context) error {
		logging.From(ctx).Info("processing slash command",
			"command", cmd.Name,
			"channel_id", cmd.ChannelID,
			"user_id", cmd.UserID,
		)
		if err := h.uc.Handle(ctx, cmd); err != nil {
			return goerr.Wrap(err, "failed to handle slash command", goerr.V("command", cmd.Name))
		}
		return nil
	})
}
