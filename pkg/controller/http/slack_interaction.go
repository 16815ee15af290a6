package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"github.com/secmon-lab/bailiff/pkg/utils/async"
	"github.com/secmon-lab/bailiff/pkg/utils/errutil"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// InteractionUseCase runs a button press and delivers its reply
type InteractionUseCase interface {
	Handle(ctx context.Context, in *model.Interaction) error
}

// SlackInteractionHandler handles Slack interactive component payloads (button clicks, etc.)
type SlackInteractionHandler struct {
	uc       InteractionUseCase
	dispatch async.Dispatcher
}

// NewSlackInteractionHandler creates a new Slack interaction handler. A nil
// dispatcher runs interactions in a background goroutine.
func NewSlackInteractionHandler(uc InteractionUseCase, dispatch async.Dispatcher) *SlackInteractionHandler {
	if dispatch == nil {
		dispatch = async.Dispatch
	}
	return &SlackInteractionHandler{uc: uc, dispatch: dispatch}
}

// ServeHTTP handles Slack interaction webhook requests
func (h *SlackInteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Slack sends interaction payloads as application/x-www-form-urlencoded
	// with a "payload" field containing JSON
	payload := r.FormValue("payload")
	if payload == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing payload field in interaction request"), http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse interaction payload"), http.StatusBadRequest)
		return
	}

	// Only handle block_actions (button clicks)
	if callback.Type != slack.InteractionTypeBlockActions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var interactions []*model.Interaction
	for _, action := range callback.ActionCallback.BlockActions {
		control := types.ControlAction(action.ActionID)
		if !control.IsValid() {
			logging.From(ctx).Warn("unknown slack action", "action_id", action.ActionID)
			continue
		}

		channelID := callback.Container.ChannelID
		if channelID == "" {
			channelID = callback.Channel.ID
		}
		interactions = append(interactions, &model.Interaction{
			Control:     model.Control{Action: control, Value: action.Value},
			ChannelID:   channelID,
			MessageTS:   callback.Container.MessageTs,
			UserID:      callback.User.ID,
			ResponseURL: callback.ResponseURL,
		})
	}

	w.WriteHeader(http.StatusOK)

	for _, in := range interactions {
		h.dispatch(ctx, func(ctx context.Context) error {
			if err := h.uc.Handle(ctx, in); err != nil {
				return goerr.Wrap(err, "failed to handle slack interaction",
					goerr.V("action", in.Control.Action), goerr.V("user_id", in.UserID))
			}
			return nil
		})
	}
}
