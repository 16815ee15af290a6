package slack

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/slack-go/slack"
)

// classify maps Slack API error codes onto domain sentinels so callers can
// branch with errors.Is
func classify(err error) error {
	var resp slack.SlackErrorResponse
	if !errors.As(err, &resp) {
		return err
	}

	switch resp.Err {
	case "channel_not_found", "not_in_channel", "is_archived":
		return goerr.Wrap(model.ErrChannelUnavailable, resp.Err)
	case "message_not_found", "thread_not_found", "no_item_specified":
		return goerr.Wrap(model.ErrNotFound, resp.Err)
	}
	return err
}
