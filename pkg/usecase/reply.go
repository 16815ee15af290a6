package usecase

import (
	"errors"

	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/utils/metrics"
)

// GenericFailureMessage is shown when an error has no user-facing mapping
const GenericFailureMessage = "Something went wrong while handling your request. Please try again later."

var userMessages = []struct {
	err error
	msg string
}{
	{ErrPermissionDenied, "You do not have permission to use this command."},
	{ErrNothingToUpdate, "No record found to update."},
	{ErrAlreadyDecided, "This request has already been decided."},
	{ErrNotProposer, "You are not allowed to interact with this confirmation."},
	{ErrProposalExpired, "This confirmation has expired. Nothing was changed."},
	{ErrProposalNotFound, "This confirmation was already handled."},
	{ErrBallotClosed, "This session vote is no longer accepting responses."},
	{ErrReactionNotFound, "That reaction was not found on the message."},
	{ErrUnknownCommand, "Unknown command. Use /bailiff_help to list commands."},
	{model.ErrNotFound, "No record found with that ID."},
	{model.ErrMalformedRecord, "That message does not contain a record."},
	{model.ErrInvalidRecordID, "That is not a valid ID. Use the number shown in the record footer."},
	{model.ErrChannelUnavailable, "The configured channel could not be found. Ask an administrator to check the bot configuration."},
	{model.ErrUpstreamUnavailable, "The game server is not responding. Please try again later."},
}

// UserMessage turns an error into the text shown to the invoking actor.
// Known errors never leak internal details.
func UserMessage(err error) string {
	var ue *userError
	if errors.As(err, &ue) {
		return ue.msg
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return GenericFailureMessage
}

// IsUserError reports whether err is an expected rejection rather than a
// failure worth reporting
func IsUserError(err error) bool {
	var ue *userError
	if errors.As(err, &ue) {
		return true
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) && m.err != model.ErrChannelUnavailable {
			return true
		}
	}
	return errors.Is(err, ErrInvalidArgument)
}

// outcomeOf classifies err for metrics
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case IsUserError(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
