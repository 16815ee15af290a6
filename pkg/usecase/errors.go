package usecase

import (
	"errors"
	"fmt"
)

// Sentinel errors for use case layer
var (
	// Access control errors
	ErrPermissionDenied = errors.New("permission denied")

	// Approval errors
	ErrNothingToUpdate = errors.New("message has no record panel to update")
	ErrAlreadyDecided  = errors.New("request was already decided")

	// Confirmation errors
	ErrNotProposer      = errors.New("only the proposer may settle this confirmation")
	ErrProposalExpired  = errors.New("confirmation expired")
	ErrProposalNotFound = errors.New("confirmation not found or already settled")

	// Ballot errors
	ErrBallotClosed = errors.New("ballot is closed")

	// Reaction errors
	ErrReactionNotFound = errors.New("reaction not found on message")

	// Input errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownCommand  = errors.New("unknown command")
)

// Context keys for error values
const (
	CommandKey    = "command"
	ProposalIDKey = "proposal_id"
	ActorIDKey    = "actor_id"
)

// userError carries the exact text shown to the invoking actor while still
// matching its cause with errors.Is
type userError struct {
	msg   string
	cause error
}

func (e *userError) Error() string {
	return fmt.Sprintf("%s: %s", e.cause.Error(), e.msg)
}

func (e *userError) Unwrap() error {
	return e.cause
}

func newUserError(cause error, format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...), cause: cause}
}
