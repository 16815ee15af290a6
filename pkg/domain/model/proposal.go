package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
)

// ProposalID identifies a pending edit or delete
type ProposalID string

// NewProposalID creates a new time-ordered proposal ID
func NewProposalID() ProposalID {
	return ProposalID(uuid.Must(uuid.NewV7()).String())
}

func (id ProposalID) String() string {
	return string(id)
}

// Proposal is a mutation that waits for its proposer to confirm it
type Proposal struct {
	ID         ProposalID
	Op         types.ProposalOp
	Kind       types.RecordKind
	ChannelID  string
	RecordID   RecordID
	ProposerID string
	Changes    Fields // edit only
	State      types.ProposalState

	// ResponseURL points at the ephemeral prompt so it can be replaced once
	// the proposal is settled.
	ResponseURL string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the confirmation window has closed at now
func (p *Proposal) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
