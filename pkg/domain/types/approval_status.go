package types

import "fmt"

// ApprovalStatus is the decision state of a warrant or most-wanted record
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusDenied   ApprovalStatus = "DENIED"
)

// IsValid checks if the approval status is valid
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending,
		ApprovalStatusApproved,
		ApprovalStatusDenied:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusDenied
}

// Normalize returns the status, treating empty as pending
func (s ApprovalStatus) Normalize() ApprovalStatus {
	if s == "" {
		return ApprovalStatusPending
	}
	return s
}

// String returns the string representation of the approval status
func (s ApprovalStatus) String() string {
	return string(s)
}

// ParseApprovalStatus parses a string into an ApprovalStatus
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	status := ApprovalStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid approval status: %s", s)
	}
	return status, nil
}

// Decision is an approval panel outcome chosen by a decider
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionDeny    Decision = "DENY"
)

// Status returns the terminal status a decision leads to
func (d Decision) Status() ApprovalStatus {
	switch d {
	case DecisionApprove:
		return ApprovalStatusApproved
	case DecisionDeny:
		return ApprovalStatusDenied
	default:
		return ""
	}
}

// Verb returns the past-tense word used on the rendered panel
func (d Decision) Verb() string {
	switch d {
	case DecisionApprove:
		return "Approved"
	case DecisionDeny:
		return "Denied"
	default:
		return ""
	}
}
