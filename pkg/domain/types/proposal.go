package types

// ProposalOp is the mutation a confirmation prompt guards
type ProposalOp string

const (
	ProposalOpEdit   ProposalOp = "EDIT"
	ProposalOpDelete ProposalOp = "DELETE"
)

// ProposalState is the lifecycle state of a pending mutation
type ProposalState string

const (
	ProposalStateProposed  ProposalState = "PROPOSED"
	ProposalStateApplied   ProposalState = "APPLIED"
	ProposalStateCancelled ProposalState = "CANCELLED"
	ProposalStateExpired   ProposalState = "EXPIRED"
)

// IsTerminal reports whether the proposal accepts no further transitions
func (s ProposalState) IsTerminal() bool {
	return s != ProposalStateProposed
}

// Attendance is the result of toggling an attendance ballot
type Attendance string

const (
	AttendancePresent Attendance = "PRESENT"
	AttendanceAbsent  Attendance = "ABSENT"
)
