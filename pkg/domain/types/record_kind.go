package types

import "fmt"

// RecordKind is the schema variant of a case record
type RecordKind string

const (
	RecordKindWarrant       RecordKind = "WARRANT"
	RecordKindModerationLog RecordKind = "MODERATION_LOG"
	RecordKindCitation      RecordKind = "CITATION"
	RecordKindArrest        RecordKind = "ARREST"
	RecordKindMostWanted    RecordKind = "MOST_WANTED"
	RecordKindSessionVote   RecordKind = "SESSION_VOTE"
)

// AllRecordKinds returns all valid record kinds
func AllRecordKinds() []RecordKind {
	return []RecordKind{
		RecordKindWarrant,
		RecordKindModerationLog,
		RecordKindCitation,
		RecordKindArrest,
		RecordKindMostWanted,
		RecordKindSessionVote,
	}
}

// IsValid checks if the record kind is valid
func (k RecordKind) IsValid() bool {
	switch k {
	case RecordKindWarrant,
		RecordKindModerationLog,
		RecordKindCitation,
		RecordKindArrest,
		RecordKindMostWanted,
		RecordKindSessionVote:
		return true
	default:
		return false
	}
}

// RequiresApproval reports whether records of this kind carry an approval status
func (k RecordKind) RequiresApproval() bool {
	return k == RecordKindWarrant || k == RecordKindMostWanted
}

// String returns the string representation of the record kind
func (k RecordKind) String() string {
	return string(k)
}

// ParseRecordKind parses a string into a RecordKind
func ParseRecordKind(s string) (RecordKind, error) {
	kind := RecordKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid record kind: %s", s)
	}
	return kind, nil
}
