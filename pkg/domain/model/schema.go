package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
)

// Field names used by the record schemas. Names are matched exactly.
const (
	FieldRobloxUsername        = "Roblox Username"
	FieldType                  = "Type"
	FieldReason                = "Reason"
	FieldModerator             = "Moderator"
	FieldUserRequested         = "User Requested"
	FieldSuspectUsername       = "Suspect's Username"
	FieldSuspectRobloxUsername = "Suspect's Roblox Username"
	FieldCharges               = "Charges"
	FieldFineAmount            = "Fine Amount"
	FieldIssuingOfficer        = "Issuing Officer"
	FieldArrestingOfficer      = "Arresting Officer"
	FieldWantedLevel           = "Wanted Level"
	FieldSessionTime           = "Session Time"
	FieldHostedBy              = "Hosted By"
)

// UnknownValue replaces an empty preserved field when a panel is re-rendered
const UnknownValue = "Unknown"

// Panel colours
const (
	ColorNeutral     = "#5865F2"
	ColorApproved    = "#57F287"
	ColorDenied      = "#ED4245"
	ColorSessionVote = "#232428"
	ColorAnnounce    = "#2B2D31"
)

// Schema describes how a record kind is laid out on its panel
type Schema struct {
	Kind        types.RecordKind
	Label       string // footer label: "<Label> ID: <id>"
	Title       string
	Noun        string // used in user-facing replies
	Plural      string
	Description string
	Fields      []string

	CreatorField    string
	SubjectField    string // the field search-by-field compares against
	EditableFields  []string
	PreservedFields []string // rendered as UnknownValue when empty

	CreateRule RuleName
	ReadRule   RuleName // empty: any member may look records up
	MutateRule RuleName // empty: records cannot be edited or deleted
	DecideRule RuleName
}

// IsEditable reports whether name may be changed by an edit proposal
func (s *Schema) IsEditable(name string) bool {
	return contains(s.EditableFields, name)
}

func (s *Schema) isPreserved(name string) bool {
	return contains(s.PreservedFields, name)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

var schemas = map[types.RecordKind]*Schema{
	types.RecordKindWarrant: {
		Kind:            types.RecordKindWarrant,
		Label:           "Warrant",
		Title:           "Warrant Request",
		Noun:            "warrant",
		Plural:          "warrants",
		Fields:          []string{FieldUserRequested, FieldSuspectUsername, FieldCharges},
		CreatorField:    FieldUserRequested,
		SubjectField:    FieldSuspectUsername,
		PreservedFields: []string{FieldUserRequested, FieldSuspectUsername},
		CreateRule:      RuleWarrantCreate,
		DecideRule:      RuleWarrantDecide,
	},
	types.RecordKindMostWanted: {
		Kind:            types.RecordKindMostWanted,
		Label:           "Most Wanted",
		Title:           "Most Wanted Request",
		Noun:            "most wanted entry",
		Plural:          "most wanted entries",
		Fields:          []string{FieldUserRequested, FieldSuspectRobloxUsername, FieldCharges, FieldWantedLevel},
		CreatorField:    FieldUserRequested,
		SubjectField:    FieldSuspectRobloxUsername,
		PreservedFields: []string{FieldUserRequested, FieldSuspectRobloxUsername},
		CreateRule:      RuleMostWantedCreate,
		DecideRule:      RuleMostWantedDecide,
	},
	types.RecordKindModerationLog: {
		Kind:            types.RecordKindModerationLog,
		Label:           "Moderation",
		Title:           "Moderation Log",
		Noun:            "moderation log",
		Plural:          "moderation logs",
		Fields:          []string{FieldRobloxUsername, FieldType, FieldReason, FieldModerator},
		CreatorField:    FieldModerator,
		SubjectField:    FieldRobloxUsername,
		EditableFields:  []string{FieldType, FieldReason},
		PreservedFields: []string{FieldRobloxUsername, FieldModerator},
		CreateRule:      RuleModeration,
		ReadRule:        RuleModeration,
		MutateRule:      RuleModeration,
	},
	types.RecordKindCitation: {
		Kind:            types.RecordKindCitation,
		Label:           "Citation",
		Title:           "Citation Log",
		Noun:            "citation",
		Plural:          "citations",
		Fields:          []string{FieldSuspectRobloxUsername, FieldReason, FieldFineAmount, FieldIssuingOfficer},
		CreatorField:    FieldIssuingOfficer,
		SubjectField:    FieldSuspectRobloxUsername,
		EditableFields:  []string{FieldReason, FieldFineAmount},
		PreservedFields: []string{FieldSuspectRobloxUsername, FieldIssuingOfficer},
		CreateRule:      RuleCitation,
		ReadRule:        RuleCitation,
		MutateRule:      RuleCitation,
	},
	types.RecordKindArrest: {
		Kind:            types.RecordKindArrest,
		Label:           "Arrest",
		Title:           "Arrest Log",
		Noun:            "arrest log",
		Plural:          "arrest logs",
		Fields:          []string{FieldSuspectRobloxUsername, FieldCharges, FieldArrestingOfficer},
		CreatorField:    FieldArrestingOfficer,
		SubjectField:    FieldSuspectRobloxUsername,
		EditableFields:  []string{FieldCharges},
		PreservedFields: []string{FieldSuspectRobloxUsername, FieldArrestingOfficer},
		CreateRule:      RuleArrest,
		ReadRule:        RuleArrest,
		MutateRule:      RuleArrest,
	},
	types.RecordKindSessionVote: {
		Kind:   types.RecordKindSessionVote,
		Label:  "Session Vote",
		Title:  "Session Vote",
		Noun:   "session vote",
		Plural: "session votes",
		Description: "A session vote is being held. The time for the session is listed below. " +
			"If you plan to attend, please use the green button listed below to mark your attendance. " +
			"If you fail to join the session within *15* minutes of it starting after voting, you will be moderated.",
		Fields:       []string{FieldSessionTime, FieldHostedBy},
		CreatorField: FieldHostedBy,
		SubjectField: FieldSessionTime,
		CreateRule:   RuleSessionVoteStart,
		ReadRule:     RuleSessionVoteView,
	},
}

// SchemaOf returns the schema of a record kind
func SchemaOf(kind types.RecordKind) (*Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, goerr.Wrap(ErrInvalidRecord, "unknown record kind", goerr.V(KindKey, kind))
	}
	return s, nil
}

// MustSchemaOf is SchemaOf for kinds known at compile time
func MustSchemaOf(kind types.RecordKind) *Schema {
	s, err := SchemaOf(kind)
	if err != nil {
		panic(err)
	}
	return s
}

func schemaByLabel(label string) *Schema {
	for _, s := range schemas {
		if s.Label == label {
			return s
		}
	}
	return nil
}

func schemaByTitle(title string) *Schema {
	for _, s := range schemas {
		if s.Title == title {
			return s
		}
	}
	return nil
}
