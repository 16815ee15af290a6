package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/secmon-lab/bailiff/pkg/domain/types"
	"golang.org/x/text/cases"
)

var footerPattern = regexp.MustCompile(`^(.+) ID: (\d+)$`)

// FormatFooter renders the identifier footer of a panel
func FormatFooter(schema *Schema, id RecordID) string {
	return fmt.Sprintf("%s ID: %d", schema.Label, id)
}

// EncodePanel renders a record into its panel. Fields follow the schema
// order and the footer is written only once the record has an identifier,
// so creating a record takes two passes: render, post, render again with
// the message id, update in place.
func EncodePanel(rec *Record) (*Panel, error) {
	schema, err := SchemaOf(rec.Kind)
	if err != nil {
		return nil, err
	}

	panel := &Panel{
		Title:  schema.Title,
		Text:   schema.Description,
		Color:  ColorNeutral,
		Fields: make(Fields, 0, len(schema.Fields)),
	}

	for _, name := range schema.Fields {
		value := rec.Fields.Get(name)
		if value == "" && schema.isPreserved(name) {
			value = UnknownValue
		}
		panel.Fields = append(panel.Fields, Field{Name: name, Value: value})
	}

	if rec.ID != 0 {
		panel.Footer = FormatFooter(schema, rec.ID)
	}

	switch {
	case rec.Kind.RequiresApproval():
		encodeApproval(panel, schema, rec)

	case rec.Kind == types.RecordKindSessionVote:
		panel.Color = ColorSessionVote
		panel.Controls = []Control{
			{Action: types.ControlActionToggleAttend, Label: "Attend Session", Value: string(rec.Kind), Style: types.ControlStylePrimary},
			{Action: types.ControlActionViewAttendees, Label: "View Attendees", Value: string(rec.Kind)},
		}
	}

	return panel, nil
}

func encodeApproval(panel *Panel, schema *Schema, rec *Record) {
	status := rec.Status.Normalize()
	if !status.IsTerminal() {
		panel.Author = schema.Label + " Pending"
		panel.Controls = []Control{
			{Action: types.ControlActionApprove, Label: "Approve", Value: string(rec.Kind), Style: types.ControlStylePrimary},
			{Action: types.ControlActionDeny, Label: "Deny", Value: string(rec.Kind), Style: types.ControlStyleDanger},
		}
		return
	}

	decidedBy := rec.DecidedBy
	if decidedBy == "" {
		decidedBy = UnknownValue
	}

	// No controls once decided: both buttons go away together.
	if status == types.ApprovalStatusApproved {
		panel.Author = fmt.Sprintf("%s Approved by %s", schema.Label, decidedBy)
		panel.Color = ColorApproved
	} else {
		panel.Author = fmt.Sprintf("%s Denied by %s", schema.Label, decidedBy)
		panel.Color = ColorDenied
	}
}

// DecodePanel reads a record back from a panel. The kind comes from the
// footer label, falling back to the title. Field names are matched exactly
// and unknown names are ignored; a panel without matching fields decodes to
// a record with empty fields rather than an error. A nil panel decodes to
// an empty record.
func DecodePanel(panel *Panel) *Record {
	rec := &Record{}
	if panel == nil {
		return rec
	}

	var schema *Schema
	if m := footerPattern.FindStringSubmatch(panel.Footer); m != nil {
		if schema = schemaByLabel(m[1]); schema != nil {
			if id, err := strconv.ParseInt(m[2], 10, 64); err == nil {
				rec.ID = RecordID(id)
			}
		}
	}
	if schema == nil {
		schema = schemaByTitle(panel.Title)
	}
	if schema == nil {
		return rec
	}

	rec.Kind = schema.Kind
	for _, name := range schema.Fields {
		if v, ok := panel.Fields.Lookup(name); ok {
			rec.Fields = append(rec.Fields, Field{Name: name, Value: v})
		}
	}
	rec.CreatedBy = rec.Fields.Get(schema.CreatorField)

	if schema.Kind.RequiresApproval() {
		rec.Status, rec.DecidedBy = decodeApproval(schema, panel.Author)
	}

	return rec
}

func decodeApproval(schema *Schema, author string) (types.ApprovalStatus, string) {
	if rest, ok := strings.CutPrefix(author, schema.Label+" Approved by "); ok {
		return types.ApprovalStatusApproved, rest
	}
	if rest, ok := strings.CutPrefix(author, schema.Label+" Denied by "); ok {
		return types.ApprovalStatusDenied, rest
	}
	return types.ApprovalStatusPending, ""
}

// MatchField reports whether the named field of rec equals value under
// Unicode case folding. The whole value must match.
func MatchField(rec *Record, name, value string) bool {
	v, ok := rec.Fields.Lookup(name)
	if !ok {
		return false
	}
	// Casers keep state, so each comparison gets its own.
	return cases.Fold().String(v) == cases.Fold().String(value)
}
