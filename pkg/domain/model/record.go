package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
)

// RecordID is the platform-assigned identifier of the message hosting a
// record. It is unique within a channel and never changes.
type RecordID int64

// String returns the decimal form shown in panel footers
func (id RecordID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseRecordID parses a user supplied identifier. Both the footer form
// ("1712345678123456") and the Slack timestamp form ("1712345678.123456")
// are accepted.
func ParseRecordID(s string) (RecordID, error) {
	s = strings.TrimSpace(s)
	if sec, frac, ok := strings.Cut(s, "."); ok {
		if len(frac) != 6 {
			return 0, goerr.Wrap(ErrInvalidRecordID, "timestamp fraction must have 6 digits", goerr.V("id", s))
		}
		s = sec + frac
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(ErrInvalidRecordID, "not a number", goerr.V("id", s))
	}
	if v <= 0 {
		return 0, goerr.Wrap(ErrInvalidRecordID, "must be positive", goerr.V("id", s))
	}
	return RecordID(v), nil
}

// Field is one labelled value of a panel
type Field struct {
	Name  string
	Value string
}

// Fields is an ordered list of fields; order is the rendering order
type Fields []Field

// Get returns the value of the first field with the exact name
func (f Fields) Get(name string) string {
	v, _ := f.Lookup(name)
	return v
}

// Lookup returns the value of the first field with the exact name
func (f Fields) Lookup(name string) (string, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// With returns a copy of f where the named field holds value. A new field
// is appended when the name is not present.
func (f Fields) With(name, value string) Fields {
	out := f.Clone()
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Name: name, Value: value})
}

// Clone returns a copy that does not share the backing array
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	copy(out, f)
	return out
}

// Record is a case record. The hosting message is its only copy.
type Record struct {
	ID        RecordID
	Kind      types.RecordKind
	Fields    Fields
	Status    types.ApprovalStatus // warrant and most wanted only
	DecidedBy string               // display name of the decider
	CreatedBy string               // mention of the creating actor
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Fields = r.Fields.Clone()
	return &c
}

// Validate checks that the record matches its kind's schema and that every
// schema field has a value
func (r *Record) Validate() error {
	schema, err := SchemaOf(r.Kind)
	if err != nil {
		return err
	}

	for _, name := range schema.Fields {
		if strings.TrimSpace(r.Fields.Get(name)) == "" {
			return goerr.Wrap(ErrInvalidRecord, "field is required",
				goerr.V(KindKey, r.Kind), goerr.V(FieldKey, name))
		}
	}

	if r.Kind.RequiresApproval() {
		if r.Status != "" && !r.Status.IsValid() {
			return goerr.Wrap(ErrInvalidRecord, "invalid approval status",
				goerr.V(KindKey, r.Kind), goerr.V("status", r.Status))
		}
	} else if r.Status != "" {
		return goerr.Wrap(ErrInvalidRecord, "kind has no approval status",
			goerr.V(KindKey, r.Kind), goerr.V("status", r.Status))
	}

	return nil
}

// RecordIDFromTimestamp converts a Slack message timestamp into the record
// identifier shown in footers
func RecordIDFromTimestamp(ts string) (RecordID, error) {
	if !strings.Contains(ts, ".") {
		return 0, goerr.Wrap(ErrInvalidRecordID, "not a message timestamp", goerr.V("ts", ts))
	}
	return ParseRecordID(ts)
}

// Timestamp returns the Slack message timestamp the identifier came from
func (id RecordID) Timestamp() string {
	return fmt.Sprintf("%d.%06d", int64(id)/1_000_000, int64(id)%1_000_000)
}
