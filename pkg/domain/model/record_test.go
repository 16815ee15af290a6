package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
)

func TestParseRecordID(t *testing.T) {
	tests := []struct {
		input    string
		expected model.RecordID
		wantErr  bool
	}{
		{"1712345678123456", 1712345678123456, false},
		{"1712345678.123456", 1712345678123456, false},
		{" 42 ", 42, false},
		{"1712345678.12", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-5", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			id, err := model.ParseRecordID(tc.input)
			if tc.wantErr {
				gt.Error(t, err).Is(model.ErrInvalidRecordID)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, id).Equal(tc.expected)
		})
	}
}

func TestFields(t *testing.T) {
	f := model.Fields{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}

	updated := f.With("B", "3")
	gt.Value(t, updated.Get("B")).Equal("3")
	gt.Value(t, f.Get("B")).Equal("2")

	appended := f.With("C", "4")
	gt.Array(t, appended).Length(3)
	gt.Array(t, f).Length(2)

	_, ok := f.Lookup("a")
	gt.Bool(t, ok).False()
}

func TestRecordValidate(t *testing.T) {
	t.Run("complete moderation log", func(t *testing.T) {
		gt.NoError(t, moderationRecord().Validate())
	})

	t.Run("missing field", func(t *testing.T) {
		rec := moderationRecord()
		rec.Fields = rec.Fields.With(model.FieldReason, " ")
		gt.Error(t, rec.Validate()).Is(model.ErrInvalidRecord)
	})

	t.Run("status on a kind without approval", func(t *testing.T) {
		rec := moderationRecord()
		rec.Status = types.ApprovalStatusApproved
		gt.Error(t, rec.Validate()).Is(model.ErrInvalidRecord)
	})

	t.Run("clone does not share fields", func(t *testing.T) {
		rec := moderationRecord()
		c := rec.Clone()
		c.Fields[0].Value = "changed"
		gt.Value(t, rec.Fields[0].Value).Equal("abc123")
	})
}

func TestRecordIDTimestamp(t *testing.T) {
	id, err := model.RecordIDFromTimestamp("1712345678.000042")
	gt.NoError(t, err).Required()
	gt.Value(t, id).Equal(model.RecordID(1712345678000042))
	gt.Value(t, id.Timestamp()).Equal("1712345678.000042")

	_, err = model.RecordIDFromTimestamp("1712345678000042")
	gt.Error(t, err).Is(model.ErrInvalidRecordID)
}
