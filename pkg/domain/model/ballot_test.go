package model_test

import (
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bailiff/pkg/domain/model"
	"github.com/secmon-lab/bailiff/pkg/domain/types"
)

func TestBallot(t *testing.T) {
	t.Run("toggle twice restores membership", func(t *testing.T) {
		b := model.NewBallot("C1", 1)
		gt.Value(t, b.Toggle("U1")).Equal(types.AttendancePresent)
		gt.Value(t, b.Attendees()).Equal([]string{"U1"})
		gt.Value(t, b.Toggle("U1")).Equal(types.AttendanceAbsent)
		gt.Array(t, b.Attendees()).Length(0)
	})

	t.Run("keeps first-signal order", func(t *testing.T) {
		b := model.NewBallot("C1", 1)
		b.Toggle("U2")
		b.Toggle("U1")
		b.Toggle("U3")
		b.Toggle("U1")
		b.Toggle("U1")
		gt.Value(t, b.Attendees()).Equal([]string{"U2", "U3", "U1"})
	})

	t.Run("concurrent toggles", func(t *testing.T) {
		b := model.NewBallot("C1", 1)
		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.Toggle("U1")
			}()
		}
		wg.Wait()
		gt.Array(t, b.Attendees()).Length(0)
	})
}
