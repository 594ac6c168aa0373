package services

import (
	"assetmap/models"
	"testing"
)

func TestSelectionNotifiesOnChangeOnly(t *testing.T) {
	sel := NewSelectionState()

	type change struct {
		id models.TrackedObjectID
		ok bool
	}
	var changes []change
	sel.OnChange(func(id models.TrackedObjectID, ok bool) { changes = append(changes, change{id, ok}) })

	sel.Select(4)
	sel.Select(4)
	sel.Select(9)
	sel.Clear()
	sel.Clear()

	want := []change{{4, true}, {9, true}, {0, false}}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %v", len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("change %d: expected %+v, got %+v", i, want[i], changes[i])
		}
	}
}
