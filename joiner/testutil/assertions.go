package testutil

import (
	"testing"

	"github.com/paolorotolo/rv-joiner/joiner"
	"github.com/paolorotolo/rv-joiner/joiner/adapters"
	"github.com/paolorotolo/rv-joiner/types"
)

// PositionRow is one row of a dumped position table.
type PositionRow struct {
	Binding    int
	Local      int
	GlobalType int
}

// TypeRow is one row of a dumped type table.
type TypeRow struct {
	Binding int
	Tag     types.TypeTag
}

// Positions dumps the joined position table in order, for whole-table
// comparisons.
func Positions(t *testing.T, j *joiner.Joiner) []PositionRow {
	t.Helper()
	rows := make([]PositionRow, 0, j.ItemCount())
	for pos := 0; pos < j.ItemCount(); pos++ {
		loc, err := j.Locate(pos)
		if err != nil {
			t.Fatalf("Locate(%d) failed: %v", pos, err)
		}
		rows = append(rows, PositionRow{Binding: loc.Binding, Local: loc.Local, GlobalType: loc.GlobalType})
	}
	return rows
}

// Types dumps the joined type table in order.
func Types(t *testing.T, j *joiner.Joiner) []TypeRow {
	t.Helper()
	rows := make([]TypeRow, 0, j.TypeCount())
	for id := 0; id < j.TypeCount(); id++ {
		binding, tag, err := j.GlobalTag(id)
		if err != nil {
			t.Fatalf("GlobalTag(%d) failed: %v", id, err)
		}
		rows = append(rows, TypeRow{Binding: binding, Tag: tag})
	}
	return rows
}

// AssertItemCount checks the joined item count.
func AssertItemCount(t *testing.T, j *joiner.Joiner, expected int) {
	t.Helper()
	if got := j.ItemCount(); got != expected {
		t.Errorf("expected joined item count %d, got %d", expected, got)
	}
}

// AssertLocation checks the translation of one joined position.
func AssertLocation(t *testing.T, j *joiner.Joiner, position, wantBinding, wantLocal, wantType int) {
	t.Helper()
	loc, err := j.Locate(position)
	if err != nil {
		t.Errorf("Locate(%d) failed: %v", position, err)
		return
	}
	if loc.Binding != wantBinding || loc.Local != wantLocal || loc.GlobalType != wantType {
		t.Errorf("Locate(%d) = (binding %d, local %d, type %d), want (binding %d, local %d, type %d)",
			position, loc.Binding, loc.Local, loc.GlobalType, wantBinding, wantLocal, wantType)
	}
}

// AssertRoundTrip verifies that Locate and JoinedPosition are inverses
// over the whole joined range.
func AssertRoundTrip(t *testing.T, j *joiner.Joiner) {
	t.Helper()
	for pos := 0; pos < j.ItemCount(); pos++ {
		loc, err := j.Locate(pos)
		if err != nil {
			t.Errorf("Locate(%d) failed: %v", pos, err)
			continue
		}
		back, err := j.JoinedPosition(loc.Binding, loc.Local)
		if err != nil {
			t.Errorf("JoinedPosition(%d, %d) failed: %v", loc.Binding, loc.Local, err)
			continue
		}
		if back != pos {
			t.Errorf("JoinedPosition(Locate(%d)) = %d, want %d", pos, back, pos)
		}
	}
}

// AssertTitles binds a fresh holder to every joined position and checks
// the rendered titles in order.
func AssertTitles(t *testing.T, j *joiner.Joiner, expected ...string) {
	t.Helper()
	if got := j.ItemCount(); got != len(expected) {
		t.Errorf("expected %d joined items, got %d", len(expected), got)
		return
	}
	for pos, want := range expected {
		globalType, err := j.ItemType(pos)
		if err != nil {
			t.Errorf("ItemType(%d) failed: %v", pos, err)
			continue
		}
		holder, err := j.NewHolder(globalType)
		if err != nil {
			t.Errorf("NewHolder(%d) failed: %v", globalType, err)
			continue
		}
		if err := j.BindHolder(holder, pos); err != nil {
			t.Errorf("BindHolder at position %d failed: %v", pos, err)
			continue
		}
		row, ok := holder.(*adapters.RowHolder)
		if !ok {
			t.Errorf("position %d: expected *adapters.RowHolder, got %T", pos, holder)
			continue
		}
		if row.Title != want {
			t.Errorf("position %d: expected title %q, got %q", pos, want, row.Title)
		}
	}
}
