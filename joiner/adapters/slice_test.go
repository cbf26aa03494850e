package adapters_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/paolorotolo/rv-joiner/joiner/adapters"
	"github.com/paolorotolo/rv-joiner/types"
)

func titlesOf(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestNewSlice(t *testing.T) {
	t.Run("accepts declared items", func(t *testing.T) {
		s, err := adapters.NewSlice([]types.TypeTag{"note"},
			types.Item{Tag: "note", Title: "one"},
			types.Item{Tag: "note", Title: "two"},
		)
		if err != nil {
			t.Fatalf("NewSlice failed: %v", err)
		}
		if got := s.ItemCount(); got != 2 {
			t.Errorf("ItemCount() = %d, want 2", got)
		}
	})

	t.Run("assigns missing identities and keeps given ones", func(t *testing.T) {
		s, err := adapters.NewSlice([]types.TypeTag{"note"},
			types.Item{ID: "fixed", Tag: "note", Title: "kept"},
			types.Item{Tag: "note", Title: "generated"},
		)
		if err != nil {
			t.Fatalf("NewSlice failed: %v", err)
		}
		items := s.Items()
		if items[0].ID != "fixed" {
			t.Errorf("expected explicit ID kept, got %q", items[0].ID)
		}
		if items[1].ID == types.NoItemID {
			t.Error("expected generated ID for item without one")
		}
	})

	t.Run("rejects undeclared tags", func(t *testing.T) {
		_, err := adapters.NewSlice([]types.TypeTag{"note"},
			types.Item{Tag: "task", Title: "stray"},
		)
		var unknownErr *types.UnknownTypeError
		if !errors.As(err, &unknownErr) {
			t.Fatalf("expected UnknownTypeError, got %v", err)
		}
		if unknownErr.Tag != "task" {
			t.Errorf("unexpected error detail: %v", unknownErr)
		}
	})

	t.Run("rejects an invalid tag declaration", func(t *testing.T) {
		if _, err := adapters.NewSlice([]types.TypeTag{"note", "note"}); err == nil {
			t.Error("expected error for duplicate declared tags")
		}
	})
}

func TestSliceMutators(t *testing.T) {
	newFixture := func(t *testing.T) *adapters.Slice {
		t.Helper()
		s, err := adapters.NewSlice([]types.TypeTag{"note", "task"},
			types.Item{ID: "n1", Tag: "note", Title: "alpha"},
			types.Item{ID: "t1", Tag: "task", Title: "bravo"},
			types.Item{ID: "n2", Tag: "note", Title: "charlie"},
		)
		if err != nil {
			t.Fatalf("NewSlice failed: %v", err)
		}
		return s
	}

	t.Run("append", func(t *testing.T) {
		s := newFixture(t)
		if err := s.Append(types.Item{Tag: "task", Title: "delta"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		want := []string{"alpha", "bravo", "charlie", "delta"}
		if diff := cmp.Diff(want, titlesOf(s.Items())); diff != "" {
			t.Errorf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("insert in the middle", func(t *testing.T) {
		s := newFixture(t)
		if err := s.InsertAt(1, types.Item{Tag: "note", Title: "inserted"}); err != nil {
			t.Fatalf("InsertAt failed: %v", err)
		}
		want := []string{"alpha", "inserted", "bravo", "charlie"}
		if diff := cmp.Diff(want, titlesOf(s.Items())); diff != "" {
			t.Errorf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("insert at the end", func(t *testing.T) {
		s := newFixture(t)
		if err := s.InsertAt(3, types.Item{Tag: "note", Title: "last"}); err != nil {
			t.Fatalf("InsertAt failed: %v", err)
		}
		want := []string{"alpha", "bravo", "charlie", "last"}
		if diff := cmp.Diff(want, titlesOf(s.Items())); diff != "" {
			t.Errorf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("remove", func(t *testing.T) {
		s := newFixture(t)
		if err := s.RemoveAt(1); err != nil {
			t.Fatalf("RemoveAt failed: %v", err)
		}
		want := []string{"alpha", "charlie"}
		if diff := cmp.Diff(want, titlesOf(s.Items())); diff != "" {
			t.Errorf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("set item keeps identity on edits", func(t *testing.T) {
		s := newFixture(t)
		if err := s.SetItem(0, types.Item{Tag: "note", Title: "renamed"}); err != nil {
			t.Fatalf("SetItem failed: %v", err)
		}
		it, err := s.ItemAt(0)
		if err != nil {
			t.Fatalf("ItemAt(0) failed: %v", err)
		}
		if it.ID != "n1" {
			t.Errorf("expected identity kept across edit, got %q", it.ID)
		}
		if it.Title != "renamed" {
			t.Errorf("expected title replaced, got %q", it.Title)
		}
	})

	t.Run("move forward and backward", func(t *testing.T) {
		s := newFixture(t)
		if err := s.Move(0, 2); err != nil {
			t.Fatalf("Move(0, 2) failed: %v", err)
		}
		want := []string{"bravo", "charlie", "alpha"}
		if diff := cmp.Diff(want, titlesOf(s.Items())); diff != "" {
			t.Errorf("titles after forward move (-want +got):\n%s", diff)
		}
		if err := s.Move(2, 0); err != nil {
			t.Fatalf("Move(2, 0) failed: %v", err)
		}
		want = []string{"alpha", "bravo", "charlie"}
		if diff := cmp.Diff(want, titlesOf(s.Items())); diff != "" {
			t.Errorf("titles after backward move (-want +got):\n%s", diff)
		}
	})

	t.Run("set items replaces everything", func(t *testing.T) {
		s := newFixture(t)
		if err := s.SetItems([]types.Item{{Tag: "task", Title: "only"}}); err != nil {
			t.Fatalf("SetItems failed: %v", err)
		}
		want := []string{"only"}
		if diff := cmp.Diff(want, titlesOf(s.Items())); diff != "" {
			t.Errorf("titles mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects out of range positions", func(t *testing.T) {
		s := newFixture(t)
		var indexErr *types.IndexError
		if err := s.RemoveAt(3); !errors.As(err, &indexErr) {
			t.Errorf("RemoveAt(3): expected IndexError, got %v", err)
		}
		if err := s.InsertAt(5, types.Item{Tag: "note"}); !errors.As(err, &indexErr) {
			t.Errorf("InsertAt(5): expected IndexError, got %v", err)
		}
		if err := s.Move(0, 3); !errors.As(err, &indexErr) {
			t.Errorf("Move(0, 3): expected IndexError, got %v", err)
		}
	})

	t.Run("rejects undeclared tags without mutating", func(t *testing.T) {
		s := newFixture(t)
		var signals int
		cancel := s.Subscribe(func() { signals++ })
		defer cancel()

		err := s.Append(types.Item{Tag: "ghost", Title: "stray"})
		var unknownErr *types.UnknownTypeError
		if !errors.As(err, &unknownErr) {
			t.Fatalf("expected UnknownTypeError, got %v", err)
		}
		if signals != 0 {
			t.Errorf("expected no signal for a failed mutation, got %d", signals)
		}
		if got := s.ItemCount(); got != 3 {
			t.Errorf("expected list unchanged, got %d items", got)
		}
	})
}

func TestSliceSignals(t *testing.T) {
	s, err := adapters.NewSlice([]types.TypeTag{"note"},
		types.Item{Tag: "note", Title: "one"},
	)
	if err != nil {
		t.Fatalf("NewSlice failed: %v", err)
	}

	t.Run("every successful mutation signals once", func(t *testing.T) {
		var signals int
		cancel := s.Subscribe(func() { signals++ })
		defer cancel()

		if err := s.Append(types.Item{Tag: "note", Title: "two"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := s.RemoveAt(1); err != nil {
			t.Fatalf("RemoveAt failed: %v", err)
		}
		if err := s.SetItem(0, types.Item{Tag: "note", Title: "renamed"}); err != nil {
			t.Fatalf("SetItem failed: %v", err)
		}
		s.Broadcast()

		if signals != 4 {
			t.Errorf("expected 4 signals, got %d", signals)
		}
	})

	t.Run("subscribers may read the source from the callback", func(t *testing.T) {
		var seen int
		cancel := s.Subscribe(func() { seen = s.ItemCount() })
		defer cancel()

		if err := s.Append(types.Item{Tag: "note", Title: "readable"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if seen != 2 {
			t.Errorf("callback observed count %d, want 2", seen)
		}
	})
}

func TestSliceAdapterSurface(t *testing.T) {
	s, err := adapters.NewSlice([]types.TypeTag{"note", "task"},
		types.Item{ID: "n1", Tag: "note", Title: "alpha", Body: "body text"},
		types.Item{ID: "t1", Tag: "task", Title: "bravo"},
	)
	if err != nil {
		t.Fatalf("NewSlice failed: %v", err)
	}

	t.Run("declared tags", func(t *testing.T) {
		if diff := cmp.Diff([]types.TypeTag{"note", "task"}, s.TypeTags()); diff != "" {
			t.Errorf("TypeTags mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("item type and identity", func(t *testing.T) {
		tag, err := s.ItemType(1)
		if err != nil {
			t.Fatalf("ItemType(1) failed: %v", err)
		}
		if tag != "task" {
			t.Errorf("ItemType(1) = %q, want %q", tag, "task")
		}
		id, err := s.ItemID(0)
		if err != nil {
			t.Fatalf("ItemID(0) failed: %v", err)
		}
		if id != "n1" {
			t.Errorf("ItemID(0) = %q, want %q", id, "n1")
		}
	})

	t.Run("holder round trip", func(t *testing.T) {
		holder, err := s.NewHolder("note")
		if err != nil {
			t.Fatalf("NewHolder failed: %v", err)
		}
		if err := s.BindHolder(holder, 0); err != nil {
			t.Fatalf("BindHolder failed: %v", err)
		}
		row := holder.(*adapters.RowHolder)
		if row.Title != "alpha" || row.Body != "body text" || row.Position != 0 {
			t.Errorf("unexpected bound row: %+v", row)
		}
	})

	t.Run("rejects undeclared holder tags", func(t *testing.T) {
		var unknownErr *types.UnknownTypeError
		if _, err := s.NewHolder("ghost"); !errors.As(err, &unknownErr) {
			t.Errorf("expected UnknownTypeError, got %v", err)
		}
	})

	t.Run("rejects mismatched holders on bind", func(t *testing.T) {
		holder, err := s.NewHolder("note")
		if err != nil {
			t.Fatalf("NewHolder failed: %v", err)
		}
		if err := s.BindHolder(holder, 1); err == nil {
			t.Error("expected error binding a note holder to a task item")
		}
	})
}
