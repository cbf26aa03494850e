// Package testutil provides the shared composition fixture and
// assertion helpers used by tests across the repository.
package testutil

import (
	"testing"

	"github.com/paolorotolo/rv-joiner/joiner"
	"github.com/paolorotolo/rv-joiner/joiner/adapters"
	"github.com/paolorotolo/rv-joiner/types"
)

// Universe is the standard test composition: a static header, a notes
// list mixing two tags, and a tasks list with a single tag. Item IDs
// are fixed so tests and golden files stay deterministic.
//
// Joined layout after construction:
//
//	position  binding  local  tag       title
//	0         0        0      header    Inbox
//	1         1        0      note      Buy milk
//	2         1        1      reminder  Dentist at noon
//	3         1        2      note      Call Sam
//	4         2        0      task      Ship release
//	5         2        1      task      Write changelog
//
// Joined type IDs: header=0, note=1, reminder=2, task=3.
type Universe struct {
	Header *adapters.Static
	Notes  *adapters.Slice
	Tasks  *adapters.Slice

	Bindings []*joiner.Binding
	Joiner   *joiner.Joiner
}

// LoadUniverse builds the standard composition with the given joiner
// options and closes it when the test finishes.
func LoadUniverse(t *testing.T, opts ...joiner.Option) *Universe {
	t.Helper()

	header, err := adapters.NewStaticItems("header",
		types.Item{ID: "header-1", Tag: "header", Title: "Inbox"},
	)
	if err != nil {
		t.Fatalf("failed to create header source: %v", err)
	}

	notes, err := adapters.NewSlice(
		[]types.TypeTag{"note", "reminder"},
		types.Item{ID: "note-1", Tag: "note", Title: "Buy milk"},
		types.Item{ID: "rem-1", Tag: "reminder", Title: "Dentist at noon"},
		types.Item{ID: "note-2", Tag: "note", Title: "Call Sam"},
	)
	if err != nil {
		t.Fatalf("failed to create notes source: %v", err)
	}

	tasks, err := adapters.NewSlice(
		[]types.TypeTag{"task"},
		types.Item{ID: "task-1", Tag: "task", Title: "Ship release"},
		types.Item{ID: "task-2", Tag: "task", Title: "Write changelog"},
	)
	if err != nil {
		t.Fatalf("failed to create tasks source: %v", err)
	}

	bindings := make([]*joiner.Binding, 0, 3)
	for _, a := range []types.Adapter{header, notes, tasks} {
		b, err := joiner.NewBinding(a)
		if err != nil {
			t.Fatalf("failed to bind source: %v", err)
		}
		bindings = append(bindings, b)
	}

	j, err := joiner.New(bindings, opts...)
	if err != nil {
		t.Fatalf("failed to compose joiner: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	return &Universe{
		Header:   header,
		Notes:    notes,
		Tasks:    tasks,
		Bindings: bindings,
		Joiner:   j,
	}
}
