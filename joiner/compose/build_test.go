package compose_test

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/paolorotolo/rv-joiner/joiner"
	"github.com/paolorotolo/rv-joiner/joiner/adapters"
	"github.com/paolorotolo/rv-joiner/joiner/compose"
	"github.com/paolorotolo/rv-joiner/types"
)

// seedDatabase creates a sqlite file with one tagged row per entry.
func seedDatabase(t *testing.T, path string, rows ...[3]string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE entries (id TEXT, tag TEXT, title TEXT, rank INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for i, row := range rows {
		if _, err := db.Exec(
			`INSERT INTO entries (id, tag, title, rank) VALUES (?, ?, ?, ?)`,
			row[0], row[1], row[2], i,
		); err != nil {
			t.Fatalf("insert row %d: %v", i, err)
		}
	}
}

func joinedTitles(t *testing.T, j *joiner.Joiner) []string {
	t.Helper()
	titles := make([]string, j.ItemCount())
	for pos := range titles {
		globalType, err := j.ItemType(pos)
		if err != nil {
			t.Fatalf("ItemType(%d) failed: %v", pos, err)
		}
		holder, err := j.NewHolder(globalType)
		if err != nil {
			t.Fatalf("NewHolder(%d) failed: %v", globalType, err)
		}
		if err := j.BindHolder(holder, pos); err != nil {
			t.Fatalf("BindHolder at %d failed: %v", pos, err)
		}
		titles[pos] = holder.(*adapters.RowHolder).Title
	}
	return titles
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	seedDatabase(t, filepath.Join(dir, "tasks.db"),
		[3]string{"t1", "task", "Ship release"},
		[3]string{"t2", "task", "Write changelog"},
	)
	fileDoc := `{"items": [{"id": "f1", "tag": "link", "title": "Docs"}], "metadata": {"version": "1.0"}}`
	if err := os.WriteFile(filepath.Join(dir, "links.json"), []byte(fileDoc), 0644); err != nil {
		t.Fatalf("seed file source: %v", err)
	}
	manifest := `
sources:
  - name: header
    kind: static
    tag: header
    titles: ["Inbox"]
  - name: notes
    kind: slice
    tags: [note]
    items:
      - {id: n1, tag: note, title: "Buy milk"}
  - name: links
    kind: file
    path: links.json
    tags: [link]
  - name: tasks
    kind: sqlite
    dsn: tasks.db
    query: "SELECT id, tag, title FROM entries ORDER BY rank"
    tags: [task]
`
	manifestPath := filepath.Join(dir, "rvjoin.yaml")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	// The sqlite dsn is relative to the working directory, not the
	// manifest, so point it at the temp dir explicitly.
	m, err := compose.Load(manifestPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m.Sources[3].DSN = filepath.Join(dir, "tasks.db")

	comp, err := m.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer comp.Close()

	t.Run("joins every source in manifest order", func(t *testing.T) {
		want := []string{"Inbox", "Buy milk", "Docs", "Ship release", "Write changelog"}
		if diff := cmp.Diff(want, joinedTitles(t, comp.Joiner)); diff != "" {
			t.Errorf("joined titles mismatch (-want +got):\n%s", diff)
		}
		if got := comp.Joiner.TypeCount(); got != 4 {
			t.Errorf("TypeCount() = %d, want 4", got)
		}
	})

	t.Run("relative file paths resolve against the manifest", func(t *testing.T) {
		src, ok := comp.Source("links")
		if !ok {
			t.Fatal("source links not found")
		}
		f, ok := src.Adapter.(*adapters.File)
		if !ok {
			t.Fatalf("unexpected adapter %T for a file source", src.Adapter)
		}
		if got, want := f.Path(), filepath.Join(dir, "links.json"); got != want {
			t.Errorf("Path() = %q, want %q", got, want)
		}
	})

	t.Run("sources keep their manifest identity", func(t *testing.T) {
		src, ok := comp.Source("tasks")
		if !ok {
			t.Fatal("source tasks not found")
		}
		if src.Kind != "sqlite" {
			t.Errorf("Kind = %q, want %q", src.Kind, "sqlite")
		}
		if _, ok := comp.Source("missing"); ok {
			t.Error("lookup of an unknown name must fail")
		}
	})

	t.Run("mutations on built sources flow into the joiner", func(t *testing.T) {
		src, _ := comp.Source("notes")
		notes := src.Adapter.(*adapters.Slice)
		if err := notes.Append(types.Item{Tag: "note", Title: "Call Sam"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		defer notes.RemoveAt(1)
		if got := comp.Joiner.ItemCount(); got != 6 {
			t.Errorf("ItemCount() after append = %d, want 6", got)
		}
	})
}

func TestBuildOptionPlumbing(t *testing.T) {
	t.Run("stable ids off", func(t *testing.T) {
		m, err := compose.Parse([]byte(`
stable_ids: false
sources:
  - name: header
    kind: static
    tag: header
    titles: ["Inbox"]
`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		comp, err := m.Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		defer comp.Close()
		if _, err := comp.Joiner.ItemID(0); !errors.Is(err, joiner.ErrStableIDsDisabled) {
			t.Errorf("ItemID() error = %v, want ErrStableIDsDisabled", err)
		}
	})

	t.Run("auto refresh off", func(t *testing.T) {
		m, err := compose.Parse([]byte(`
auto_refresh: false
sources:
  - name: notes
    kind: slice
    tags: [note]
    items:
      - {tag: note, title: "Buy milk"}
`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		comp, err := m.Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		defer comp.Close()

		src, _ := comp.Source("notes")
		if err := src.Adapter.(*adapters.Slice).Append(types.Item{Tag: "note", Title: "Call Sam"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if got := comp.Joiner.ItemCount(); got != 1 {
			t.Fatalf("expected a stale count of 1 before Refresh, got %d", got)
		}
		if err := comp.Joiner.Refresh(); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if got := comp.Joiner.ItemCount(); got != 2 {
			t.Errorf("ItemCount() after Refresh = %d, want 2", got)
		}
	})
}

func TestBuildFailures(t *testing.T) {
	t.Run("invalid manifests never build", func(t *testing.T) {
		m := &compose.Manifest{}
		if _, err := m.Build(); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("a broken source names itself", func(t *testing.T) {
		dir := t.TempDir()
		bad := `{"items": [{"id": "x", "tag": "ghost", "title": "stray"}]}`
		if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(bad), 0644); err != nil {
			t.Fatalf("seed file source: %v", err)
		}
		m, err := compose.Parse([]byte(`
sources:
  - name: header
    kind: static
    tag: header
    titles: ["Inbox"]
  - name: broken
    kind: file
    path: bad.json
    tags: [link]
`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		_, err = m.Build(compose.WithBaseDir(dir))
		if err == nil || !strings.Contains(err.Error(), "source 1 (broken)") {
			t.Errorf("expected error naming source 1 (broken), got %v", err)
		}
		var unknownErr *types.UnknownTypeError
		if !errors.As(err, &unknownErr) {
			t.Errorf("expected UnknownTypeError in the chain, got %v", err)
		}
	})

	t.Run("inline items outside the declared tags fail the build", func(t *testing.T) {
		m, err := compose.Parse([]byte(`
sources:
  - name: notes
    kind: slice
    tags: [note]
    items:
      - {tag: ghost, title: "stray"}
`))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if _, err := m.Build(); err == nil {
			t.Error("expected build error for an undeclared inline tag")
		}
	})
}
