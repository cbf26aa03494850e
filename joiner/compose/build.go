package compose

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	// The sqlite driver registers itself under "sqlite3" for the
	// manifest's sqlite sources.
	_ "github.com/mattn/go-sqlite3"

	"github.com/paolorotolo/rv-joiner/joiner"
	"github.com/paolorotolo/rv-joiner/joiner/adapters"
	"github.com/paolorotolo/rv-joiner/types"
)

// Source is one built source: the adapter plus the manifest identity it
// came from.
type Source struct {
	Name    string
	Kind    string
	Adapter types.Adapter
}

// Composition is a built manifest: the joiner and the sources behind
// it. Close shuts the whole arrangement down.
type Composition struct {
	Joiner  *joiner.Joiner
	Sources []Source

	closers []func() error
}

// builder carries Build's settings.
type builder struct {
	baseDir string
}

// BuildOption configures Build.
type BuildOption func(*builder)

// WithBaseDir overrides the directory relative manifest paths resolve
// against. Load defaults it to the manifest's own directory.
func WithBaseDir(dir string) BuildOption {
	return func(b *builder) {
		b.baseDir = dir
	}
}

// Build validates the manifest and turns it into a live composition.
// On failure every source built so far is closed before returning.
func (m *Manifest) Build(opts ...BuildOption) (*Composition, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b := &builder{baseDir: m.baseDir}
	for _, opt := range opts {
		opt(b)
	}

	comp := &Composition{}
	fail := func(err error) (*Composition, error) {
		_ = comp.closeSources()
		return nil, err
	}

	built := make([]types.Adapter, 0, len(m.Sources))
	for i, spec := range m.Sources {
		adapter, closer, err := b.buildSource(spec)
		if err != nil {
			return fail(fmt.Errorf("source %d (%s): %w", i, spec.name(i), err))
		}
		if closer != nil {
			comp.closers = append(comp.closers, closer)
		}
		comp.Sources = append(comp.Sources, Source{
			Name:    spec.name(i),
			Kind:    spec.Kind,
			Adapter: adapter,
		})
		built = append(built, adapter)
	}

	var jopts []joiner.Option
	if m.StableIDs != nil {
		jopts = append(jopts, joiner.WithStableIDs(*m.StableIDs))
	}
	if m.AutoRefresh != nil {
		jopts = append(jopts, joiner.WithAutoRefresh(*m.AutoRefresh))
	}
	j, err := joiner.Join(built, jopts...)
	if err != nil {
		return fail(err)
	}
	comp.Joiner = j
	return comp, nil
}

// buildSource constructs one adapter. The returned closer releases
// whatever the adapter holds open, nil when there is nothing to
// release.
func (b *builder) buildSource(spec SourceSpec) (types.Adapter, func() error, error) {
	switch spec.Kind {
	case "static":
		if len(spec.Items) > 0 {
			items := make([]types.Item, len(spec.Items))
			for i, is := range spec.Items {
				items[i] = is.item()
			}
			a, err := adapters.NewStaticItems(spec.Tag, items...)
			return a, nil, err
		}
		a, err := adapters.NewStatic(spec.Tag, spec.Titles...)
		return a, nil, err

	case "slice":
		items := make([]types.Item, len(spec.Items))
		for i, is := range spec.Items {
			items[i] = is.item()
		}
		a, err := adapters.NewSlice(spec.Tags, items...)
		return a, nil, err

	case "file":
		a, err := adapters.NewFile(b.resolve(spec.Path), spec.Tags)
		if err != nil {
			return nil, nil, err
		}
		if spec.Watch {
			if err := a.Watch(); err != nil {
				_ = a.Close()
				return nil, nil, err
			}
		}
		return a, a.Close, nil

	case "sqlite":
		db, err := sql.Open("sqlite3", spec.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		a, err := adapters.NewSQL(db, spec.Query, spec.Tags)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return a, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown source kind %q", spec.Kind)
}

func (b *builder) resolve(path string) string {
	if filepath.IsAbs(path) || b.baseDir == "" {
		return path
	}
	return filepath.Join(b.baseDir, path)
}

// Source returns the built source with the given name.
func (c *Composition) Source(name string) (Source, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// Close shuts the composition down: the joiner first, so source
// subscriptions are gone before the sources themselves close, then
// every closable source in reverse build order.
func (c *Composition) Close() error {
	var errs []error
	if c.Joiner != nil {
		if err := c.Joiner.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.closeSources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Composition) closeSources() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
