// Package compose builds joined-list compositions from declarative
// YAML manifests. A manifest names the sources, their kinds and their
// declared tags; Build turns it into live adapters wired into a single
// joiner, with teardown handled in one place.
package compose

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/paolorotolo/rv-joiner/types"
)

// Manifest is the declarative description of a composition. Source
// order is significant: it fixes the joined order of items and the
// assignment of joined type IDs.
type Manifest struct {
	// StableIDs and AutoRefresh toggle the matching joiner options.
	// Unset means the joiner default, which is enabled for both.
	StableIDs   *bool `yaml:"stable_ids"`
	AutoRefresh *bool `yaml:"auto_refresh"`

	Sources []SourceSpec `yaml:"sources"`

	// baseDir resolves relative file paths, set by Load to the
	// manifest's directory.
	baseDir string
}

// SourceSpec describes one source. Kind selects the adapter; the other
// fields are kind-specific.
type SourceSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// static
	Tag    types.TypeTag `yaml:"tag"`
	Titles []string      `yaml:"titles"`

	// slice, file and sqlite declare their tag set here; slice and
	// static may inline their items.
	Tags  []types.TypeTag `yaml:"tags"`
	Items []ItemSpec      `yaml:"items"`

	// file
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`

	// sqlite
	DSN   string `yaml:"dsn"`
	Query string `yaml:"query"`
}

// ItemSpec is an inline item declaration.
type ItemSpec struct {
	ID    types.ItemID  `yaml:"id"`
	Tag   types.TypeTag `yaml:"tag"`
	Title string        `yaml:"title"`
	Body  string        `yaml:"body"`
}

func (is ItemSpec) item() types.Item {
	return types.Item{
		ID:    is.ID,
		Tag:   is.Tag,
		Title: is.Title,
		Body:  is.Body,
	}
}

// Load reads and parses a manifest file. Relative paths inside the
// manifest resolve against the manifest's own directory unless Build is
// given a different base.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.baseDir = filepath.Dir(path)
	return m, nil
}

// Parse decodes manifest YAML. Unknown fields are rejected so typos
// fail loudly instead of silently configuring nothing.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Validate checks the manifest's structure without building anything.
func (m *Manifest) Validate() error {
	if len(m.Sources) == 0 {
		return errors.New("manifest declares no sources")
	}
	seen := make(map[string]int)
	for i, spec := range m.Sources {
		if spec.Name != "" {
			if prev, dup := seen[spec.Name]; dup {
				return fmt.Errorf("source %d: name %q already used by source %d", i, spec.Name, prev)
			}
			seen[spec.Name] = i
		}
		if err := spec.validate(); err != nil {
			return fmt.Errorf("source %d (%s): %w", i, spec.name(i), err)
		}
	}
	return nil
}

func (s SourceSpec) validate() error {
	switch s.Kind {
	case "static":
		if s.Tag == "" {
			return errors.New("static source requires a tag")
		}
		if len(s.Titles) == 0 && len(s.Items) == 0 {
			return errors.New("static source requires titles or items")
		}
		if len(s.Titles) > 0 && len(s.Items) > 0 {
			return errors.New("static source takes titles or items, not both")
		}
	case "slice":
		if len(s.Tags) == 0 {
			return errors.New("slice source requires tags")
		}
	case "file":
		if s.Path == "" {
			return errors.New("file source requires a path")
		}
		if len(s.Tags) == 0 {
			return errors.New("file source requires tags")
		}
	case "sqlite":
		if s.DSN == "" {
			return errors.New("sqlite source requires a dsn")
		}
		if s.Query == "" {
			return errors.New("sqlite source requires a query")
		}
		if len(s.Tags) == 0 {
			return errors.New("sqlite source requires tags")
		}
	case "":
		return errors.New("source kind is required")
	default:
		return fmt.Errorf("unknown source kind %q (valid kinds: static, slice, file, sqlite)", s.Kind)
	}
	return nil
}

// name returns the source's display name, falling back to kind and
// index for unnamed sources.
func (s SourceSpec) name(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s-%d", s.Kind, i)
}
