package adapters

import (
	"errors"
	"fmt"
	"time"

	"github.com/paolorotolo/rv-joiner/internal/notify"
	"github.com/paolorotolo/rv-joiner/types"
)

// Static is a fixed source: one declared tag and a run of rows frozen
// at construction. It never signals changes. Hosts use it for headers,
// separators and other chrome around live sources.
type Static struct {
	signals notify.Hub
	tag     types.TypeTag
	items   []types.Item
}

// NewStatic creates a static source with one row per title, all under
// the given tag. At least one title is required.
func NewStatic(tag types.TypeTag, titles ...string) (*Static, error) {
	if len(titles) == 0 {
		return nil, errors.New("static source: at least one title is required")
	}
	items := make([]types.Item, len(titles))
	for i, title := range titles {
		items[i] = types.Item{Tag: tag, Title: title}
	}
	return NewStaticItems(tag, items...)
}

// NewStaticItems creates a static source from fully formed items, for
// callers that need to control identities or bodies. Every item must
// carry the declared tag; items without an ID get a fresh one.
func NewStaticItems(tag types.TypeTag, items ...types.Item) (*Static, error) {
	if _, err := types.NewTagSet(tag); err != nil {
		return nil, fmt.Errorf("static source: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("static source: at least one item is required")
	}
	now := time.Now()
	frozen := make([]types.Item, len(items))
	for i, it := range items {
		if it.Tag != tag {
			return nil, &types.UnknownTypeError{Tag: it.Tag, Binding: -1, Position: i}
		}
		it = it.Clone()
		if it.ID == types.NoItemID {
			it.ID = types.NewItemID()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = now
		}
		frozen[i] = it
	}
	return &Static{tag: tag, items: frozen}, nil
}

// Items returns a copy of the frozen rows.
func (s *Static) Items() []types.Item {
	out := make([]types.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// ItemCount implements types.Adapter.
func (s *Static) ItemCount() int {
	return len(s.items)
}

// TypeTags implements types.Adapter.
func (s *Static) TypeTags() []types.TypeTag {
	return []types.TypeTag{s.tag}
}

// ItemType implements types.Adapter.
func (s *Static) ItemType(position int) (types.TypeTag, error) {
	if position < 0 || position >= len(s.items) {
		return "", &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return s.tag, nil
}

// ItemID implements types.Adapter.
func (s *Static) ItemID(position int) (types.ItemID, error) {
	if position < 0 || position >= len(s.items) {
		return types.NoItemID, &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return s.items[position].ID, nil
}

// NewHolder implements types.Adapter.
func (s *Static) NewHolder(tag types.TypeTag) (types.Holder, error) {
	if tag != s.tag {
		return nil, &types.UnknownTypeError{Tag: tag, Binding: -1, Position: -1}
	}
	return NewRowHolder(tag), nil
}

// BindHolder implements types.Adapter.
func (s *Static) BindHolder(holder types.Holder, position int) error {
	if position < 0 || position >= len(s.items) {
		return &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return bindRow(holder, s.items[position], position)
}

// Subscribe implements types.Adapter. The contents never change, so
// registered callbacks are never invoked.
func (s *Static) Subscribe(fn func()) (cancel func()) {
	return s.signals.Subscribe(fn)
}
