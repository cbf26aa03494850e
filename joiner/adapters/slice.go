package adapters

import (
	"fmt"
	"sync"
	"time"

	"github.com/paolorotolo/rv-joiner/internal/notify"
	"github.com/paolorotolo/rv-joiner/types"
)

// Slice is an in-memory source backed by a Go slice. Every mutator
// broadcasts a change signal after the mutation commits, so a joiner
// composed over it stays current without manual refreshes.
type Slice struct {
	signals notify.Hub

	mu    sync.RWMutex
	tags  *types.TagSet
	items []types.Item
}

// NewSlice creates a slice source declaring the given tags, seeded with
// the given items. Items without an ID get a fresh one; items with a
// tag outside the declared set are rejected.
func NewSlice(tags []types.TypeTag, items ...types.Item) (*Slice, error) {
	set, err := types.NewTagSet(tags...)
	if err != nil {
		return nil, fmt.Errorf("slice source: %w", err)
	}
	s := &Slice{tags: set}
	prepared, err := prepareItems(set, items, 0, time.Now())
	if err != nil {
		return nil, fmt.Errorf("slice source: %w", err)
	}
	s.items = prepared
	return s, nil
}

// prepareItems validates item tags against the declared set and fills
// in missing identities and timestamps. base is the local position the
// first item will occupy, used only for error reporting. Shared by the
// mutable adapters.
func prepareItems(set *types.TagSet, items []types.Item, base int, now time.Time) ([]types.Item, error) {
	out := make([]types.Item, len(items))
	for i, it := range items {
		if !set.Contains(it.Tag) {
			return nil, &types.UnknownTypeError{Tag: it.Tag, Binding: -1, Position: base + i}
		}
		it = it.Clone()
		if it.ID == types.NoItemID {
			it.ID = types.NewItemID()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		it.UpdatedAt = now
		out[i] = it
	}
	return out, nil
}

// mutate runs fn under the write lock. Callers broadcast after mutate
// returns so subscribers never observe the lock held.
func (s *Slice) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Append adds items at the end of the list.
func (s *Slice) Append(items ...types.Item) error {
	err := s.mutate(func() error {
		prepared, err := prepareItems(s.tags, items, len(s.items), time.Now())
		if err != nil {
			return err
		}
		s.items = append(s.items, prepared...)
		return nil
	})
	if err != nil {
		return err
	}
	s.signals.Broadcast()
	return nil
}

// InsertAt adds one item at the given local position, shifting later
// items down. Position may equal the current count, which appends.
func (s *Slice) InsertAt(position int, item types.Item) error {
	err := s.mutate(func() error {
		if position < 0 || position > len(s.items) {
			return &types.IndexError{What: "position", Index: position, Count: len(s.items) + 1}
		}
		prepared, err := prepareItems(s.tags, []types.Item{item}, position, time.Now())
		if err != nil {
			return err
		}
		s.items = append(s.items, types.Item{})
		copy(s.items[position+1:], s.items[position:])
		s.items[position] = prepared[0]
		return nil
	})
	if err != nil {
		return err
	}
	s.signals.Broadcast()
	return nil
}

// RemoveAt deletes the item at the given local position.
func (s *Slice) RemoveAt(position int) error {
	err := s.mutate(func() error {
		if position < 0 || position >= len(s.items) {
			return &types.IndexError{What: "position", Index: position, Count: len(s.items)}
		}
		s.items = append(s.items[:position], s.items[position+1:]...)
		return nil
	})
	if err != nil {
		return err
	}
	s.signals.Broadcast()
	return nil
}

// SetItem replaces the item at the given local position. An empty ID on
// the replacement keeps the existing identity, so edits in place do not
// look like a removal plus an insertion to ID-aware hosts.
func (s *Slice) SetItem(position int, item types.Item) error {
	err := s.mutate(func() error {
		if position < 0 || position >= len(s.items) {
			return &types.IndexError{What: "position", Index: position, Count: len(s.items)}
		}
		if item.ID == types.NoItemID {
			item.ID = s.items[position].ID
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = s.items[position].CreatedAt
		}
		prepared, err := prepareItems(s.tags, []types.Item{item}, position, time.Now())
		if err != nil {
			return err
		}
		s.items[position] = prepared[0]
		return nil
	})
	if err != nil {
		return err
	}
	s.signals.Broadcast()
	return nil
}

// Move relocates the item at from to the position to, shifting the
// items between them.
func (s *Slice) Move(from, to int) error {
	err := s.mutate(func() error {
		if from < 0 || from >= len(s.items) {
			return &types.IndexError{What: "position", Index: from, Count: len(s.items)}
		}
		if to < 0 || to >= len(s.items) {
			return &types.IndexError{What: "position", Index: to, Count: len(s.items)}
		}
		if from == to {
			return nil
		}
		it := s.items[from]
		s.items = append(s.items[:from], s.items[from+1:]...)
		s.items = append(s.items, types.Item{})
		copy(s.items[to+1:], s.items[to:])
		s.items[to] = it
		return nil
	})
	if err != nil {
		return err
	}
	s.signals.Broadcast()
	return nil
}

// SetItems replaces the whole list.
func (s *Slice) SetItems(items []types.Item) error {
	err := s.mutate(func() error {
		prepared, err := prepareItems(s.tags, items, 0, time.Now())
		if err != nil {
			return err
		}
		s.items = prepared
		return nil
	})
	if err != nil {
		return err
	}
	s.signals.Broadcast()
	return nil
}

// Items returns a copy of the current list.
func (s *Slice) Items() []types.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// ItemAt returns a copy of the item at the given local position.
func (s *Slice) ItemAt(position int) (types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.items) {
		return types.Item{}, &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return s.items[position].Clone(), nil
}

// ItemCount implements types.Adapter.
func (s *Slice) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// TypeTags implements types.Adapter.
func (s *Slice) TypeTags() []types.TypeTag {
	return s.tags.All()
}

// ItemType implements types.Adapter.
func (s *Slice) ItemType(position int) (types.TypeTag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.items) {
		return "", &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return s.items[position].Tag, nil
}

// ItemID implements types.Adapter.
func (s *Slice) ItemID(position int) (types.ItemID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.items) {
		return types.NoItemID, &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return s.items[position].ID, nil
}

// NewHolder implements types.Adapter.
func (s *Slice) NewHolder(tag types.TypeTag) (types.Holder, error) {
	if !s.tags.Contains(tag) {
		return nil, &types.UnknownTypeError{Tag: tag, Binding: -1, Position: -1}
	}
	return NewRowHolder(tag), nil
}

// BindHolder implements types.Adapter.
func (s *Slice) BindHolder(holder types.Holder, position int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.items) {
		return &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return bindRow(holder, s.items[position], position)
}

// Subscribe implements types.Adapter.
func (s *Slice) Subscribe(fn func()) (cancel func()) {
	return s.signals.Subscribe(fn)
}

// Broadcast tells subscribers the contents changed out of band, for
// callers that mutated items through retained references.
func (s *Slice) Broadcast() {
	s.signals.Broadcast()
}
