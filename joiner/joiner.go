// Package joiner composes independently owned source lists into one
// joined list. Each source keeps its own positions and type tags; the
// joiner translates them into a dense joined coordinate space with
// globally unique type IDs, and keeps the translation tables current by
// rebuilding them whenever a source reports a change.
//
// Two tables back every translation. The type table is fixed when the
// composition is built: one joined type ID per declared tag per
// binding, in binding order. The position table is regenerated from
// scratch on every change signal, which trades rebuild cost for the
// guarantee that it can never drift out of sync with the sources.
package joiner

import (
	"errors"
	"fmt"

	"github.com/paolorotolo/rv-joiner/internal/notify"
	"github.com/paolorotolo/rv-joiner/types"
)

// Location identifies where a joined position lands: the binding that
// owns the item, the item's local position inside that binding, and the
// item's joined type ID.
type Location struct {
	Binding    int
	Local      int
	GlobalType int
}

// typeEntry is one row of the type table.
type typeEntry struct {
	binding int
	tag     types.TypeTag
}

// posEntry is one row of the position table.
type posEntry struct {
	binding    int
	local      int
	globalType int
}

// Joiner presents an ordered set of bindings as a single joined list.
// All methods are safe for concurrent use.
type Joiner struct {
	bindings []*Binding

	// The type table and its per-binding offsets never change after
	// construction. typeOffsets[i] is the first joined type ID assigned
	// to binding i.
	typeTable   []typeEntry
	typeOffsets []int

	locks   *lockManager
	signals notify.Hub

	// The position table is replaced wholesale by rebuild. posOffsets[i]
	// is the joined position of binding i's local position 0, and
	// counts[i] the item count binding i reported, both as of the last
	// successful rebuild.
	posTable   []posEntry
	posOffsets []int
	counts     []int

	// refreshErr latches a failed automatic rebuild so queries surface
	// it instead of answering from stale tables. A later successful
	// rebuild clears it.
	refreshErr error

	stableIDs   bool
	autoRefresh bool
	cancels     []func()
	closed      bool
}

// New composes the given bindings into a joined list. Binding order is
// significant: it fixes both the relative order of items and the
// assignment of joined type IDs.
//
// Construction performs the first rebuild, so a source violating its
// declared contract fails New rather than a later query. Unless auto
// refresh is disabled, New also subscribes to every source; the
// returned Joiner must be closed to release those subscriptions.
func New(bindings []*Binding, opts ...Option) (*Joiner, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	j := &Joiner{
		bindings:    make([]*Binding, len(bindings)),
		locks:       newLockManager(),
		stableIDs:   cfg.stableIDs,
		autoRefresh: cfg.autoRefresh,
	}
	for i, b := range bindings {
		if b == nil {
			return nil, fmt.Errorf("binding %d must not be nil", i)
		}
		j.bindings[i] = b
	}

	j.typeOffsets = make([]int, len(j.bindings))
	offset := 0
	for i, b := range j.bindings {
		j.typeOffsets[i] = offset
		for _, tag := range b.Tags() {
			j.typeTable = append(j.typeTable, typeEntry{binding: i, tag: tag})
		}
		offset += b.TypeCount()
	}

	// Subscribing before the first rebuild means a change racing
	// construction costs one redundant rebuild instead of a missed one.
	if j.autoRefresh {
		j.cancels = make([]func(), 0, len(j.bindings))
		for _, b := range j.bindings {
			j.cancels = append(j.cancels, b.adapter.Subscribe(j.onSourceChanged))
		}
	}

	err := j.locks.execute(writeOperation, func() error {
		return j.rebuild()
	})
	if err != nil {
		for _, cancel := range j.cancels {
			cancel()
		}
		return nil, fmt.Errorf("initial rebuild: %w", err)
	}
	return j, nil
}

// Join wraps each adapter in a binding and composes them. It is the
// convenience form of NewBinding plus New.
func Join(adapters []types.Adapter, opts ...Option) (*Joiner, error) {
	bindings := make([]*Binding, len(adapters))
	for i, a := range adapters {
		b, err := NewBinding(a)
		if err != nil {
			return nil, fmt.Errorf("adapter %d: %w", i, err)
		}
		bindings[i] = b
	}
	return New(bindings, opts...)
}

// rebuild regenerates the position table from scratch by walking every
// binding in order. It assigns nothing until the whole pass succeeds,
// so a contract violation leaves the previous tables intact. The caller
// must hold the write lock.
func (j *Joiner) rebuild() error {
	var table []posEntry
	offsets := make([]int, len(j.bindings))
	counts := make([]int, len(j.bindings))

	for i, b := range j.bindings {
		offsets[i] = len(table)
		n := b.ItemCount()
		if n < 0 {
			return fmt.Errorf("binding %d: item count must not be negative, got %d", i, n)
		}
		counts[i] = n
		for local := 0; local < n; local++ {
			tag, err := b.ItemType(local)
			if err != nil {
				return fmt.Errorf("binding %d: item type at local position %d: %w", i, local, err)
			}
			localIndex, err := b.IndexOf(tag)
			if err != nil {
				return &types.UnknownTypeError{Tag: tag, Binding: i, Position: local}
			}
			table = append(table, posEntry{
				binding:    i,
				local:      local,
				globalType: j.typeOffsets[i] + localIndex,
			})
		}
	}

	j.posTable = table
	j.posOffsets = offsets
	j.counts = counts
	return nil
}

// onSourceChanged runs on every source change signal, on whatever
// goroutine the source broadcasts from.
func (j *Joiner) onSourceChanged() {
	var rebuilt bool
	_ = j.locks.execute(writeOperation, func() error {
		if j.closed {
			return nil
		}
		j.refreshErr = j.rebuild()
		rebuilt = j.refreshErr == nil
		return nil
	})
	if rebuilt {
		j.signals.Broadcast()
	}
}

// Refresh rebuilds the joined tables immediately. Hosts call it after
// mutating a source that does not emit change signals, or to retry
// after a failed automatic rebuild. On success any latched rebuild
// error is cleared and subscribers are notified.
func (j *Joiner) Refresh() error {
	err := j.locks.execute(writeOperation, func() error {
		if j.closed {
			return ErrClosed
		}
		j.refreshErr = j.rebuild()
		return j.refreshErr
	})
	if err != nil {
		return err
	}
	j.signals.Broadcast()
	return nil
}

// Subscribe registers fn to run after every successful rebuild, manual
// or automatic. Hosts use it to re-render when any source changes. The
// returned cancel function unregisters fn.
func (j *Joiner) Subscribe(fn func()) (cancel func()) {
	return j.signals.Subscribe(fn)
}

// queryGate reports whether position queries may answer. The caller
// must hold a lock.
func (j *Joiner) queryGate() error {
	if j.closed {
		return ErrClosed
	}
	if j.refreshErr != nil {
		return fmt.Errorf("joined tables are stale after a failed rebuild: %w", j.refreshErr)
	}
	return nil
}

// entryAt resolves a joined position against the position table. The
// caller must hold a lock.
func (j *Joiner) entryAt(position int) (posEntry, error) {
	if position < 0 || position >= len(j.posTable) {
		return posEntry{}, &types.IndexError{What: "position", Index: position, Count: len(j.posTable)}
	}
	return j.posTable[position], nil
}

// ItemCount returns the joined item count: the sum of every binding's
// count as of the last successful rebuild.
func (j *Joiner) ItemCount() int {
	var n int
	_ = j.locks.execute(readOperation, func() error {
		n = len(j.posTable)
		return nil
	})
	return n
}

// ItemType returns the joined type ID of the item at the given joined
// position.
func (j *Joiner) ItemType(position int) (int, error) {
	var globalType int
	err := j.locks.execute(readOperation, func() error {
		if err := j.queryGate(); err != nil {
			return err
		}
		entry, err := j.entryAt(position)
		if err != nil {
			return err
		}
		globalType = entry.globalType
		return nil
	})
	if err != nil {
		return 0, err
	}
	return globalType, nil
}

// ItemID returns the stable identity of the item at the given joined
// position, delegated to the owning source. It returns
// ErrStableIDsDisabled when the joiner was built with stable IDs off.
func (j *Joiner) ItemID(position int) (types.ItemID, error) {
	var id types.ItemID
	err := j.locks.execute(readOperation, func() error {
		if err := j.queryGate(); err != nil {
			return err
		}
		if !j.stableIDs {
			return ErrStableIDsDisabled
		}
		entry, err := j.entryAt(position)
		if err != nil {
			return err
		}
		var idErr error
		id, idErr = j.bindings[entry.binding].ItemID(entry.local)
		if idErr != nil {
			return fmt.Errorf("binding %d: item ID at local position %d: %w", entry.binding, entry.local, idErr)
		}
		return nil
	})
	if err != nil {
		return types.NoItemID, err
	}
	return id, nil
}

// NewHolder creates a render target for the given joined type ID by
// delegating to the binding that owns the ID. The type table is fixed
// at construction, so a holder stays recyclable for any later position
// of the same joined type, across rebuilds.
func (j *Joiner) NewHolder(globalType int) (types.Holder, error) {
	var holder types.Holder
	err := j.locks.execute(readOperation, func() error {
		if j.closed {
			return ErrClosed
		}
		if globalType < 0 || globalType >= len(j.typeTable) {
			return &types.IndexError{What: "type ID", Index: globalType, Count: len(j.typeTable)}
		}
		entry := j.typeTable[globalType]
		h, err := j.bindings[entry.binding].NewHolder(entry.tag)
		if err != nil {
			return fmt.Errorf("binding %d: holder for tag %q: %w", entry.binding, entry.tag, err)
		}
		holder = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return holder, nil
}

// BindHolder fills holder with the item at the given joined position.
// The holder must have been created by NewHolder for that position's
// joined type.
func (j *Joiner) BindHolder(holder types.Holder, position int) error {
	return j.locks.execute(readOperation, func() error {
		if holder == nil {
			return errors.New("holder must not be nil")
		}
		if err := j.queryGate(); err != nil {
			return err
		}
		entry, err := j.entryAt(position)
		if err != nil {
			return err
		}
		if err := j.bindings[entry.binding].BindHolder(holder, entry.local); err != nil {
			return fmt.Errorf("binding %d: bind at local position %d: %w", entry.binding, entry.local, err)
		}
		return nil
	})
}

// Locate translates a joined position into the owning binding, the
// local position inside it, and the joined type ID.
func (j *Joiner) Locate(position int) (Location, error) {
	var loc Location
	err := j.locks.execute(readOperation, func() error {
		if err := j.queryGate(); err != nil {
			return err
		}
		entry, err := j.entryAt(position)
		if err != nil {
			return err
		}
		loc = Location{Binding: entry.binding, Local: entry.local, GlobalType: entry.globalType}
		return nil
	})
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}

// JoinedPosition translates a binding index and a local position inside
// that binding into the joined position. It is the inverse of Locate:
// the local position is validated against the binding's count as of the
// last successful rebuild.
func (j *Joiner) JoinedPosition(binding, local int) (int, error) {
	var pos int
	err := j.locks.execute(readOperation, func() error {
		if err := j.queryGate(); err != nil {
			return err
		}
		if binding < 0 || binding >= len(j.bindings) {
			return &types.IndexError{What: "binding index", Index: binding, Count: len(j.bindings)}
		}
		if local < 0 || local >= j.counts[binding] {
			return &types.IndexError{What: "position", Index: local, Count: j.counts[binding]}
		}
		pos = j.posOffsets[binding] + local
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pos, nil
}

// GlobalTag translates a joined type ID back into the binding that owns
// it and the binding's local tag.
func (j *Joiner) GlobalTag(globalType int) (binding int, tag types.TypeTag, err error) {
	err = j.locks.execute(readOperation, func() error {
		if j.closed {
			return ErrClosed
		}
		if globalType < 0 || globalType >= len(j.typeTable) {
			return &types.IndexError{What: "type ID", Index: globalType, Count: len(j.typeTable)}
		}
		entry := j.typeTable[globalType]
		binding = entry.binding
		tag = entry.tag
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	return binding, tag, nil
}

// GlobalType translates a binding index and one of that binding's
// declared tags into the joined type ID. It is the inverse of
// GlobalTag.
func (j *Joiner) GlobalType(binding int, tag types.TypeTag) (int, error) {
	var globalType int
	err := j.locks.execute(readOperation, func() error {
		if j.closed {
			return ErrClosed
		}
		if binding < 0 || binding >= len(j.bindings) {
			return &types.IndexError{What: "binding index", Index: binding, Count: len(j.bindings)}
		}
		localIndex, err := j.bindings[binding].IndexOf(tag)
		if err != nil {
			return &types.UnknownTypeError{Tag: tag, Binding: binding, Position: -1}
		}
		globalType = j.typeOffsets[binding] + localIndex
		return nil
	})
	if err != nil {
		return 0, err
	}
	return globalType, nil
}

// TypeCount returns the total number of joined type IDs. Valid IDs are
// [0, TypeCount).
func (j *Joiner) TypeCount() int {
	return len(j.typeTable)
}

// BindingCount returns the number of composed bindings.
func (j *Joiner) BindingCount() int {
	return len(j.bindings)
}

// Binding returns the binding at the given index.
func (j *Joiner) Binding(index int) (*Binding, error) {
	if index < 0 || index >= len(j.bindings) {
		return nil, &types.IndexError{What: "binding index", Index: index, Count: len(j.bindings)}
	}
	return j.bindings[index], nil
}

// Close cancels the joiner's source subscriptions. Operations on a
// closed joiner return ErrClosed; closing twice is a no-op. Sources are
// not closed, their owners remain responsible for them.
func (j *Joiner) Close() error {
	var cancels []func()
	_ = j.locks.execute(writeOperation, func() error {
		if j.closed {
			return nil
		}
		j.closed = true
		cancels = j.cancels
		j.cancels = nil
		return nil
	})
	for _, cancel := range cancels {
		cancel()
	}
	return nil
}
