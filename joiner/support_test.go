package joiner_test

import (
	"fmt"
	"sync"

	"github.com/paolorotolo/rv-joiner/types"
)

// memAdapter is a minimal scriptable source for exercising the joiner
// contract directly, including deliberate misbehavior.
type memAdapter struct {
	mu   sync.Mutex
	tags []types.TypeTag
	rows []memRow
	subs map[int]func()
	next int

	// badTag, when set, is reported for every item in place of its
	// real tag, simulating a source that breaks its declaration.
	badTag types.TypeTag

	// holderTags and binds record delegated calls for inspection.
	holderTags []types.TypeTag
	binds      []int
}

type memRow struct {
	id    types.ItemID
	tag   types.TypeTag
	title string
}

type memHolder struct {
	tag   types.TypeTag
	title string
}

func (h *memHolder) TypeTag() types.TypeTag { return h.tag }

func newMemAdapter(tags []types.TypeTag, rows ...memRow) *memAdapter {
	return &memAdapter{tags: tags, rows: rows, subs: make(map[int]func())}
}

func (m *memAdapter) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memAdapter) TypeTags() []types.TypeTag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.TypeTag(nil), m.tags...)
}

func (m *memAdapter) ItemType(position int) (types.TypeTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if position < 0 || position >= len(m.rows) {
		return "", &types.IndexError{What: "position", Index: position, Count: len(m.rows)}
	}
	if m.badTag != "" {
		return m.badTag, nil
	}
	return m.rows[position].tag, nil
}

func (m *memAdapter) ItemID(position int) (types.ItemID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if position < 0 || position >= len(m.rows) {
		return types.NoItemID, &types.IndexError{What: "position", Index: position, Count: len(m.rows)}
	}
	return m.rows[position].id, nil
}

func (m *memAdapter) NewHolder(tag types.TypeTag) (types.Holder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holderTags = append(m.holderTags, tag)
	return &memHolder{tag: tag}, nil
}

func (m *memAdapter) BindHolder(holder types.Holder, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if position < 0 || position >= len(m.rows) {
		return &types.IndexError{What: "position", Index: position, Count: len(m.rows)}
	}
	mh, ok := holder.(*memHolder)
	if !ok {
		return fmt.Errorf("unexpected holder type %T", holder)
	}
	mh.title = m.rows[position].title
	m.binds = append(m.binds, position)
	return nil
}

func (m *memAdapter) Subscribe(fn func()) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// broadcast fires the change signal like a real source would, outside
// any lock.
func (m *memAdapter) broadcast() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (m *memAdapter) setRows(rows ...memRow) {
	m.mu.Lock()
	m.rows = rows
	m.mu.Unlock()
	m.broadcast()
}

func (m *memAdapter) setBadTag(tag types.TypeTag) {
	m.mu.Lock()
	m.badTag = tag
	m.mu.Unlock()
}

func (m *memAdapter) subscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
