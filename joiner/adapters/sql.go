package adapters

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/paolorotolo/rv-joiner/internal/notify"
	"github.com/paolorotolo/rv-joiner/types"
)

// SQL is a read-only source fed by a query. The query must yield one
// row per item in display order, with columns (id, tag, title) or
// (id, tag, title, body). The adapter holds a snapshot of the last
// result set; Reload re-runs the query and signals subscribers.
//
// The adapter does not own the database handle. Callers open it with
// whatever driver they register and close it after the composition
// shuts down.
type SQL struct {
	signals notify.Hub

	db    *sql.DB
	query string
	args  []interface{}

	mu    sync.RWMutex
	tags  *types.TagSet
	items []types.Item
}

// NewSQL creates a SQL source declaring the given tags and runs the
// query once for the initial snapshot.
func NewSQL(db *sql.DB, query string, tags []types.TypeTag, args ...interface{}) (*SQL, error) {
	if db == nil {
		return nil, errors.New("sql source: database handle must not be nil")
	}
	set, err := types.NewTagSet(tags...)
	if err != nil {
		return nil, fmt.Errorf("sql source: %w", err)
	}
	s := &SQL{
		db:    db,
		query: query,
		args:  args,
		tags:  set,
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-runs the query and signals subscribers. A row with an
// undeclared tag aborts the reload and keeps the previous snapshot.
func (s *SQL) Reload() error {
	if err := s.reload(); err != nil {
		return err
	}
	s.signals.Broadcast()
	return nil
}

func (s *SQL) reload() error {
	rows, err := s.db.Query(s.query, s.args...)
	if err != nil {
		return fmt.Errorf("sql source: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("sql source: columns: %w", err)
	}
	var withBody bool
	switch len(cols) {
	case 3:
	case 4:
		withBody = true
	default:
		return fmt.Errorf("sql source: query must yield columns (id, tag, title) or (id, tag, title, body), got %d columns", len(cols))
	}

	var items []types.Item
	for rows.Next() {
		var (
			id, tag, title string
			body           sql.NullString
		)
		if withBody {
			err = rows.Scan(&id, &tag, &title, &body)
		} else {
			err = rows.Scan(&id, &tag, &title)
		}
		if err != nil {
			return fmt.Errorf("sql source: scan row %d: %w", len(items), err)
		}
		if !s.tags.Contains(types.TypeTag(tag)) {
			return &types.UnknownTypeError{Tag: types.TypeTag(tag), Binding: -1, Position: len(items)}
		}
		items = append(items, types.Item{
			ID:    types.ItemID(id),
			Tag:   types.TypeTag(tag),
			Title: title,
			Body:  body.String,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sql source: rows: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the current snapshot.
func (s *SQL) Items() []types.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// ItemCount implements types.Adapter.
func (s *SQL) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// TypeTags implements types.Adapter.
func (s *SQL) TypeTags() []types.TypeTag {
	return s.tags.All()
}

// ItemType implements types.Adapter.
func (s *SQL) ItemType(position int) (types.TypeTag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.items) {
		return "", &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return s.items[position].Tag, nil
}

// ItemID implements types.Adapter.
func (s *SQL) ItemID(position int) (types.ItemID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.items) {
		return types.NoItemID, &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return s.items[position].ID, nil
}

// NewHolder implements types.Adapter.
func (s *SQL) NewHolder(tag types.TypeTag) (types.Holder, error) {
	if !s.tags.Contains(tag) {
		return nil, &types.UnknownTypeError{Tag: tag, Binding: -1, Position: -1}
	}
	return NewRowHolder(tag), nil
}

// BindHolder implements types.Adapter.
func (s *SQL) BindHolder(holder types.Holder, position int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if position < 0 || position >= len(s.items) {
		return &types.IndexError{What: "position", Index: position, Count: len(s.items)}
	}
	return bindRow(holder, s.items[position], position)
}

// Subscribe implements types.Adapter.
func (s *SQL) Subscribe(fn func()) (cancel func()) {
	return s.signals.Subscribe(fn)
}
