package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/paolorotolo/rv-joiner/internal/notify"
	"github.com/paolorotolo/rv-joiner/types"
)

const fileFormatVersion = "1.0"

// Constants for cross-process file locking.
const (
	fileLockTimeout    = 3 * time.Second
	fileLockRetryDelay = 100 * time.Millisecond
)

// fileDocument is the on-disk shape of a file source.
type fileDocument struct {
	Items    []types.Item `json:"items"`
	Metadata fileMetadata `json:"metadata"`
}

type fileMetadata struct {
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// File is a source backed by a JSON document on disk, safe to share
// between processes through a companion lock file. With Watch enabled
// it reloads and signals on external writes, so edits made by another
// process flow into a composition without manual refreshes.
type File struct {
	signals notify.Hub

	path     string
	lockPath string
	lock     *flock.Flock

	mu    sync.RWMutex
	tags  *types.TagSet
	items []types.Item

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}

	errFn    func(error)
	timeFunc func() time.Time
}

// FileOption configures a File source.
type FileOption func(*File)

// WithErrorFunc sets the callback for failures on the watch goroutine,
// where no caller is available to return an error to. By default such
// errors are discarded.
func WithErrorFunc(fn func(error)) FileOption {
	return func(f *File) {
		f.errFn = fn
	}
}

// WithTimeFunc overrides the clock used for persisted timestamps.
func WithTimeFunc(fn func() time.Time) FileOption {
	return func(f *File) {
		f.timeFunc = fn
	}
}

// NewFile creates a file source declaring the given tags, backed by the
// JSON document at path. A missing or empty file loads as an empty
// list; the file is created on the first mutation.
func NewFile(path string, tags []types.TypeTag, opts ...FileOption) (*File, error) {
	set, err := types.NewTagSet(tags...)
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	f := &File{
		path:     path,
		lockPath: path + ".lock",
		tags:     set,
		timeFunc: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.lock = flock.New(f.lockPath)

	if err := f.reload(); err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// withFileLock runs fn while holding the cross-process lock, shared for
// reads and exclusive for writes. The lock lives in a companion .lock
// file because the data file itself is swapped out on every save.
func (f *File) withFileLock(exclusive bool, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), fileLockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = f.lock.TryLockContext(ctx, fileLockRetryDelay)
	} else {
		locked, err = f.lock.TryRLockContext(ctx, fileLockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("file lock busy after %s", fileLockTimeout)
	}
	defer func() { _ = f.lock.Unlock() }()

	return fn()
}

// loadFile reads and parses the backing file. The caller must hold the
// cross-process lock.
func (f *File) loadFile() ([]types.Item, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	for i, it := range doc.Items {
		if !f.tags.Contains(it.Tag) {
			return nil, &types.UnknownTypeError{Tag: it.Tag, Binding: -1, Position: i}
		}
	}
	return doc.Items, nil
}

// saveFile writes items to the backing file atomically: marshal to a
// temp file, then rename over the target. The caller must hold the
// exclusive cross-process lock.
func (f *File) saveFile(items []types.Item) error {
	doc := fileDocument{
		Items: items,
		Metadata: fileMetadata{
			Version:   fileFormatVersion,
			UpdatedAt: f.timeFunc(),
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", f.path, err)
	}
	tmpFile := f.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, f.path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// reload refreshes the in-memory snapshot from disk. An item with an
// undeclared tag aborts the reload and keeps the previous snapshot.
func (f *File) reload() error {
	var items []types.Item
	err := f.withFileLock(false, func() error {
		var loadErr error
		items, loadErr = f.loadFile()
		return loadErr
	})
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	return nil
}

// Reload re-reads the backing file and signals subscribers.
func (f *File) Reload() error {
	if err := f.reload(); err != nil {
		return err
	}
	f.signals.Broadcast()
	return nil
}

// update applies fn to the freshest on-disk state and persists the
// result, all under the exclusive cross-process lock so concurrent
// writers cannot interleave. Subscribers are signalled after the write
// lands.
func (f *File) update(fn func(current []types.Item) ([]types.Item, error)) error {
	err := f.withFileLock(true, func() error {
		current, err := f.loadFile()
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if err := f.saveFile(next); err != nil {
			return err
		}
		f.mu.Lock()
		f.items = next
		f.mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}
	f.signals.Broadcast()
	return nil
}

// Append adds items at the end of the list and persists the result.
func (f *File) Append(items ...types.Item) error {
	return f.update(func(current []types.Item) ([]types.Item, error) {
		prepared, err := prepareItems(f.tags, items, len(current), f.timeFunc())
		if err != nil {
			return nil, err
		}
		return append(current, prepared...), nil
	})
}

// RemoveAt deletes the item at the given local position and persists
// the result.
func (f *File) RemoveAt(position int) error {
	return f.update(func(current []types.Item) ([]types.Item, error) {
		if position < 0 || position >= len(current) {
			return nil, &types.IndexError{What: "position", Index: position, Count: len(current)}
		}
		return append(current[:position], current[position+1:]...), nil
	})
}

// SetItems replaces the whole list and persists the result.
func (f *File) SetItems(items []types.Item) error {
	return f.update(func([]types.Item) ([]types.Item, error) {
		return prepareItems(f.tags, items, 0, f.timeFunc())
	})
}

// Items returns a copy of the current snapshot.
func (f *File) Items() []types.Item {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]types.Item, len(f.items))
	for i, it := range f.items {
		out[i] = it.Clone()
	}
	return out
}

// Watch starts reloading on external writes to the backing file. The
// watcher observes the parent directory, which survives the atomic
// replace dance both editors and this adapter use. The adapter's own
// writes pass through the watcher too; the redundant reloads are
// harmless.
func (f *File) Watch() error {
	f.watchMu.Lock()
	defer f.watchMu.Unlock()
	if f.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file source: start watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("file source: watch %s: %w", filepath.Dir(f.path), err)
	}
	f.watcher = w
	f.done = make(chan struct{})
	go f.watchLoop(w, f.done)
	return nil
}

func (f *File) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	base := filepath.Base(f.path)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := f.Reload(); err != nil {
				f.reportError(err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.reportError(err)
		}
	}
}

// Unwatch stops the watcher and waits for the watch goroutine to drain.
func (f *File) Unwatch() {
	f.watchMu.Lock()
	defer f.watchMu.Unlock()
	if f.watcher == nil {
		return
	}
	_ = f.watcher.Close()
	<-f.done
	f.watcher = nil
	f.done = nil
}

// Close stops watching and removes the companion lock file. The backing
// file itself is left in place.
func (f *File) Close() error {
	f.Unwatch()
	_ = os.Remove(f.lockPath)
	return nil
}

func (f *File) reportError(err error) {
	if f.errFn != nil {
		f.errFn(err)
	}
}

// ItemCount implements types.Adapter.
func (f *File) ItemCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// TypeTags implements types.Adapter.
func (f *File) TypeTags() []types.TypeTag {
	return f.tags.All()
}

// ItemType implements types.Adapter.
func (f *File) ItemType(position int) (types.TypeTag, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if position < 0 || position >= len(f.items) {
		return "", &types.IndexError{What: "position", Index: position, Count: len(f.items)}
	}
	return f.items[position].Tag, nil
}

// ItemID implements types.Adapter.
func (f *File) ItemID(position int) (types.ItemID, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if position < 0 || position >= len(f.items) {
		return types.NoItemID, &types.IndexError{What: "position", Index: position, Count: len(f.items)}
	}
	return f.items[position].ID, nil
}

// NewHolder implements types.Adapter.
func (f *File) NewHolder(tag types.TypeTag) (types.Holder, error) {
	if !f.tags.Contains(tag) {
		return nil, &types.UnknownTypeError{Tag: tag, Binding: -1, Position: -1}
	}
	return NewRowHolder(tag), nil
}

// BindHolder implements types.Adapter.
func (f *File) BindHolder(holder types.Holder, position int) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if position < 0 || position >= len(f.items) {
		return &types.IndexError{What: "position", Index: position, Count: len(f.items)}
	}
	return bindRow(holder, f.items[position], position)
}

// Subscribe implements types.Adapter.
func (f *File) Subscribe(fn func()) (cancel func()) {
	return f.signals.Subscribe(fn)
}
