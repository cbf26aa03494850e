// Package adapters provides ready-made sources for joined lists: fixed
// rows, in-memory slices, JSON files shared across processes, and SQL
// query results. Every adapter satisfies types.Adapter and hands out
// RowHolder render targets.
package adapters

import (
	"fmt"

	"github.com/paolorotolo/rv-joiner/types"
)

// RowHolder is the render target used by the bundled adapters: one
// reusable text row, repopulated on every bind.
type RowHolder struct {
	tag types.TypeTag

	// Position is the local position bound most recently, -1 before
	// the first bind.
	Position int
	Title    string
	Body     string
}

// NewRowHolder creates an unbound row holder for the given tag.
func NewRowHolder(tag types.TypeTag) *RowHolder {
	return &RowHolder{tag: tag, Position: -1}
}

// TypeTag returns the tag the holder was created for.
func (h *RowHolder) TypeTag() types.TypeTag {
	return h.tag
}

// bindRow populates a row holder from an item. Shared by the bundled
// adapters' BindHolder implementations.
func bindRow(holder types.Holder, it types.Item, position int) error {
	rh, ok := holder.(*RowHolder)
	if !ok {
		return fmt.Errorf("unexpected holder type %T", holder)
	}
	if rh.tag != it.Tag {
		return fmt.Errorf("holder for tag %q cannot bind item of tag %q", rh.tag, it.Tag)
	}
	rh.Position = position
	rh.Title = it.Title
	rh.Body = it.Body
	return nil
}
