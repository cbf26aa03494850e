package joiner

import (
	"fmt"

	"github.com/paolorotolo/rv-joiner/internal/validation"
	"github.com/paolorotolo/rv-joiner/types"
)

// Binding pairs a source adapter with the tag set it declared when it
// joined a composition. The set is frozen at binding time: if the
// adapter's TypeTags drift afterwards, the original declaration wins
// and items reported under new tags fail the rebuild.
type Binding struct {
	adapter types.Adapter
	tags    *types.TagSet
}

// NewBinding validates the adapter's declarable contract and freezes
// its tag set.
func NewBinding(adapter types.Adapter) (*Binding, error) {
	tags, err := validation.Adapter(adapter)
	if err != nil {
		return nil, fmt.Errorf("bind adapter: %w", err)
	}
	return &Binding{adapter: adapter, tags: tags}, nil
}

// Adapter returns the wrapped source.
func (b *Binding) Adapter() types.Adapter {
	return b.adapter
}

// TypeCount returns the number of tags the source declared.
func (b *Binding) TypeCount() int {
	return b.tags.Count()
}

// TagAt returns the declared tag at the given local type index.
func (b *Binding) TagAt(index int) (types.TypeTag, error) {
	return b.tags.At(index)
}

// IndexOf returns the local type index of a declared tag.
func (b *Binding) IndexOf(tag types.TypeTag) (int, error) {
	return b.tags.IndexOf(tag)
}

// Tags returns the frozen declared tags in order.
func (b *Binding) Tags() []types.TypeTag {
	return b.tags.All()
}

// ItemCount returns the source's current item count.
func (b *Binding) ItemCount() int {
	return b.adapter.ItemCount()
}

// ItemType returns the source's tag for the item at the given local
// position.
func (b *Binding) ItemType(position int) (types.TypeTag, error) {
	return b.adapter.ItemType(position)
}

// ItemID returns the source's stable identity for the item at the given
// local position.
func (b *Binding) ItemID(position int) (types.ItemID, error) {
	return b.adapter.ItemID(position)
}

// NewHolder asks the source for a render target for one of its declared
// tags. Tags outside the frozen set are rejected without consulting the
// source.
func (b *Binding) NewHolder(tag types.TypeTag) (types.Holder, error) {
	if !b.tags.Contains(tag) {
		return nil, &types.UnknownTypeError{Tag: tag, Binding: -1, Position: -1}
	}
	return b.adapter.NewHolder(tag)
}

// BindHolder forwards a bind request to the source.
func (b *Binding) BindHolder(holder types.Holder, position int) error {
	return b.adapter.BindHolder(holder, position)
}
