package types

// Adapter is the contract a source list implements to take part in a
// joined composition. Positions and type tags are local to the adapter;
// the engine translates them into the joined coordinate space.
//
// ItemCount, ItemType and ItemID must be consistent with each other
// between two change notifications: the engine reads them while
// rebuilding its tables and trusts that the snapshot does not shift
// underneath it. ItemType must only return tags from the set TypeTags
// declared; reporting any other tag fails the rebuild.
type Adapter interface {
	// ItemCount returns the number of items the source currently holds.
	ItemCount() int

	// TypeTags returns the source's declared type tags in a stable
	// order. The engine reads this once, at binding time, and treats
	// the result as frozen.
	TypeTags() []TypeTag

	// ItemType returns the declared tag of the item at the given local
	// position.
	ItemType(position int) (TypeTag, error)

	// ItemID returns the stable identity of the item at the given local
	// position. Sources without stable identities return NoItemID.
	ItemID(position int) (ItemID, error)

	// NewHolder creates a reusable render target for items of the given
	// declared tag.
	NewHolder(tag TypeTag) (Holder, error)

	// BindHolder fills a holder previously created by NewHolder with
	// the item at the given local position. The holder's tag always
	// matches the item's tag when the call comes from the engine.
	BindHolder(holder Holder, position int) error

	// Subscribe registers fn to run after every content change: items
	// added, removed, moved or edited. The returned cancel function
	// unregisters fn; it is safe to call more than once.
	Subscribe(fn func()) (cancel func())
}

// Holder is a reusable render target. The engine never inspects holders
// beyond their tag; it routes them between the host and the owning
// adapter.
type Holder interface {
	// TypeTag returns the declared tag the holder was created for.
	TypeTag() TypeTag
}
