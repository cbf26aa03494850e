package joiner

import (
	"github.com/paolorotolo/rv-joiner/types"
)

// Aliases for the shared vocabulary, so hosts composing lists can work
// against this package alone for the common cases.

type (
	// TypeTag names one kind of item inside a single source list.
	TypeTag = types.TypeTag

	// ItemID is the stable identity of an item.
	ItemID = types.ItemID

	// Item is a single entry in a source list.
	Item = types.Item

	// Adapter is the contract a source list implements to take part in
	// a composition.
	Adapter = types.Adapter

	// Holder is a reusable render target routed between the host and
	// the owning source.
	Holder = types.Holder

	// IndexError reports an index outside its valid range.
	IndexError = types.IndexError

	// UnknownTypeError reports a type tag that was never declared.
	UnknownTypeError = types.UnknownTypeError
)

// NoItemID is the zero item identity.
const NoItemID = types.NoItemID
