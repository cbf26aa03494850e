// Package types defines the shared vocabulary of the joined-list engine:
// type tags, item identities, the items themselves, and the Adapter
// contract that source lists implement to take part in a composition.
package types

import (
	"time"

	"github.com/google/uuid"
)

// TypeTag names one kind of item inside a single source list. Tags are
// local to the source that declares them: two sources may declare the
// same tag and the engine keeps their identities apart.
type TypeTag string

// ItemID is the stable identity of an item. It survives reordering,
// insertion and removal, unlike positions, which are reassigned on
// every rebuild.
type ItemID string

// NoItemID is the zero identity, reported when stable IDs are disabled
// or when a source has no identity for an item.
const NoItemID ItemID = ""

// NewItemID returns a fresh universally unique item identity.
func NewItemID() ItemID {
	return ItemID(uuid.NewString())
}

// Item is a single entry in a source list.
type Item struct {
	ID    ItemID  `json:"id"`    // stable identity, assigned by the source
	Tag   TypeTag `json:"tag"`   // which of the source's declared type tags this item is
	Title string  `json:"title"`
	Body  string  `json:"body,omitempty"`

	// Fields carries source-specific values that the engine passes
	// through without interpreting.
	Fields map[string]interface{} `json:"fields,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the item. The engine clones items at API
// boundaries so callers cannot mutate a source's internal state.
func (it Item) Clone() Item {
	out := it
	if it.Fields != nil {
		out.Fields = make(map[string]interface{}, len(it.Fields))
		for k, v := range it.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
