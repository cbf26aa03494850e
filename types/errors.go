package types

import "fmt"

// IndexError reports an index outside its valid range. What names the
// kind of index so callers can tell a bad position from a bad type ID
// in wrapped error chains.
type IndexError struct {
	What  string // "position", "type index", "type ID", "binding index"
	Index int    // the rejected value
	Count int    // number of valid values at the time of the call
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s %d out of range [0, %d)", e.What, e.Index, e.Count)
}

// UnknownTypeError reports a type tag that was never declared in the
// relevant tag set. The engine raises it when a source reports a tag
// outside the set it declared at binding time, and tag sets raise it
// for lookups of undeclared tags.
type UnknownTypeError struct {
	Tag TypeTag

	// Binding is the index of the binding that observed the tag, or -1
	// when the error arose outside a composition.
	Binding int

	// Position is the local position of the offending item, or -1 when
	// the lookup was not positional.
	Position int
}

func (e *UnknownTypeError) Error() string {
	switch {
	case e.Binding >= 0 && e.Position >= 0:
		return fmt.Sprintf("unknown type tag %q reported by binding %d at local position %d", e.Tag, e.Binding, e.Position)
	case e.Binding >= 0:
		return fmt.Sprintf("unknown type tag %q reported by binding %d", e.Tag, e.Binding)
	default:
		return fmt.Sprintf("unknown type tag %q", e.Tag)
	}
}
