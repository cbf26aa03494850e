package types

import (
	"errors"
	"fmt"
)

// MaxTags bounds how many type tags a single source may declare. The
// bound keeps global type IDs small and catches runaway declarations
// early.
const MaxTags = 64

// TagSet is the frozen, ordered set of type tags a source declared at
// binding time. Declaration order assigns each tag a dense local index,
// which the engine turns into a global type ID by adding the binding's
// offset. The set never changes after construction; items observed with
// a tag outside the set are a contract violation, not a new tag.
type TagSet struct {
	tags    []TypeTag
	indexOf map[TypeTag]int
}

// NewTagSet builds a tag set from the declared tags in order. It
// rejects empty sets, empty tags, duplicates, and sets larger than
// MaxTags.
func NewTagSet(tags ...TypeTag) (*TagSet, error) {
	if len(tags) == 0 {
		return nil, errors.New("at least one type tag must be declared")
	}
	if len(tags) > MaxTags {
		return nil, fmt.Errorf("too many type tags: %d declared, maximum is %d", len(tags), MaxTags)
	}

	set := &TagSet{
		tags:    make([]TypeTag, len(tags)),
		indexOf: make(map[TypeTag]int, len(tags)),
	}
	for i, tag := range tags {
		if tag == "" {
			return nil, fmt.Errorf("type tag %d is empty", i)
		}
		if prev, ok := set.indexOf[tag]; ok {
			return nil, fmt.Errorf("duplicate type tag %q at positions %d and %d", tag, prev, i)
		}
		set.tags[i] = tag
		set.indexOf[tag] = i
	}
	return set, nil
}

// Count returns the number of declared tags.
func (s *TagSet) Count() int {
	return len(s.tags)
}

// At returns the tag at the given local index.
func (s *TagSet) At(index int) (TypeTag, error) {
	if index < 0 || index >= len(s.tags) {
		return "", &IndexError{What: "type index", Index: index, Count: len(s.tags)}
	}
	return s.tags[index], nil
}

// IndexOf returns the local index of the given tag.
func (s *TagSet) IndexOf(tag TypeTag) (int, error) {
	index, ok := s.indexOf[tag]
	if !ok {
		return 0, &UnknownTypeError{Tag: tag, Binding: -1, Position: -1}
	}
	return index, nil
}

// Contains reports whether the tag was declared.
func (s *TagSet) Contains(tag TypeTag) bool {
	_, ok := s.indexOf[tag]
	return ok
}

// All returns the declared tags in order. The slice is a copy.
func (s *TagSet) All() []TypeTag {
	out := make([]TypeTag, len(s.tags))
	copy(out, s.tags)
	return out
}
