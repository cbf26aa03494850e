// Package validation implements the contract checks shared by the
// binding layer and the manifest builder. Everything that can be
// verified before a source joins a composition is verified here, so
// violations surface at construction instead of mid-rebuild.
package validation

import (
	"errors"
	"fmt"

	"github.com/paolorotolo/rv-joiner/types"
)

// Adapter verifies the parts of the source contract that are checkable
// up front and returns the source's frozen tag set: the adapter must be
// non-nil, must declare a valid tag set, and must not report a negative
// item count.
func Adapter(a types.Adapter) (*types.TagSet, error) {
	if a == nil {
		return nil, errors.New("adapter must not be nil")
	}
	set, err := types.NewTagSet(a.TypeTags()...)
	if err != nil {
		return nil, fmt.Errorf("declared type tags: %w", err)
	}
	if n := a.ItemCount(); n < 0 {
		return nil, fmt.Errorf("item count must not be negative, got %d", n)
	}
	return set, nil
}
