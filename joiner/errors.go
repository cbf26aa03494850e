package joiner

import "errors"

// ErrStableIDsDisabled is returned by ItemID when the joiner was built
// with WithStableIDs(false).
var ErrStableIDsDisabled = errors.New("stable item IDs are disabled")

// ErrClosed is returned by operations on a closed joiner.
var ErrClosed = errors.New("joiner is closed")
