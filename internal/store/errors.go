package store

import "errors"

// ErrTransitionLost indicates a compare-and-set status transition matched
// no row because another worker advanced the detection first. Callers
// should treat this as losing the race, not as a storage failure.
var ErrTransitionLost = errors.New("status transition lost")
