package geo

import (
	"context"
	"errors"
)

// ErrBackendUnavailable signals a store connection failure. It is the only
// error the engine propagates to callers as fatal; everything else in the
// taxonomy degrades to a partial or empty result.
var ErrBackendUnavailable = errors.New("place store unavailable")

// ErrIncompleteHierarchy signals a broken parent link while walking an
// ancestor chain. Callers format with whatever ancestors were resolved.
var ErrIncompleteHierarchy = errors.New("incomplete place hierarchy")

// IsIncompleteHierarchy reports whether err marks a broken ancestor chain.
func IsIncompleteHierarchy(err error) bool {
	return errors.Is(err, ErrIncompleteHierarchy)
}

// IsTimeout reports whether err stems from a caller-supplied deadline.
// Timeouts surface as empty results, not failures.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
