// Package postal adapts external address classifiers. The parser is an
// optional capability: when none is configured, or a configured one is
// unreachable, the matcher degrades to street-name-only search instead of
// failing the request.
package postal

import (
	"context"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
)

// Parser splits a raw address into semantic components.
//
// A nil Components result with a nil error means the parser could not
// classify the input; callers fall back to raw-text matching. Errors are
// reserved for misuse, not for service unavailability.
type Parser interface {
	Parse(ctx context.Context, raw string) (geo.Components, error)
}
