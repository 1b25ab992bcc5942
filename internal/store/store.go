// Package store defines the queryable backend the geocoding engine runs
// against. The engine consumes these primitives and never talks SQL
// itself; the PostgreSQL adapter lives alongside the interface.
package store

import (
	"context"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
)

// TextMatch pairs a record with its trigram similarity against the query.
// Ordering is not guaranteed; callers re-rank.
type TextMatch struct {
	Record geo.PlaceRecord
	// Score is the trigram similarity in [0,1], higher is better.
	Score float64
	// ChildCount is a popularity proxy, the number of records pointing
	// at this one as parent. Used as a completion tie-break.
	ChildCount int64
}

// NearMatch pairs a record with its distance from the query point.
type NearMatch struct {
	Record         geo.PlaceRecord
	DistanceMeters float64
}

// SearchOptions narrows a text search. Country, when set, is a hard
// filter applied before scoring, not a soft weight.
type SearchOptions struct {
	Country string
	Kinds   []geo.Kind
	Limit   int
}

// Store is the contract of the place backend. Implementations perform
// blocking I/O; deadlines arrive through the context and no retrying
// happens at this layer or above.
type Store interface {
	// SearchText returns records whose normalised names are similar to
	// the already-normalised query.
	SearchText(ctx context.Context, query string, opts SearchOptions) ([]TextMatch, error)

	// Nearest returns records of the given kinds within radiusMeters of
	// the point, ordered by ascending distance.
	Nearest(ctx context.Context, lat, lon float64, kinds []geo.Kind, radiusMeters float64, limit int) ([]NearMatch, error)

	// Ancestors walks the parent chain from the immediate parent up to
	// the country. On a broken link it returns the partial chain
	// together with geo.ErrIncompleteHierarchy.
	Ancestors(ctx context.Context, rec geo.PlaceRecord) ([]geo.PlaceRecord, error)

	// ResolveCountry returns the ISO code of the country containing the
	// point, or "" when no country polygon covers it.
	ResolveCountry(ctx context.Context, lat, lon float64) (string, error)
}
