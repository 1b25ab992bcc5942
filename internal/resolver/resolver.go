// Package resolver implements reverse geocoding: nearest-place resolution
// from a coordinate with hierarchy assembly.
package resolver

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/config"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/store"
)

// Hit is one reverse geocoding result, ordered by ascending distance.
type Hit struct {
	Record         geo.PlaceRecord
	Ancestors      []geo.PlaceRecord
	DistanceMeters float64
	// Exact is false for the street fallback: no building matched within
	// the radius ladder, only a nearby road. Callers surface this
	// distinctly; road-only reverse geocoding is a known limitation of
	// the underlying data, not something to paper over.
	Exact bool
}

// Resolver finds the nearest places to a coordinate. Stateless between
// calls and safe for concurrent use.
type Resolver struct {
	store store.Store
	cfg   config.ReverseConfig
	log   *logrus.Entry
}

// New builds a Resolver.
func New(st store.Store, cfg config.ReverseConfig) *Resolver {
	return &Resolver{
		store: st,
		cfg:   cfg,
		log:   logrus.WithField("component", "resolver"),
	}
}

// Resolve walks the radius ladder looking for houses, then falls back to
// the nearest street. No place within the configured radii is a normal
// outcome yielding an empty result; deadline expiry likewise.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	for _, radius := range r.cfg.Radii {
		matches, err := r.store.Nearest(ctx, lat, lon, []geo.Kind{geo.KindHouse}, radius, limit)
		if err != nil {
			if geo.IsTimeout(err) {
				return nil, nil
			}
			return nil, err
		}
		if len(matches) > 0 {
			return r.assemble(ctx, matches, true), nil
		}
	}

	matches, err := r.store.Nearest(ctx, lat, lon, []geo.Kind{geo.KindStreet}, r.cfg.StreetRadius, limit)
	if err != nil {
		if geo.IsTimeout(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.assemble(ctx, matches, false), nil
}

// assemble builds the hierarchy for each hit, tolerating broken chains.
func (r *Resolver) assemble(ctx context.Context, matches []store.NearMatch, exact bool) []Hit {
	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		hit := Hit{
			Record:         m.Record,
			DistanceMeters: m.DistanceMeters,
			Exact:          exact,
		}
		chain, err := r.store.Ancestors(ctx, m.Record)
		if err != nil && !geo.IsIncompleteHierarchy(err) {
			r.log.WithError(err).WithField("place_id", m.Record.ID).
				Debug("ancestor resolution failed")
		}
		hit.Ancestors = chain
		hits = append(hits, hit)
	}
	return hits
}
