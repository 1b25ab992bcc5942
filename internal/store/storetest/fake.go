// Package storetest provides an in-memory Store for engine tests. Its
// text search mimics pg_trgm scoring so ranking behaviour matches the
// PostgreSQL adapter closely enough to test against.
package storetest

import (
	"context"
	"sort"
	"strings"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/normalize"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/store"
)

// similarityFloor mirrors the pg_trgm % operator default.
const similarityFloor = 0.3

// Place is one seeded record.
type Place struct {
	Record     geo.PlaceRecord
	ChildCount int64
}

// Fake is an in-memory Store.
type Fake struct {
	Places []Place
	// Country is what ResolveCountry answers for any point.
	Country string
	// Err, when set, is returned by every query. Use it to simulate
	// backend failures and deadline expiry.
	Err error
}

var _ store.Store = (*Fake)(nil)

// Add seeds a record.
func (f *Fake) Add(rec geo.PlaceRecord, childCount int64) {
	f.Places = append(f.Places, Place{Record: rec, ChildCount: childCount})
}

func (f *Fake) SearchText(_ context.Context, query string, opts store.SearchOptions) ([]store.TextMatch, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	var matches []store.TextMatch
	for _, p := range f.Places {
		if opts.Country != "" && p.Record.CountryCode != opts.Country {
			continue
		}
		if len(opts.Kinds) > 0 && !kindIn(p.Record.Kind, opts.Kinds) {
			continue
		}
		name := normalize.Text(p.Record.Name)
		if name == "" {
			continue
		}
		score := TrigramSimilarity(query, name)
		if score < similarityFloor {
			continue
		}
		matches = append(matches, store.TextMatch{
			Record:     p.Record,
			Score:      score,
			ChildCount: p.ChildCount,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

func (f *Fake) Nearest(_ context.Context, lat, lon float64, kinds []geo.Kind, radiusMeters float64, limit int) ([]store.NearMatch, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	origin := geo.Point{Lat: lat, Lon: lon}
	var matches []store.NearMatch
	for _, p := range f.Places {
		if len(kinds) > 0 && !kindIn(p.Record.Kind, kinds) {
			continue
		}
		d := geo.DistanceMeters(origin, p.Record.Location)
		if d > radiusMeters {
			continue
		}
		matches = append(matches, store.NearMatch{Record: p.Record, DistanceMeters: d})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DistanceMeters < matches[j].DistanceMeters
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (f *Fake) Ancestors(_ context.Context, rec geo.PlaceRecord) ([]geo.PlaceRecord, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	byID := map[int64]geo.PlaceRecord{}
	for _, p := range f.Places {
		byID[p.Record.ID] = p.Record
	}

	var chain []geo.PlaceRecord
	parentID := rec.ParentID
	for parentID != nil {
		parent, ok := byID[*parentID]
		if !ok {
			return chain, geo.ErrIncompleteHierarchy
		}
		chain = append(chain, parent)
		if parent.Kind == geo.KindCountry {
			return chain, nil
		}
		parentID = parent.ParentID
	}
	return chain, geo.ErrIncompleteHierarchy
}

func (f *Fake) ResolveCountry(_ context.Context, _, _ float64) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.Country, nil
}

func kindIn(kind geo.Kind, kinds []geo.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// TrigramSimilarity scores two strings the way pg_trgm does: shared
// trigrams over the size of the trigram union, with the pg padding of two
// leading and one trailing space per word.
func TrigramSimilarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if tb[t] {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]bool {
	set := map[string]bool{}
	for _, word := range strings.Fields(s) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = true
		}
	}
	return set
}
