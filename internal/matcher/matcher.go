// Package matcher implements forward geocoding: ranking place records
// against fuzzy, possibly partial text input.
package matcher

import (
	"context"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/config"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/normalize"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/postal"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/store"
)

// componentSearch describes how one parsed address component feeds into a
// store query: which record kinds it targets and how specific it is.
// house_number and road pin down a location far better than a state name,
// so they carry the highest weight.
type componentSearch struct {
	key    string
	kinds  []geo.Kind
	weight float64
}

var componentSearches = []componentSearch{
	{geo.CompHouseNumber, []geo.Kind{geo.KindHouse}, 1.0},
	{geo.CompRoad, []geo.Kind{geo.KindStreet, geo.KindHouse}, 1.0},
	{geo.CompPostcode, nil, 0.8},
	{geo.CompCity, []geo.Kind{geo.KindCity}, 0.6},
	{geo.CompTown, []geo.Kind{geo.KindCity}, 0.6},
	{geo.CompVillage, []geo.Kind{geo.KindCity}, 0.6},
	{geo.CompSuburb, []geo.Kind{geo.KindSuburb}, 0.5},
	{geo.CompCounty, []geo.Kind{geo.KindCounty}, 0.4},
	{geo.CompState, []geo.Kind{geo.KindState}, 0.3},
	{geo.CompCountry, []geo.Kind{geo.KindCountry}, 0.2},
}

// Hints narrows a forward geocoding query. Country, when set, excludes
// candidates from other countries outright; a hard filter is faster than a
// soft weight but unconditional.
type Hints struct {
	Center  *geo.Point
	Country string
}

// Candidate is one ranked forward geocoding result.
type Candidate struct {
	Record    geo.PlaceRecord
	Ancestors []geo.PlaceRecord
	TextScore float64
	// DistanceScore is only meaningful when the query carried a center;
	// it decreases monotonically with distance.
	DistanceScore float64
	// DistanceMeters is +Inf when no center was supplied or the record
	// has no geometry.
	DistanceMeters float64
	CombinedRank   float64
}

// Matcher queries the store for candidate records and ranks them. It is
// stateless between calls and safe for concurrent use.
type Matcher struct {
	store  store.Store
	parser postal.Parser
	cfg    config.MatcherConfig
	log    *logrus.Entry
}

// New builds a Matcher. parser may be nil; matching then degrades to
// raw-text and per-token search.
func New(st store.Store, parser postal.Parser, cfg config.MatcherConfig) *Matcher {
	return &Matcher{
		store:  st,
		parser: parser,
		cfg:    cfg,
		log:    logrus.WithField("component", "matcher"),
	}
}

// Match resolves raw free text to ranked candidates. Empty input and
// deadline expiry both yield an empty result, never an error; only a
// backend failure propagates.
func (m *Matcher) Match(ctx context.Context, raw string, hints Hints) ([]Candidate, error) {
	if normalize.IsBlank(raw) {
		return nil, nil
	}

	comps := m.parse(ctx, raw)

	var matches []store.TextMatch
	var err error
	if comps != nil {
		matches, err = m.searchComponents(ctx, comps, hints)
	} else {
		matches, err = m.searchRaw(ctx, raw, hints)
	}
	if err != nil {
		if geo.IsTimeout(err) {
			m.log.WithError(err).Debug("search deadline expired")
			return nil, nil
		}
		return nil, err
	}

	candidates := m.rank(matches, hints)
	if len(candidates) > m.cfg.Limit && m.cfg.Limit > 0 {
		candidates = candidates[:m.cfg.Limit]
	}

	m.attachAncestors(ctx, candidates)
	return candidates, nil
}

// MatchComponents resolves already-parsed components, skipping the parser
// adapter entirely.
func (m *Matcher) MatchComponents(ctx context.Context, comps geo.Components, hints Hints) ([]Candidate, error) {
	if len(comps) == 0 {
		return nil, nil
	}
	matches, err := m.searchComponents(ctx, comps, hints)
	if err != nil {
		if geo.IsTimeout(err) {
			return nil, nil
		}
		return nil, err
	}
	candidates := m.rank(matches, hints)
	if len(candidates) > m.cfg.Limit && m.cfg.Limit > 0 {
		candidates = candidates[:m.cfg.Limit]
	}
	m.attachAncestors(ctx, candidates)
	return candidates, nil
}

func (m *Matcher) parse(ctx context.Context, raw string) geo.Components {
	if m.parser == nil {
		return nil
	}
	comps, err := m.parser.Parse(ctx, raw)
	if err != nil {
		m.log.WithError(err).Debug("parser adapter failed, degrading to raw-text search")
		return nil
	}
	return comps
}

// searchComponents issues one weighted text search per parsed component.
// A record found through several components keeps its best weighted score.
func (m *Matcher) searchComponents(ctx context.Context, comps geo.Components, hints Hints) ([]store.TextMatch, error) {
	best := map[int64]store.TextMatch{}

	for _, cs := range componentSearches {
		if !comps.Has(cs.key) {
			continue
		}
		query := normalize.Text(comps.Get(cs.key))
		if query == "" {
			continue
		}

		found, err := m.store.SearchText(ctx, query, store.SearchOptions{
			Country: hints.Country,
			Kinds:   cs.kinds,
			Limit:   m.cfg.Limit,
		})
		if err != nil {
			return nil, err
		}

		for _, f := range found {
			f.Score *= cs.weight
			if prev, ok := best[f.Record.ID]; !ok || f.Score > prev.Score {
				best[f.Record.ID] = f
			}
		}
	}

	out := make([]store.TextMatch, 0, len(best))
	for _, f := range best {
		out = append(out, f)
	}
	return out, nil
}

// searchRaw is the degraded mode without a parser: match the full string,
// then fall back to the individual tokens if the full string found
// nothing. Street-name-only in effect.
func (m *Matcher) searchRaw(ctx context.Context, raw string, hints Hints) ([]store.TextMatch, error) {
	opts := store.SearchOptions{
		Country: hints.Country,
		Kinds:   []geo.Kind{geo.KindStreet, geo.KindHouse},
		Limit:   m.cfg.Limit,
	}

	matches, err := m.store.SearchText(ctx, normalize.Text(raw), opts)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return matches, nil
	}

	best := map[int64]store.TextMatch{}
	for _, token := range normalize.Tokens(raw) {
		found, err := m.store.SearchText(ctx, token, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if prev, ok := best[f.Record.ID]; !ok || f.Score > prev.Score {
				best[f.Record.ID] = f
			}
		}
	}

	out := make([]store.TextMatch, 0, len(best))
	for _, f := range best {
		out = append(out, f)
	}
	return out, nil
}

// rank scores, thresholds, deduplicates and orders candidates.
func (m *Matcher) rank(matches []store.TextMatch, hints Hints) []Candidate {
	best := map[int64]Candidate{}

	for _, match := range matches {
		if match.Score < m.cfg.MinTextScore {
			continue
		}

		cand := Candidate{
			Record:         match.Record,
			TextScore:      match.Score,
			DistanceMeters: math.Inf(1),
		}

		textWeight := m.cfg.TextWeight
		distWeight := 0.0
		if hints.Center != nil && (match.Record.Location != geo.Point{}) {
			cand.DistanceMeters = geo.DistanceMeters(*hints.Center, match.Record.Location)
			cand.DistanceScore = 1 / (1 + cand.DistanceMeters/m.cfg.ReferenceDistance)
			distWeight = m.cfg.DistanceWeight
		}
		cand.CombinedRank = cand.TextScore*textWeight + cand.DistanceScore*distWeight

		if prev, ok := best[cand.Record.ID]; !ok || cand.CombinedRank > prev.CombinedRank {
			best[cand.Record.ID] = cand
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, cand := range best {
		out = append(out, cand)
	}

	// Descending rank; ties break by ascending distance, then record id,
	// so repeated queries return identical orderings.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CombinedRank != out[j].CombinedRank {
			return out[i].CombinedRank > out[j].CombinedRank
		}
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].Record.ID < out[j].Record.ID
	})

	return out
}

// attachAncestors resolves the hierarchy for each candidate. A broken
// chain is tolerated; the candidate keeps whatever ancestors exist.
func (m *Matcher) attachAncestors(ctx context.Context, candidates []Candidate) {
	for i := range candidates {
		chain, err := m.store.Ancestors(ctx, candidates[i].Record)
		if err != nil && !geo.IsIncompleteHierarchy(err) {
			m.log.WithError(err).WithField("place_id", candidates[i].Record.ID).
				Debug("ancestor resolution failed")
			continue
		}
		candidates[i].Ancestors = chain
	}
}
