// Package geocoder is the public face of the engine: forward and reverse
// geocoding plus predictive completion, each a pure function of the input
// and the store snapshot. Template and attribution data is loaded once at
// construction and read-only afterwards, so one Geocoder serves any number
// of concurrent requests.
package geocoder

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/completer"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/config"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/format"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/matcher"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/postal"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/resolver"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/store"
)

// Result is one geocoding answer.
type Result struct {
	// Address is the formatted, possibly multi-line address.
	Address  string    `json:"address"`
	Location geo.Point `json:"location"`
	// Rank is the combined text/distance rank for forward results.
	Rank float64 `json:"rank,omitempty"`
	// DistanceMeters is set on reverse results.
	DistanceMeters float64 `json:"distance_meters,omitempty"`
	// Exact is false when a reverse lookup only found a nearby street,
	// not a building.
	Exact       bool   `json:"exact"`
	Attribution string `json:"attribution"`
}

// Geocoder bundles the engine components behind the three operations.
type Geocoder struct {
	store     store.Store
	matcher   *matcher.Matcher
	resolver  *resolver.Resolver
	completer *completer.Completer
	formatter *format.Formatter
	log       *logrus.Entry
}

// New wires a Geocoder from its parts. parser may be nil (degraded mode).
func New(st store.Store, parser postal.Parser, f *format.Formatter, cfg *config.Config) *Geocoder {
	return &Geocoder{
		store:     st,
		matcher:   matcher.New(st, parser, cfg.Matcher),
		resolver:  resolver.New(st, cfg.Reverse),
		completer: completer.New(st, cfg.PredictLimit),
		formatter: f,
		log:       logrus.WithField("component", "geocoder"),
	}
}

// Open builds a Geocoder against PostgreSQL per the configuration,
// returning a close function for the connection pool.
func Open(cfg *config.Config) (*Geocoder, func() error, error) {
	pg, err := store.NewPostgres(cfg.DB)
	if err != nil {
		return nil, nil, err
	}

	f, err := format.Load(cfg.DataFile)
	if err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("failed to load formatter templates: %w", err)
	}

	var parser postal.Parser
	switch {
	case cfg.Postal.UseLibpostal:
		parser = postal.NewLibpostalParser()
	case cfg.Postal.Endpoint() != "":
		parser = postal.NewServiceParser(cfg.Postal.Endpoint())
	default:
		logrus.Info("no postal parser configured, running in degraded street-name-only mode")
	}

	return New(pg, parser, f, cfg), pg.Close, nil
}

// Forward geocodes free-text input to ranked, formatted places.
func (g *Geocoder) Forward(ctx context.Context, query string, hints matcher.Hints) ([]Result, error) {
	candidates, err := g.matcher.Match(ctx, query, hints)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, Result{
			Address:     g.formatCandidate(cand.Record, cand.Ancestors),
			Location:    cand.Record.Location,
			Rank:        cand.CombinedRank,
			Exact:       true,
			Attribution: g.formatter.Attribution(cand.Record.LicenseID),
		})
	}
	return results, nil
}

// Reverse geocodes a coordinate to the nearest formatted places.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64, limit int) ([]Result, error) {
	hits, err := g.resolver.Resolve(ctx, lat, lon, limit)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Address:        g.formatCandidate(hit.Record, hit.Ancestors),
			Location:       hit.Record.Location,
			DistanceMeters: hit.DistanceMeters,
			Exact:          hit.Exact,
			Attribution:    g.formatter.Attribution(hit.Record.LicenseID),
		})
	}
	return results, nil
}

// Predict returns likely completions for a partial token.
func (g *Geocoder) Predict(ctx context.Context, token string) ([]completer.Suggestion, error) {
	return g.completer.Complete(ctx, token)
}

// Country resolves the country code containing a coordinate, "" when the
// point lies outside every known country polygon.
func (g *Geocoder) Country(ctx context.Context, lat, lon float64) (string, error) {
	code, err := g.store.ResolveCountry(ctx, lat, lon)
	if err != nil {
		if geo.IsTimeout(err) {
			return "", nil
		}
		return "", err
	}
	return code, nil
}

// formatCandidate renders a record plus its ancestor chain. The country
// code for template selection comes from the record itself, falling back
// to the chain; a record with neither formats with the default template.
func (g *Geocoder) formatCandidate(rec geo.PlaceRecord, ancestors []geo.PlaceRecord) string {
	comps := geo.FromHierarchy(rec, ancestors)

	country := rec.CountryCode
	if country == "" {
		for _, anc := range ancestors {
			if anc.CountryCode != "" {
				country = anc.CountryCode
				break
			}
		}
	}
	return g.formatter.Format(comps, country)
}
