package postal

import (
	"context"

	parser "github.com/openvenues/gopostal/parser"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
)

// libpostal labels that map onto our component set; everything else
// (units, levels, po boxes) is dropped.
var libpostalLabels = map[string]string{
	"house":          geo.CompHouse,
	"house_number":   geo.CompHouseNumber,
	"road":           geo.CompRoad,
	"suburb":         geo.CompSuburb,
	"city_district":  geo.CompCityDistrict,
	"city":           geo.CompCity,
	"state_district": geo.CompStateDistrict,
	"state":          geo.CompState,
	"postcode":       geo.CompPostcode,
	"country":        geo.CompCountry,
}

// LibpostalParser classifies addresses with the in-process libpostal
// bindings. Needs the libpostal C library and its training data installed;
// the remote ServiceParser is the default for deployments that would
// rather not carry that onto every node.
type LibpostalParser struct{}

// NewLibpostalParser returns the in-process parser.
func NewLibpostalParser() *LibpostalParser {
	return &LibpostalParser{}
}

// Parse classifies raw into address components.
func (l *LibpostalParser) Parse(_ context.Context, raw string) (geo.Components, error) {
	comps := geo.Components{}
	for _, parsed := range parser.ParseAddress(raw) {
		if key, ok := libpostalLabels[parsed.Label]; ok && !comps.Has(key) {
			comps.Set(key, parsed.Value)
		}
	}
	if len(comps) == 0 {
		return nil, nil
	}
	return comps, nil
}
