package geo

import "sort"

// Component keys recognised by the formatter and the parser adapter.
// The set is closed; anything else coming back from a parser is dropped.
const (
	CompAttention     = "attention"
	CompHouse         = "house"
	CompRoad          = "road"
	CompHouseNumber   = "house_number"
	CompPostcode      = "postcode"
	CompCity          = "city"
	CompTown          = "town"
	CompVillage       = "village"
	CompCounty        = "county"
	CompState         = "state"
	CompStateCode     = "state_code"
	CompCountry       = "country"
	CompSuburb        = "suburb"
	CompCityDistrict  = "city_district"
	CompStateDistrict = "state_district"
	CompNeighbourhood = "neighbourhood"
)

var knownComponents = map[string]bool{
	CompAttention:     true,
	CompHouse:         true,
	CompRoad:          true,
	CompHouseNumber:   true,
	CompPostcode:      true,
	CompCity:          true,
	CompTown:          true,
	CompVillage:       true,
	CompCounty:        true,
	CompState:         true,
	CompStateCode:     true,
	CompCountry:       true,
	CompSuburb:        true,
	CompCityDistrict:  true,
	CompStateDistrict: true,
	CompNeighbourhood: true,
}

// Components maps semantic address keys to values. Unset keys are absent
// from the map, never present with an empty value; template fallback rules
// depend on that distinction.
type Components map[string]string

// Set stores a value under key. Empty values and unknown keys are ignored
// so that "no suburb" stays distinguishable from "suburb is empty".
func (c Components) Set(key, value string) {
	if value == "" || !knownComponents[key] {
		return
	}
	c[key] = value
}

// Has reports whether key carries a value.
func (c Components) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Get returns the value for key, or the empty string.
func (c Components) Get(key string) string {
	return c[key]
}

// Keys returns the set keys in lexical order.
func (c Components) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromHierarchy assembles address components from a matched record and its
// ancestor chain. Broken chains simply produce fewer components.
func FromHierarchy(rec PlaceRecord, ancestors []PlaceRecord) Components {
	comps := Components{}

	switch rec.Kind {
	case KindHouse:
		comps.Set(CompHouseNumber, rec.HouseNumber)
		comps.Set(CompHouse, rec.Name)
	case KindStreet:
		comps.Set(CompRoad, rec.Name)
	default:
		comps.Set(componentKeyForKind(rec.Kind), rec.Name)
	}

	for _, anc := range ancestors {
		key := componentKeyForKind(anc.Kind)
		if key == "" || comps.Has(key) {
			continue
		}
		comps.Set(key, anc.Name)
	}

	return comps
}

func componentKeyForKind(kind Kind) string {
	switch kind {
	case KindCountry:
		return CompCountry
	case KindState:
		return CompState
	case KindCounty:
		return CompCounty
	case KindCity:
		return CompCity
	case KindSuburb:
		return CompSuburb
	case KindStreet:
		return CompRoad
	default:
		return ""
	}
}
