package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
)

func loadBundled(t *testing.T) *Formatter {
	t.Helper()
	f, err := Load("")
	require.NoError(t, err)
	return f
}

func TestFormatGermanTemplate(t *testing.T) {
	f := loadBundled(t)

	comps := geo.Components{}
	comps.Set(geo.CompRoad, "Hauptstraße")
	comps.Set(geo.CompHouseNumber, "12")
	comps.Set(geo.CompCity, "Berlin")

	assert.Equal(t, "Hauptstraße 12\nBerlin", f.Format(comps, "DE"))
}

func TestFormatUnknownCountryFallsBackToDefault(t *testing.T) {
	f := loadBundled(t)

	comps := geo.Components{}
	comps.Set(geo.CompRoad, "Main Street")
	comps.Set(geo.CompCity, "Springfield")

	assert.Equal(t, f.Format(comps, DefaultCountry), f.Format(comps, "ZZ"))
	assert.Equal(t, f.Format(comps, DefaultCountry), f.Format(comps, ""))
}

func TestFormatEmptyComponents(t *testing.T) {
	f := loadBundled(t)
	assert.Equal(t, "", f.Format(geo.Components{}, "DE"))
	assert.Equal(t, "", f.Format(geo.Components{}, "ZZ"))
}

func TestFormatFirstMatchPolicy(t *testing.T) {
	f := loadBundled(t)

	// Without a house number the road-only rule applies, not the
	// road+house_number rule.
	comps := geo.Components{}
	comps.Set(geo.CompRoad, "Lauterlech")
	comps.Set(geo.CompPostcode, "86152")
	comps.Set(geo.CompCity, "Augsburg")

	assert.Equal(t, "Lauterlech\n86152 Augsburg", f.Format(comps, "DE"))
}

func TestFormatTownPromotedToCity(t *testing.T) {
	f := loadBundled(t)

	comps := geo.Components{}
	comps.Set(geo.CompRoad, "Dorfstraße")
	comps.Set(geo.CompHouseNumber, "3")
	comps.Set(geo.CompVillage, "Kleinberg")

	assert.Equal(t, "Dorfstraße 3\nKleinberg", f.Format(comps, "DE"))
	// The caller's components are not mutated.
	assert.False(t, comps.Has(geo.CompCity))
}

func TestFormatCleanupDanglingSeparators(t *testing.T) {
	f := loadBundled(t)

	// US layout renders "{{city}}, {{state_code}} {{postcode}}"; with only
	// the city set the comma must not survive.
	comps := geo.Components{}
	comps.Set(geo.CompRoad, "5th Avenue")
	comps.Set(geo.CompHouseNumber, "350")
	comps.Set(geo.CompCity, "New York")

	assert.Equal(t, "350 5th Avenue\nNew York", f.Format(comps, "US"))
}

func TestFormatMultiLineOutputPreserved(t *testing.T) {
	f := loadBundled(t)

	comps := geo.Components{}
	comps.Set(geo.CompRoad, "Hauptstraße")
	comps.Set(geo.CompHouseNumber, "12")
	comps.Set(geo.CompPostcode, "10115")
	comps.Set(geo.CompCity, "Berlin")
	comps.Set(geo.CompCountry, "Deutschland")

	assert.Equal(t, "Hauptstraße 12\n10115 Berlin\nDeutschland", f.Format(comps, "DE"))
}

func TestAttribution(t *testing.T) {
	f := loadBundled(t)

	assert.Contains(t, f.Attribution("osm"), "OpenStreetMap")
	// Unknown license ids resolve to the default attribution.
	assert.Equal(t, f.Attribution(DefaultCountry), f.Attribution("no-such-source"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/templates.yaml")
	assert.Error(t, err)
}
