package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/config"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/store/storetest"
)

func testConfig() config.ReverseConfig {
	return config.ReverseConfig{
		Radii:        []float64{25, 50, 100},
		StreetRadius: 250,
	}
}

func int64ptr(v int64) *int64 { return &v }

func TestResolveStreetFallbackMarkedNonExact(t *testing.T) {
	fake := &storetest.Fake{}
	fake.Add(geo.PlaceRecord{
		ID: 1, Kind: geo.KindCountry, Name: "Deutschland", CountryCode: "DE",
	}, 0)
	fake.Add(geo.PlaceRecord{
		ID: 2, Kind: geo.KindCity, Name: "Augsburg", ParentID: int64ptr(1), CountryCode: "DE",
	}, 0)
	// Street roughly 20m east of the query point, no house anywhere.
	fake.Add(geo.PlaceRecord{
		ID: 3, Kind: geo.KindStreet, Name: "Lauterlech", ParentID: int64ptr(2),
		CountryCode: "DE", Location: geo.Point{Lat: 48.3849, Lon: 10.86337},
	}, 0)

	r := New(fake, testConfig())

	hits, err := r.Resolve(context.Background(), 48.3849, 10.8631, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "Lauterlech", hits[0].Record.Name)
	assert.False(t, hits[0].Exact)
	assert.Empty(t, hits[0].Record.HouseNumber)
	assert.Less(t, hits[0].DistanceMeters, 30.0)
}

func TestResolvePrefersHouseOverStreet(t *testing.T) {
	fake := &storetest.Fake{}
	fake.Add(geo.PlaceRecord{
		ID: 1, Kind: geo.KindCountry, Name: "Deutschland", CountryCode: "DE",
	}, 0)
	fake.Add(geo.PlaceRecord{
		ID: 2, Kind: geo.KindStreet, Name: "Lauterlech", ParentID: int64ptr(1),
		CountryCode: "DE", Location: geo.Point{Lat: 48.38491, Lon: 10.8631},
	}, 0)
	fake.Add(geo.PlaceRecord{
		ID: 3, Kind: geo.KindHouse, Name: "", HouseNumber: "14", ParentID: int64ptr(2),
		CountryCode: "DE", Location: geo.Point{Lat: 48.38494, Lon: 10.86312},
	}, 0)

	r := New(fake, testConfig())

	hits, err := r.Resolve(context.Background(), 48.3849, 10.8631, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	assert.Equal(t, geo.KindHouse, hits[0].Record.Kind)
	assert.True(t, hits[0].Exact)
	assert.Equal(t, "14", hits[0].Record.HouseNumber)
	require.Len(t, hits[0].Ancestors, 2)
	assert.Equal(t, geo.KindStreet, hits[0].Ancestors[0].Kind)
}

func TestResolveNothingInRange(t *testing.T) {
	fake := &storetest.Fake{}
	fake.Add(geo.PlaceRecord{
		ID: 1, Kind: geo.KindHouse, HouseNumber: "1",
		Location: geo.Point{Lat: 52.5, Lon: 13.4}, // Berlin, far away
	}, 0)

	r := New(fake, testConfig())

	hits, err := r.Resolve(context.Background(), 48.3849, 10.8631, 10)
	assert.NoError(t, err)
	assert.Empty(t, hits)
}

func TestResolveOrderedByDistanceAndCapped(t *testing.T) {
	fake := &storetest.Fake{}
	fake.Add(geo.PlaceRecord{
		ID: 1, Kind: geo.KindHouse, HouseNumber: "1",
		Location: geo.Point{Lat: 48.38492, Lon: 10.8631},
	}, 0)
	fake.Add(geo.PlaceRecord{
		ID: 2, Kind: geo.KindHouse, HouseNumber: "2",
		Location: geo.Point{Lat: 48.38496, Lon: 10.8631},
	}, 0)
	fake.Add(geo.PlaceRecord{
		ID: 3, Kind: geo.KindHouse, HouseNumber: "3",
		Location: geo.Point{Lat: 48.38499, Lon: 10.8631},
	}, 0)

	r := New(fake, testConfig())

	hits, err := r.Resolve(context.Background(), 48.3849, 10.8631, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "1", hits[0].Record.HouseNumber)
	assert.Equal(t, "2", hits[1].Record.HouseNumber)
	assert.LessOrEqual(t, hits[0].DistanceMeters, hits[1].DistanceMeters)
}

func TestResolveDeadlineYieldsEmptyResult(t *testing.T) {
	fake := &storetest.Fake{Err: context.DeadlineExceeded}

	r := New(fake, testConfig())

	hits, err := r.Resolve(context.Background(), 48.3849, 10.8631, 10)
	assert.NoError(t, err)
	assert.Empty(t, hits)
}

func TestResolveBackendFailurePropagates(t *testing.T) {
	fake := &storetest.Fake{Err: geo.ErrBackendUnavailable}

	r := New(fake, testConfig())

	_, err := r.Resolve(context.Background(), 48.3849, 10.8631, 10)
	assert.ErrorIs(t, err, geo.ErrBackendUnavailable)
}
