package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/config"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/format"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geocoder"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/store/storetest"
)

func int64ptr(v int64) *int64 { return &v }

func testHandler(t *testing.T, fake *storetest.Fake) *GeocodeHandler {
	t.Helper()
	f, err := format.Load("")
	require.NoError(t, err)

	cfg := &config.Config{
		Matcher: config.MatcherConfig{
			MinTextScore:      0.3,
			ReferenceDistance: 1000,
			TextWeight:        0.7,
			DistanceWeight:    0.3,
			Limit:             20,
		},
		Reverse: config.ReverseConfig{
			Radii:        []float64{25, 50, 100},
			StreetRadius: 250,
		},
		PredictLimit: 10,
	}
	return &GeocodeHandler{
		Geocoder: geocoder.New(fake, nil, f, cfg),
		Timeout:  5 * time.Second,
	}
}

func seededFake() *storetest.Fake {
	fake := &storetest.Fake{Country: "DE"}
	fake.Add(geo.PlaceRecord{
		ID: 1, Kind: geo.KindCountry, Name: "Deutschland", CountryCode: "DE",
	}, 0)
	fake.Add(geo.PlaceRecord{
		ID: 2, Kind: geo.KindStreet, Name: "Hauptstraße", ParentID: int64ptr(1),
		CountryCode: "DE", Location: geo.Point{Lat: 52.52, Lon: 13.405},
	}, 5)
	return fake
}

func TestForwardHandler(t *testing.T) {
	h := testHandler(t, seededFake())

	req := httptest.NewRequest(http.MethodGet, "/forward?q=Hauptstra%C3%9Fe", nil)
	rec := httptest.NewRecorder()
	h.Forward(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var results []geocoder.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Address, "Hauptstraße")
	assert.NotEmpty(t, results[0].Attribution)
}

func TestForwardHandlerMissingQuery(t *testing.T) {
	h := testHandler(t, seededFake())

	req := httptest.NewRequest(http.MethodGet, "/forward", nil)
	rec := httptest.NewRecorder()
	h.Forward(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForwardHandlerNoResultsIsEmptyArray(t *testing.T) {
	h := testHandler(t, seededFake())

	req := httptest.NewRequest(http.MethodGet, "/forward?q=zzzzzzz", nil)
	rec := httptest.NewRecorder()
	h.Forward(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestReverseHandlerValidation(t *testing.T) {
	h := testHandler(t, seededFake())

	req := httptest.NewRequest(http.MethodGet, "/reverse?lat=52.52", nil)
	rec := httptest.NewRecorder()
	h.Reverse(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackendFailureMapsTo503(t *testing.T) {
	fake := seededFake()
	fake.Err = geo.ErrBackendUnavailable
	h := testHandler(t, fake)

	req := httptest.NewRequest(http.MethodGet, "/forward?q=Hauptstra%C3%9Fe", nil)
	rec := httptest.NewRecorder()
	h.Forward(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPredictHandler(t *testing.T) {
	h := testHandler(t, seededFake())

	req := httptest.NewRequest(http.MethodGet, "/predict?q=haupt", nil)
	rec := httptest.NewRecorder()
	h.Predict(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var suggestions []predictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestions))
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "Hauptstraße", suggestions[0].Name)
	assert.Equal(t, "street", suggestions[0].Kind)
}

func TestCountryHandler(t *testing.T) {
	h := testHandler(t, seededFake())

	req := httptest.NewRequest(http.MethodGet, "/country?lat=52.52&lon=13.405", nil)
	rec := httptest.NewRecorder()
	h.Country(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"country": "DE"}`, rec.Body.String())
}
