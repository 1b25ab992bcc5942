package postal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
)

func TestServiceParserSplit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/split", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"road": "Hauptstraße", "house_number": "12", "city": "Berlin"}]`))
	}))
	defer srv.Close()

	p := NewServiceParser(srv.URL)

	comps, err := p.Parse(context.Background(), "Hauptstraße 12, Berlin")
	require.NoError(t, err)
	require.NotNil(t, comps)

	assert.Equal(t, "Hauptstraße", comps.Get(geo.CompRoad))
	assert.Equal(t, "12", comps.Get(geo.CompHouseNumber))
	assert.Equal(t, "Berlin", comps.Get(geo.CompCity))
}

func TestServiceParserDropsUnknownKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"road": "Hauptstraße", "po_box": "4711"}]`))
	}))
	defer srv.Close()

	p := NewServiceParser(srv.URL)

	comps, err := p.Parse(context.Background(), "Hauptstraße, Postfach 4711")
	require.NoError(t, err)
	require.NotNil(t, comps)
	assert.Equal(t, []string{geo.CompRoad}, comps.Keys())
}

func TestServiceParserDegradesOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewServiceParser(srv.URL)

	comps, err := p.Parse(context.Background(), "Hauptstraße 12")
	assert.NoError(t, err)
	assert.Nil(t, comps)
}

func TestServiceParserDegradesWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	p := NewServiceParser(srv.URL)

	comps, err := p.Parse(context.Background(), "Hauptstraße 12")
	assert.NoError(t, err)
	assert.Nil(t, comps)
}
