package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geocoder"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/matcher"
)

// GeocodeHandler serves the forward/reverse/predict endpoints.
type GeocodeHandler struct {
	Geocoder *geocoder.Geocoder
	Timeout  time.Duration
}

type predictResponse struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Forward handles GET /forward?q=...&lat=&lon=&country=&limit=.
func (h *GeocodeHandler) Forward(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "query parameter q required", http.StatusBadRequest)
		return
	}

	hints := matcher.Hints{Country: r.URL.Query().Get("country")}
	if lat, lon, ok := latLonParams(r); ok {
		hints.Center = &geo.Point{Lat: lat, Lon: lon}
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	results, err := h.Geocoder.Forward(ctx, query, hints)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, nonNil(results))
}

// Reverse handles GET /reverse?lat=...&lon=...&limit=.
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := latLonParams(r)
	if !ok {
		http.Error(w, "parameters lat and lon required", http.StatusBadRequest)
		return
	}
	limit := parseIntParam(r.URL.Query().Get("limit"), 10)

	ctx, cancel := h.requestContext(r)
	defer cancel()

	results, err := h.Geocoder.Reverse(ctx, lat, lon, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, nonNil(results))
}

// Predict handles GET /predict?q=<partial token>.
func (h *GeocodeHandler) Predict(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("q")
	if token == "" {
		http.Error(w, "query parameter q required", http.StatusBadRequest)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	suggestions, err := h.Geocoder.Predict(ctx, token)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]predictResponse, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, predictResponse{Name: s.Name, Kind: string(s.Kind)})
	}
	writeJSON(w, out)
}

// Country handles GET /country?lat=...&lon=...
func (h *GeocodeHandler) Country(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := latLonParams(r)
	if !ok {
		http.Error(w, "parameters lat and lon required", http.StatusBadRequest)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	code, err := h.Geocoder.Country(ctx, lat, lon)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"country": code})
}

// Health handles GET /healthz.
func (h *GeocodeHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *GeocodeHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), h.Timeout)
}

// writeError distinguishes backend failure from everything else; "found
// nothing" never reaches this path because empty results are not errors.
func (h *GeocodeHandler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, geo.ErrBackendUnavailable) {
		http.Error(w, "place store unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}

func latLonParams(r *http.Request) (lat, lon float64, ok bool) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func parseIntParam(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

// nonNil keeps "no results" as [] rather than null on the wire.
func nonNil(results []geocoder.Result) []geocoder.Result {
	if results == nil {
		return []geocoder.Result{}
	}
	return results
}
