package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.Matcher.MinTextScore)
	assert.Equal(t, 1000.0, cfg.Matcher.ReferenceDistance)
	assert.Equal(t, []float64{25, 50, 100}, cfg.Reverse.Radii)
	assert.Equal(t, 10, cfg.PredictLimit)
	// Absent postal service means degraded mode.
	assert.Equal(t, "", cfg.Postal.Endpoint())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MATCH_MIN_TEXT_SCORE", "0.5")
	t.Setenv("REVERSE_RADII", "10, 20")
	t.Setenv("POSTAL_SERVICE_URL", "http://parser.internal")
	t.Setenv("POSTAL_PORT", "4400")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Matcher.MinTextScore)
	assert.Equal(t, []float64{10, 20}, cfg.Reverse.Radii)
	assert.Equal(t, "http://parser.internal:4400", cfg.Postal.Endpoint())
}

func TestEndpointKeepsExplicitPort(t *testing.T) {
	p := PostalConfig{ServiceURL: "http://parser.internal:9000", Port: 4400}
	assert.Equal(t, "http://parser.internal:9000", p.Endpoint())
}

func TestDSN(t *testing.T) {
	db := DBConfig{
		Host: "localhost", Port: 5432, User: "geo", Password: "secret",
		Name: "places", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=geo password=secret dbname=places sslmode=disable",
		db.DSN())
}
