// Package config holds the process configuration. Every recognised key is
// an explicit typed field with a documented default; nothing is read from
// the environment outside of Load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DBConfig carries the db.* connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// DSN renders the lib/pq connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// PostalConfig locates the optional address parsing service. An empty
// ServiceURL means no parser is configured and matching runs in degraded
// street-name-only mode.
type PostalConfig struct {
	ServiceURL string
	Port       int
	// UseLibpostal switches to the in-process libpostal bindings instead
	// of the remote classifier.
	UseLibpostal bool
}

// Endpoint returns the full base URL of the postal service, or "" when
// the adapter is absent.
func (p PostalConfig) Endpoint() string {
	if p.ServiceURL == "" {
		return ""
	}
	hostPart := strings.TrimPrefix(strings.TrimPrefix(p.ServiceURL, "https://"), "http://")
	if p.Port > 0 && !strings.Contains(hostPart, ":") {
		return fmt.Sprintf("%s:%d", p.ServiceURL, p.Port)
	}
	return p.ServiceURL
}

// MatcherConfig holds the forward geocoding policy knobs.
type MatcherConfig struct {
	// MinTextScore is the similarity floor below which candidates are
	// dropped rather than ranked.
	MinTextScore float64
	// ReferenceDistance is D0 in distance_score = 1/(1 + d/D0), meters.
	ReferenceDistance float64
	TextWeight        float64
	DistanceWeight    float64
	Limit             int
}

// ReverseConfig holds the reverse geocoding policy knobs.
type ReverseConfig struct {
	// Radii is the ladder of house search radii in meters, tried in order.
	Radii []float64
	// StreetRadius bounds the street fallback when no house is in range.
	StreetRadius float64
}

// ServerConfig configures the HTTP layer.
type ServerConfig struct {
	Host string
	Port int
}

// Config is the complete configuration surface.
type Config struct {
	DB       DBConfig
	Postal   PostalConfig
	Matcher  MatcherConfig
	Reverse  ReverseConfig
	Server   ServerConfig
	// DataFile points at the formatting template data; empty selects the
	// bundled templates.
	DataFile     string
	PredictLimit int
	LogLevel     string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		DB: DBConfig{
			Host:     getEnv("PGHOST", "localhost"),
			Port:     getEnvInt("PGPORT", 5432),
			User:     getEnv("PGUSER", "osmgeocoder"),
			Password: getEnv("PGPASSWORD", ""),
			Name:     getEnv("PGDATABASE", "osmgeocoder"),
			SSLMode:  getEnv("PGSSLMODE", "disable"),
			MaxConns: getEnvInt("PGMAXCONNS", 20),
		},
		Postal: PostalConfig{
			ServiceURL:   getEnv("POSTAL_SERVICE_URL", ""),
			Port:         getEnvInt("POSTAL_PORT", 0),
			UseLibpostal: getEnvBool("POSTAL_USE_LIBPOSTAL", false),
		},
		Matcher: MatcherConfig{
			MinTextScore:      getEnvFloat("MATCH_MIN_TEXT_SCORE", 0.3),
			ReferenceDistance: getEnvFloat("MATCH_REFERENCE_DISTANCE", 1000),
			TextWeight:        getEnvFloat("MATCH_TEXT_WEIGHT", 0.7),
			DistanceWeight:    getEnvFloat("MATCH_DISTANCE_WEIGHT", 0.3),
			Limit:             getEnvInt("MATCH_LIMIT", 20),
		},
		Reverse: ReverseConfig{
			Radii:        getEnvFloats("REVERSE_RADII", []float64{25, 50, 100}),
			StreetRadius: getEnvFloat("REVERSE_STREET_RADIUS", 250),
		},
		Server: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnvInt("HTTP_PORT", 8080),
		},
		DataFile:     getEnv("OPENCAGE_DATA_FILE", ""),
		PredictLimit: getEnvInt("PREDICT_LIMIT", 10),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvFloats(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []float64
	for _, part := range strings.Split(value, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return defaultValue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
