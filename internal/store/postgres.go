package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/config"
	geomodel "github.com/ferdinand-hoffmann/osmgeocoder/internal/geo"
)

// maxHierarchyDepth caps the ancestor walk; a well-formed chain is
// house→street→suburb→city→county→state→country.
const maxHierarchyDepth = 8

// Postgres implements Store on top of a pg_trgm + PostGIS database.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool and verifies connectivity.
func NewPostgres(cfg config.DBConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", geomodel.ErrBackendUnavailable, err)
	}

	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", geomodel.ErrBackendUnavailable, err)
	}
	return nil
}

const recordColumns = `
	p.place_id, p.kind, p.name, COALESCE(p.house_number, ''), p.parent_id,
	COALESCE(p.license_id, ''), COALESCE(p.country_code, ''),
	ST_AsBinary(ST_Centroid(p.geometry))`

// SearchText runs a trigram similarity query against the normalised name
// index. The query string must already be normalised.
func (p *Postgres) SearchText(ctx context.Context, query string, opts SearchOptions) ([]TextMatch, error) {
	if query == "" {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	args := []interface{}{query}
	where := "p.normalised_name % $1"
	if opts.Country != "" {
		args = append(args, opts.Country)
		where += fmt.Sprintf(" AND p.country_code = $%d", len(args))
	}
	if len(opts.Kinds) > 0 {
		args = append(args, pq.Array(kindStrings(opts.Kinds)))
		where += fmt.Sprintf(" AND p.kind = ANY($%d)", len(args))
	}
	args = append(args, limit)

	q := fmt.Sprintf(`
		SELECT %s,
			similarity($1, p.normalised_name) AS text_score,
			COALESCE(p.child_count, 0)
		FROM place p
		WHERE %s
		ORDER BY text_score DESC
		LIMIT $%d`, recordColumns, where, len(args))

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapQueryErr(err)
	}
	defer rows.Close()

	var matches []TextMatch
	for rows.Next() {
		var m TextMatch
		var loc []byte
		if err := scanRecord(rows, &m.Record, &loc, &m.Score, &m.ChildCount); err != nil {
			return nil, wrapQueryErr(err)
		}
		decodeLocation(loc, &m.Record)
		matches = append(matches, m)
	}
	return matches, wrapQueryErr(rows.Err())
}

// Nearest runs a geography-cast distance query so that radii and returned
// distances are in meters regardless of the stored projection.
func (p *Postgres) Nearest(ctx context.Context, lat, lon float64, kinds []geomodel.Kind, radiusMeters float64, limit int) ([]NearMatch, error) {
	if limit <= 0 {
		limit = 10
	}

	q := fmt.Sprintf(`
		SELECT %s,
			ST_Distance(p.geometry::geography,
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance,
			COALESCE(p.child_count, 0)
		FROM place p
		WHERE p.kind = ANY($3)
			AND ST_DWithin(p.geometry::geography,
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $4)
		ORDER BY distance ASC
		LIMIT $5`, recordColumns)

	rows, err := p.db.QueryContext(ctx, q, lon, lat, pq.Array(kindStrings(kinds)), radiusMeters, limit)
	if err != nil {
		return nil, wrapQueryErr(err)
	}
	defer rows.Close()

	var matches []NearMatch
	for rows.Next() {
		var m NearMatch
		var loc []byte
		var childCount int64
		if err := scanRecord(rows, &m.Record, &loc, &m.DistanceMeters, &childCount); err != nil {
			return nil, wrapQueryErr(err)
		}
		decodeLocation(loc, &m.Record)
		matches = append(matches, m)
	}
	return matches, wrapQueryErr(rows.Err())
}

// Ancestors follows parent links one query at a time. The chains are at
// most a handful of records deep, so the per-hop round trip stays cheap
// and avoids a recursive CTE the planner handles poorly on this table.
func (p *Postgres) Ancestors(ctx context.Context, rec geomodel.PlaceRecord) ([]geomodel.PlaceRecord, error) {
	var chain []geomodel.PlaceRecord
	parentID := rec.ParentID

	for depth := 0; parentID != nil && depth < maxHierarchyDepth; depth++ {
		q := fmt.Sprintf(`
			SELECT %s, 0::float8, COALESCE(p.child_count, 0)
			FROM place p
			WHERE p.place_id = $1`, recordColumns)

		row := p.db.QueryRowContext(ctx, q, *parentID)
		var parent geomodel.PlaceRecord
		var loc []byte
		var unusedScore float64
		var unusedCount int64
		if err := scanRecord(row, &parent, &loc, &unusedScore, &unusedCount); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Dangling parent reference; the caller formats with
				// whatever was resolved so far.
				return chain, geomodel.ErrIncompleteHierarchy
			}
			return chain, wrapQueryErr(err)
		}
		decodeLocation(loc, &parent)

		chain = append(chain, parent)
		if parent.Kind == geomodel.KindCountry {
			return chain, nil
		}
		parentID = parent.ParentID
	}

	if len(chain) == 0 || chain[len(chain)-1].Kind != geomodel.KindCountry {
		return chain, geomodel.ErrIncompleteHierarchy
	}
	return chain, nil
}

// ResolveCountry finds the country polygon containing the point.
func (p *Postgres) ResolveCountry(ctx context.Context, lat, lon float64) (string, error) {
	var code string
	err := p.db.QueryRowContext(ctx, `
		SELECT p.country_code
		FROM place p
		WHERE p.kind = 'country'
			AND ST_Contains(p.geometry, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		LIMIT 1`, lon, lat).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapQueryErr(err)
	}
	return code, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner, rec *geomodel.PlaceRecord, loc *[]byte, metric *float64, childCount *int64) error {
	var kind string
	var parentID sql.NullInt64
	var name sql.NullString
	if err := row.Scan(&rec.ID, &kind, &name, &rec.HouseNumber, &parentID,
		&rec.LicenseID, &rec.CountryCode, loc, metric, childCount); err != nil {
		return err
	}
	rec.Kind = geomodel.Kind(kind)
	rec.Name = name.String
	if parentID.Valid {
		id := parentID.Int64
		rec.ParentID = &id
	}
	return nil
}

// decodeLocation parses the WKB centroid into lat/lon. Records without
// geometry keep the zero point; distance scoring simply skips them.
func decodeLocation(raw []byte, rec *geomodel.PlaceRecord) {
	if len(raw) == 0 {
		return
	}
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		return
	}
	if pt, ok := g.(*geom.Point); ok {
		rec.Location = geomodel.Point{Lat: pt.Y(), Lon: pt.X()}
	}
}

func kindStrings(kinds []geomodel.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// wrapQueryErr classifies store errors: deadline expiry passes through so
// the engine can turn it into an empty result, everything else is a
// backend failure.
func wrapQueryErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", geomodel.ErrBackendUnavailable, err)
}
