// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nakale/tuyende/spatial"
)

// Store is the persistent tier: raw place details, enriched candidate
// rows, and per-area suburb resolutions.
type Store interface {
	// CreateSchema creates the pipeline tables
	CreateSchema() error

	// GetPlaceDetail returns the stored raw detail for a place id, or nil
	GetPlaceDetail(placeID string) (*PlaceDetailRecord, error)

	// SavePlaceDetail persists a raw detail response once per place id
	SavePlaceDetail(rec *PlaceDetailRecord) error

	// GetCandidate returns a previously enriched candidate row, or nil
	GetCandidate(sourceQuery, placeID string) (*LocationCandidate, error)

	// SaveCandidate persists an enriched candidate row
	SaveCandidate(c *LocationCandidate, now time.Time) error

	// FindCandidates returns enriched candidate rows for a past query
	FindCandidates(sourceQuery, city string) ([]LocationCandidate, error)

	// GetAreaSuburb returns the suburb resolution for an area id, or nil
	GetAreaSuburb(areaID string) (*AreaSuburbRecord, error)

	// SaveAreaSuburb persists a suburb resolution once per area id
	SaveAreaSuburb(rec *AreaSuburbRecord) error

	// BulkInsertAreaSuburbs inserts curated suburb resolutions
	BulkInsertAreaSuburbs(recs []*AreaSuburbRecord) error

	// CountAreaSuburbs returns the number of stored area resolutions
	CountAreaSuburbs() (int, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlStore struct {
	db *sql.DB
}

// NewStore creates a store over the given database connection.
func NewStore(db *sql.DB) Store {
	return &sqlStore{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (s *sqlStore) DB() *sql.DB {
	return s.db
}

func (s *sqlStore) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := s.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS place_details (
			place_id VARCHAR PRIMARY KEY,
			source_query VARCHAR NOT NULL,
			raw VARCHAR NOT NULL,
			lat DOUBLE,
			lng DOUBLE,
			region VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE SEQUENCE IF NOT EXISTS candidates_seq START 1;

		CREATE TABLE IF NOT EXISTS candidates (
			id INTEGER PRIMARY KEY DEFAULT nextval('candidates_seq'),
			source_query VARCHAR NOT NULL,
			place_id VARCHAR NOT NULL,
			display_name VARCHAR NOT NULL,
			street VARCHAR NOT NULL,
			city VARCHAR NOT NULL,
			country VARCHAR NOT NULL,
			point POINT_2D NOT NULL,
			suburb VARCHAR,
			region VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS area_suburbs (
			area_id VARCHAR PRIMARY KEY,
			region VARCHAR,
			suburb VARCHAR,
			raw VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return err
}

func (s *sqlStore) GetPlaceDetail(placeID string) (*PlaceDetailRecord, error) {
	rec := &PlaceDetailRecord{}

	var (
		raw      string
		lat, lng sql.NullFloat64
		region   sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT place_id, source_query, raw, lat, lng, region, created_at
		FROM place_details
		WHERE place_id = ?
	`, placeID).Scan(
		&rec.PlaceID,
		&rec.SourceQuery,
		&raw,
		&lat,
		&lng,
		&region,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	rec.Raw = []byte(raw)

	if lat.Valid && lng.Valid {
		rec.Point = &spatial.Point{Lat: lat.Float64, Lng: lng.Float64}
	}

	if region.Valid {
		rec.Region = &region.String
	}

	return rec, nil
}

func (s *sqlStore) SavePlaceDetail(rec *PlaceDetailRecord) error {
	if rec.PlaceID == "" {
		return errors.New("place id can't be empty")
	}

	var (
		lat, lng any
		region   any
	)

	if rec.Point != nil {
		lat, lng = rec.Point.Lat, rec.Point.Lng
	}

	if rec.Region != nil {
		region = *rec.Region
	}

	// Raw detail responses are immutable: the first write wins.
	_, err := s.db.Exec(`
		INSERT INTO place_details(place_id, source_query, raw, lat, lng, region, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (place_id) DO NOTHING
	`,
		rec.PlaceID,
		rec.SourceQuery,
		string(rec.Raw),
		lat,
		lng,
		region,
		rec.CreatedAt,
	)

	return err
}

var candidateSelect = `
	SELECT source_query, place_id, display_name, street, city, country,
	       point, suburb, region
	FROM candidates
`

func (s *sqlStore) scanCandidate(row interface{ Scan(...any) error }) (*LocationCandidate, error) {
	c := &LocationCandidate{Point: &spatial.Point{}}

	var suburb, region sql.NullString

	err := row.Scan(
		&c.SourceQuery,
		&c.PlaceID,
		&c.DisplayName,
		&c.Street,
		&c.City,
		&c.Country,
		&c.Point,
		&suburb,
		&region,
	)
	if err != nil {
		return nil, err
	}

	if suburb.Valid {
		c.Suburb = &suburb.String
	}

	if region.Valid {
		c.Region = &region.String
	}

	return c, nil
}

func (s *sqlStore) GetCandidate(sourceQuery, placeID string) (*LocationCandidate, error) {
	row := s.db.QueryRow(candidateSelect+`
		WHERE source_query = ? AND place_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, sourceQuery, placeID)

	c, err := s.scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return c, nil
}

func (s *sqlStore) SaveCandidate(c *LocationCandidate, now time.Time) error {
	if c.Point == nil {
		return errors.New("candidate point can't be null")
	}

	var suburb, region any

	if c.Suburb != nil {
		suburb = *c.Suburb
	}

	if c.Region != nil {
		region = *c.Region
	}

	_, err := s.db.Exec(`
		INSERT INTO candidates(
			source_query, place_id, display_name, street, city, country,
			point, suburb, region, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?)
	`,
		c.SourceQuery,
		c.PlaceID,
		c.DisplayName,
		c.Street,
		c.City,
		c.Country,
		c.Point.Lng,
		c.Point.Lat,
		suburb,
		region,
		now,
	)

	return err
}

func (s *sqlStore) FindCandidates(sourceQuery, city string) ([]LocationCandidate, error) {
	rows, err := s.db.Query(candidateSelect+`
		WHERE lower(source_query) = lower(?) AND lower(city) = lower(?)
		ORDER BY created_at ASC
	`, sourceQuery, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []LocationCandidate

	for rows.Next() {
		c, err := s.scanCandidate(rows)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, *c)
	}

	return candidates, rows.Err()
}

func (s *sqlStore) GetAreaSuburb(areaID string) (*AreaSuburbRecord, error) {
	rec := &AreaSuburbRecord{}

	var region, suburb, raw sql.NullString

	err := s.db.QueryRow(`
		SELECT area_id, region, suburb, raw, created_at
		FROM area_suburbs
		WHERE area_id = ?
	`, areaID).Scan(
		&rec.AreaID,
		&region,
		&suburb,
		&raw,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	if region.Valid {
		rec.Region = &region.String
	}

	if suburb.Valid {
		rec.Suburb = &suburb.String
	}

	if raw.Valid {
		rec.Raw = []byte(raw.String)
	}

	return rec, nil
}

func (s *sqlStore) SaveAreaSuburb(rec *AreaSuburbRecord) error {
	if rec.AreaID == "" {
		return errors.New("area id can't be empty")
	}

	var region, suburb, raw any

	if rec.Region != nil {
		region = *rec.Region
	}

	if rec.Suburb != nil {
		suburb = *rec.Suburb
	}

	if rec.Raw != nil {
		raw = string(rec.Raw)
	}

	// Area resolutions are created once per area identifier.
	_, err := s.db.Exec(`
		INSERT INTO area_suburbs(area_id, region, suburb, raw, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (area_id) DO NOTHING
	`,
		rec.AreaID,
		region,
		suburb,
		raw,
		rec.CreatedAt,
	)

	return err
}

func (s *sqlStore) BulkInsertAreaSuburbs(recs []*AreaSuburbRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO area_suburbs(area_id, region, suburb, raw, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (area_id) DO NOTHING
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		var region, suburb, raw any

		if rec.Region != nil {
			region = *rec.Region
		}

		if rec.Suburb != nil {
			suburb = *rec.Suburb
		}

		if rec.Raw != nil {
			raw = string(rec.Raw)
		}

		if _, err := stmt.Exec(rec.AreaID, region, suburb, raw, rec.CreatedAt); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return fmt.Errorf("inserting area %q: %w", rec.AreaID, err)
		}
	}

	return tx.Commit()
}

func (s *sqlStore) CountAreaSuburbs() (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM area_suburbs",
	).Scan(&count)

	return count, err
}
