// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

// Package geo implements the geospatial resolution and caching pipeline
// of the marketplace: place search, candidate enrichment, suburb
// resolution, live position lookup, and route previews, backed by a hot
// cache, a persistent store, and several upstream providers.
package geo

import (
	"time"

	"github.com/nakale/tuyende/spatial"
)

// MetropolitanCity is the primary city of the operating region. Search
// filtering treats it differently from the rest of the region.
const MetropolitanCity = "Windhoek"

// LocationCandidate is a single location produced by a search provider,
// possibly enriched with coordinates and administrative data. Absent
// fields are nil pointers; there is no other "missing" marker.
type LocationCandidate struct {
	PlaceID     string         `json:"place_id"`
	DisplayName string         `json:"display_name"`
	Street      string         `json:"street"`
	City        string         `json:"city"`
	Country     string         `json:"country"`
	SourceQuery string         `json:"source_query"`
	Point       *spatial.Point `json:"point,omitempty"`
	Suburb      *string        `json:"suburb,omitempty"`
	Region      *string        `json:"region,omitempty"`
}

// SearchResultSet is the ordered, deduplicated outcome of one search.
type SearchResultSet struct {
	Timestamp time.Time           `json:"search_timestamp"`
	Results   []LocationCandidate `json:"results"`
}

// AreaSuburb is the resolution of a coordinate pair to an
// administrative region and suburb. Failed resolutions leave Region and
// Suburb nil; callers must not distinguish between the failure kinds.
type AreaSuburb struct {
	Point  spatial.Point `json:"point"`
	Region *string       `json:"region,omitempty"`
	Suburb *string       `json:"suburb,omitempty"`
}

// Resolved reports whether both fields carry usable values. A cached
// triple missing either one is treated as absent, never as a hit.
func (a AreaSuburb) Resolved() bool {
	return a.Region != nil && *a.Region != "" && a.Suburb != nil && *a.Suburb != ""
}

// LiveFeature is the best-effort description of a moving entity's
// current position. Never cached.
type LiveFeature struct {
	Name   string `json:"name"`
	Street string `json:"street"`
	City   string `json:"city"`
	Suburb string `json:"suburb"`
}

// RoutePreviewEntry is one cached route preview for a requester.
type RoutePreviewEntry struct {
	Origin       spatial.Point   `json:"origin"`
	Destination  spatial.Point   `json:"destination"`
	Points       []spatial.Point `json:"route_points"`
	NextPoint    *spatial.Point  `json:"next_point,omitempty"`
	Instructions []string        `json:"instructions,omitempty"`
	ETA          string          `json:"eta"`
	Meters       float64         `json:"distance_meters"`
}

// matches reports whether the entry covers the given origin/destination
// pair. Comparison is exact float equality on both fields of both
// points, matching how the cache was populated.
func (e *RoutePreviewEntry) matches(origin, destination spatial.Point) bool {
	return e.Origin == origin && e.Destination == destination
}

// PlaceDetailRecord is the persisted raw place-detail response, keyed
// by provider place id. Created at most once per place id. A record
// without geometry marks a failed enrichment attempt and must not be
// treated as a cache hit.
type PlaceDetailRecord struct {
	PlaceID     string         `json:"place_id"`
	SourceQuery string         `json:"source_query"`
	Raw         []byte         `json:"raw"`
	Point       *spatial.Point `json:"point,omitempty"`
	Region      *string        `json:"region,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// HasGeometry reports whether the enrichment attempt that produced the
// record succeeded.
func (r *PlaceDetailRecord) HasGeometry() bool {
	return r.Point != nil
}

// AreaSuburbRecord is the persisted suburb resolution for a stable area
// identifier. Created once per area; coordinate jitter within the same
// area reuses it.
type AreaSuburbRecord struct {
	AreaID    string    `json:"area_id"`
	Region    *string   `json:"region,omitempty"`
	Suburb    *string   `json:"suburb,omitempty"`
	Raw       []byte    `json:"raw,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the record carries both fields.
func (r *AreaSuburbRecord) Valid() bool {
	return r != nil && r.Region != nil && *r.Region != "" && r.Suburb != nil && *r.Suburb != ""
}
