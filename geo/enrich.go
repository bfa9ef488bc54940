// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"log"
	"time"

	"github.com/nakale/tuyende/spatial"
)

const enrichKeySuffix = "-coordinatesAndRegion"

// enrichedGeometry is the hot-cache payload for a place id: just the
// expensive part of the detail lookup.
type enrichedGeometry struct {
	Point  *spatial.Point `json:"point,omitempty"`
	Region *string        `json:"region,omitempty"`
}

// PlaceEnricher attaches coordinates and a region to a candidate, in
// order of cost: hot cache, prior candidate rows for the same query,
// stored place details, then the place-detail provider. Enrichment is
// best effort; when every tier fails the candidate keeps nil geometry
// and the caller moves on.
type PlaceEnricher struct {
	cache  HotCache
	store  Store
	places PlacesProvider
	now    func() time.Time
}

// NewPlaceEnricher creates an enricher over the given tiers.
func NewPlaceEnricher(cache HotCache, store Store, places PlacesProvider) *PlaceEnricher {
	return &PlaceEnricher{
		cache:  cache,
		store:  store,
		places: places,
		now:    time.Now,
	}
}

// Enrich fills in Point and Region on the candidate and applies the
// suburb exception table. It never returns an error: provider or cache
// trouble leaves the fields nil.
func (e *PlaceEnricher) Enrich(ctx context.Context, c *LocationCandidate) {
	defer func() {
		c.Suburb = ApplySuburbException(c.DisplayName, c.Suburb)
	}()

	key := c.PlaceID + enrichKeySuffix

	var cached enrichedGeometry
	if cacheRead(ctx, e.cache, key, &cached) && cached.Point != nil {
		c.Point = cached.Point
		c.Region = cached.Region

		return
	}

	prior, err := e.store.GetCandidate(c.SourceQuery, c.PlaceID)
	if err != nil {
		log.Printf("candidate lookup %s: %v", c.PlaceID, err)
	}

	if prior != nil && prior.Point != nil {
		c.Point = prior.Point
		c.Region = prior.Region

		cacheWrite(ctx, e.cache, key, enrichedGeometry{Point: prior.Point, Region: prior.Region}, SearchCacheTTL)

		return
	}

	rec, err := e.store.GetPlaceDetail(c.PlaceID)
	if err != nil {
		log.Printf("place detail lookup %s: %v", c.PlaceID, err)
	}

	// A stored record without geometry is a past failed attempt; retry
	// the provider rather than trust it.
	if rec != nil && rec.HasGeometry() {
		c.Point = rec.Point
		c.Region = rec.Region

		cacheWrite(ctx, e.cache, key, enrichedGeometry{Point: rec.Point, Region: rec.Region}, SearchCacheTTL)

		return
	}

	detail, err := e.places.Details(ctx, c.PlaceID)
	if err != nil {
		log.Printf("place detail fetch %s: %v", c.PlaceID, err)

		return
	}

	region := extractRegion(detail.AddressComponents)

	c.Point = detail.Point
	c.Region = region

	if rec == nil {
		save := &PlaceDetailRecord{
			PlaceID:     c.PlaceID,
			SourceQuery: c.SourceQuery,
			Raw:         detail.Raw,
			Point:       detail.Point,
			Region:      region,
			CreatedAt:   e.now(),
		}
		if err := e.store.SavePlaceDetail(save); err != nil {
			log.Printf("place detail save %s: %v", c.PlaceID, err)
		}
	}

	if detail.Point != nil {
		cacheWrite(ctx, e.cache, key, enrichedGeometry{Point: detail.Point, Region: region}, SearchCacheTTL)
	}
}
