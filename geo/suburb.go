// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"log"
	"time"

	"github.com/nakale/tuyende/spatial"
)

// SuburbResolver resolves coordinates to a region and suburb through a
// coordinate-keyed hot cache, an area-keyed hot cache, the persistent
// store, and finally a reverse geocoder. Only fully resolved triples
// are cached or persisted; failures yield absent values and are retried
// on the next call.
type SuburbResolver struct {
	cache   HotCache
	store   Store
	areas   AreaLookup
	reverse ReverseGeocoder
	now     func() time.Time
}

// NewSuburbResolver creates a resolver over the given tiers.
func NewSuburbResolver(cache HotCache, store Store, areas AreaLookup, reverse ReverseGeocoder) *SuburbResolver {
	return &SuburbResolver{
		cache:   cache,
		store:   store,
		areas:   areas,
		reverse: reverse,
		now:     time.Now,
	}
}

// Resolve returns the region and suburb at the point. It never returns
// an error; any failure along the chain produces an AreaSuburb with nil
// fields.
func (r *SuburbResolver) Resolve(ctx context.Context, p spatial.Point, name, city string) AreaSuburb {
	p = spatial.Normalize(p)
	result := AreaSuburb{Point: p}

	pointKey := "suburb-" + hashKey(p.Key(), name, city)

	var cached AreaSuburb
	if cacheRead(ctx, r.cache, pointKey, &cached) && cached.Resolved() {
		cached.Point = p

		return cached
	}

	areaID, err := r.areas.AreaID(ctx, p)
	if err != nil {
		log.Printf("area id for %s: %v", p.Key(), err)

		return result
	}

	rec, err := r.store.GetAreaSuburb(areaID)
	if err != nil {
		log.Printf("area suburb lookup %s: %v", areaID, err)
	}

	if rec.Valid() {
		result.Region = rec.Region
		result.Suburb = rec.Suburb

		cacheWrite(ctx, r.cache, pointKey, result, SuburbCacheTTL)

		return result
	}

	areaKey := "area-" + hashKey(areaID, city, name)

	if cacheRead(ctx, r.cache, areaKey, &cached) && cached.Resolved() {
		result.Region = cached.Region
		result.Suburb = cached.Suburb

		cacheWrite(ctx, r.cache, pointKey, result, SuburbCacheTTL)

		return result
	}

	addr, err := r.reverse.Reverse(ctx, p)
	if err != nil {
		log.Printf("reverse geocoding %s: %v", p.Key(), err)

		return result
	}

	suburb := addr.SuburbName()
	region := StripRegionSuffix(addr.State)

	// A partial answer is not worth remembering; returning absent now
	// lets a later call try again.
	if suburb == "" || region == "" {
		return result
	}

	result.Region = &region
	result.Suburb = &suburb

	save := &AreaSuburbRecord{
		AreaID:    areaID,
		Region:    &region,
		Suburb:    &suburb,
		Raw:       addr.Raw,
		CreatedAt: r.now(),
	}
	if err := r.store.SaveAreaSuburb(save); err != nil {
		log.Printf("area suburb save %s: %v", areaID, err)
	}

	cacheWrite(ctx, r.cache, areaKey, result, SuburbCacheTTL)
	cacheWrite(ctx, r.cache, pointKey, result, SuburbCacheTTL)

	return result
}
