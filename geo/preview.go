// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nakale/tuyende/spatial"
)

const previewKeyPrefix = "pathToDestinationPreview-"

// RoutePreviewer serves driving previews per requester with
// stale-while-revalidate caching: a cached entry for the same pair is
// returned immediately while a background refresh replaces it.
type RoutePreviewer struct {
	cache   HotCache
	routing RoutingProvider
	now     func() time.Time
	spawn   func(func())
}

// NewRoutePreviewer creates a previewer over the cache and routing
// provider.
func NewRoutePreviewer(cache HotCache, routing RoutingProvider) *RoutePreviewer {
	return &RoutePreviewer{
		cache:   cache,
		routing: routing,
		now:     time.Now,
		spawn:   func(f func()) { go f() },
	}
}

// Preview returns the route preview for the requester's pair. A cached
// entry is returned as is and refreshed in the background; otherwise
// the route is computed synchronously. Returns nil when the routing
// provider fails and nothing is cached.
func (r *RoutePreviewer) Preview(ctx context.Context, requesterID string, origin, destination spatial.Point) *RoutePreviewEntry {
	origin = spatial.Normalize(origin)
	destination = spatial.Normalize(destination)

	key := previewKeyPrefix + requesterID

	var entries []RoutePreviewEntry
	if cacheRead(ctx, r.cache, key, &entries) {
		for i := range entries {
			if entries[i].matches(origin, destination) {
				stale := entries[i]

				r.spawn(func() {
					// The request context is gone by the time this
					// runs; the refresh gets its own deadline.
					refreshCtx, cancel := context.WithTimeout(context.Background(), defaultProviderTimeout)
					defer cancel()

					r.refresh(refreshCtx, key, origin, destination)
				})

				return &stale
			}
		}
	}

	entry := r.compute(ctx, origin, destination)
	if entry == nil {
		return nil
	}

	r.storeEntry(ctx, key, entries, *entry)

	return entry
}

func (r *RoutePreviewer) refresh(ctx context.Context, key string, origin, destination spatial.Point) {
	entry := r.compute(ctx, origin, destination)
	if entry == nil {
		return
	}

	var entries []RoutePreviewEntry

	cacheRead(ctx, r.cache, key, &entries)

	r.storeEntry(ctx, key, entries, *entry)
}

func (r *RoutePreviewer) compute(ctx context.Context, origin, destination spatial.Point) *RoutePreviewEntry {
	leg, err := r.routing.Route(ctx, origin, destination)
	if err != nil {
		log.Printf("route %s -> %s: %v", origin.Key(), destination.Key(), err)

		return nil
	}

	entry := &RoutePreviewEntry{
		Origin:       origin,
		Destination:  destination,
		Points:       leg.Points,
		Instructions: leg.Instructions,
		ETA:          FormatETA(leg.TimeMS),
		Meters:       leg.Meters,
	}

	if len(leg.Points) > 0 {
		next := leg.Points[0]
		entry.NextPoint = &next
	}

	return entry
}

// storeEntry replaces any entry for the same pair and writes the set
// back with a fresh TTL.
func (r *RoutePreviewer) storeEntry(ctx context.Context, key string, entries []RoutePreviewEntry, entry RoutePreviewEntry) {
	kept := make([]RoutePreviewEntry, 0, len(entries)+1)

	for _, e := range entries {
		if e.matches(entry.Origin, entry.Destination) {
			continue
		}

		kept = append(kept, e)
	}

	kept = append(kept, entry)

	cacheWrite(ctx, r.cache, key, kept, PreviewCacheTTL)
}

// FormatETA renders a travel time in the marketplace's display format:
// whole minutes from one minute up, whole seconds below that.
func FormatETA(timeMS int64) string {
	if timeMS >= 60000 {
		return fmt.Sprintf("%d min away", timeMS/60000)
	}

	return fmt.Sprintf("%d sec away", timeMS/1000)
}
