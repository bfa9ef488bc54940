// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"log"

	"github.com/nakale/tuyende/spatial"
)

// LiveResolver describes the current position of a moving entity. The
// primary geocoder supplies the feature; the boundary provider patches
// the city, which the primary gets wrong near the metro edge. Answers
// are never cached because the entity keeps moving.
type LiveResolver struct {
	primary    LiveGeocoder
	boundaries BoundaryLookup
}

// NewLiveResolver creates a live position resolver.
func NewLiveResolver(primary LiveGeocoder, boundaries BoundaryLookup) *LiveResolver {
	return &LiveResolver{primary: primary, boundaries: boundaries}
}

// ResolveLive returns the feature at the point, or nil when the primary
// provider fails. A boundary failure only costs the city correction.
func (r *LiveResolver) ResolveLive(ctx context.Context, p spatial.Point) *LiveFeature {
	p = spatial.Normalize(p)

	feature, err := r.primary.ReverseLive(ctx, p)
	if err != nil {
		log.Printf("live reverse %s: %v", p.Key(), err)

		return nil
	}

	city, err := r.boundaries.CityAt(ctx, p)
	if err != nil {
		log.Printf("boundary city %s: %v", p.Key(), err)
	} else if city != "" {
		feature.City = city
	}

	if feature.Street == "" && feature.Name != "" {
		feature.Street = feature.Name
	}

	feature.Suburb = applyConstituencyOverride(feature.Suburb)

	return feature
}
