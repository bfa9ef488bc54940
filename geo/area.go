// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"fmt"

	"github.com/nakale/tuyende/spatial"
	"github.com/uber/h3-go/v4"
)

// DefaultAreaResolution is the H3 resolution used for area
// identifiers. Resolution 8 cells are roughly suburb sized, so
// coordinate jitter inside the same block maps to one identifier.
const DefaultAreaResolution = 8

// AreaLookup maps coordinates to a stable area identifier. Coordinates
// that belong to the same physical area share the identifier, which
// lets suburb resolutions be reused across outer-cache misses caused by
// small coordinate variations.
type AreaLookup interface {
	AreaID(ctx context.Context, p spatial.Point) (string, error)
}

// H3AreaLookup derives area identifiers from H3 cells.
type H3AreaLookup struct {
	Resolution int
}

// NewH3AreaLookup creates a lookup at the default resolution.
func NewH3AreaLookup() *H3AreaLookup {
	return &H3AreaLookup{Resolution: DefaultAreaResolution}
}

func (l *H3AreaLookup) AreaID(_ context.Context, p spatial.Point) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), l.Resolution)
	if err != nil {
		return "", fmt.Errorf("converting to h3 cell at res %d: %w", l.Resolution, err)
	}

	return cell.String(), nil
}
