// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import "strings"

// suburbExceptions forces fixed suburb names for known problem areas
// where the providers disagree with what locals call the place. Keys
// are matched case-insensitively against the candidate display name.
var suburbExceptions = map[string]string{
	"wernhil park":   "Windhoek Central/CBD",
	"ausspannplatz":  "Ausspannplatz",
	"eros airport":   "Eros",
	"maerua mall":    "Klein Windhoek",
	"grove mall":     "Kleine Kuppe",
	"katutura state": "Katutura",
}

// constituencyOverrides relabels constituency names the live provider
// emits to the neighborhood names riders actually use.
var constituencyOverrides = map[string]string{
	"Samora Machel Constituency": "Wanaheda",
}

// ApplySuburbException overrides the provider suburb when the display
// name matches a known problem area. The provided suburb passes
// through otherwise; nil stays nil.
func ApplySuburbException(displayName string, suburb *string) *string {
	lower := strings.ToLower(displayName)

	for marker, forced := range suburbExceptions {
		if strings.Contains(lower, marker) {
			f := forced

			return &f
		}
	}

	return suburb
}

// applyConstituencyOverride maps a constituency label to its common
// neighborhood name, or returns the input unchanged.
func applyConstituencyOverride(suburb string) string {
	if common, ok := constituencyOverrides[suburb]; ok {
		return common
	}

	return suburb
}

const regionSuffix = " Region"

// StripRegionSuffix removes the trailing region-type token from an
// administrative area name: "Khomas Region" becomes "Khomas".
func StripRegionSuffix(region string) string {
	return strings.TrimSuffix(region, regionSuffix)
}

// extractRegion finds the first-level administrative area in a
// place-detail address and strips its suffix. Returns nil when the
// component is absent; callers treat that the same as any other
// missing region.
func extractRegion(components []AddressComponent) *string {
	for _, comp := range components {
		for _, t := range comp.Types {
			if t == "administrative_area_level_1" {
				region := StripRegionSuffix(comp.LongName)

				return &region
			}
		}
	}

	return nil
}
