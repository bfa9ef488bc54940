// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

// Deduplicate removes duplicate candidates, preserving first-seen
// order. Identity is the exact concatenation of display name, city,
// street, and country as produced upstream: deliberately simple and
// case sensitive, because upstream already normalizes what it cares
// about.
func Deduplicate(candidates []LocationCandidate) []LocationCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]LocationCandidate, 0, len(candidates))

	for _, c := range candidates {
		key := c.DisplayName + c.City + c.Street + c.Country
		if seen[key] {
			continue
		}

		seen[key] = true

		out = append(out, c)
	}

	return out
}

// capResults keeps at most n candidates, in order.
func capResults(candidates []LocationCandidate, n int) []LocationCandidate {
	if len(candidates) <= n {
		return candidates
	}

	return candidates[:n]
}
