// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nakale/tuyende/utils/textutils"
)

// maxSearchResults caps what one search returns after deduplication.
const maxSearchResults = 5

// CandidateFilter decides whether a candidate belongs in the results
// for the given target city and region hint.
type CandidateFilter func(c LocationCandidate, city, regionHint string) bool

// MetroCandidateFilter branches on the target city: a search aimed at
// the metropolitan city keeps candidates whose city mentions the metro
// name; any other target keeps candidates whose resolved region equals
// the hint with any region suffix stripped.
func MetroCandidateFilter(metro string) CandidateFilter {
	lowerMetro := strings.ToLower(metro)

	return func(c LocationCandidate, city, regionHint string) bool {
		if strings.EqualFold(city, metro) {
			return strings.Contains(strings.ToLower(c.City), lowerMetro)
		}

		return c.Region != nil && *c.Region == StripRegionSuffix(regionHint)
	}
}

// SearchEngine runs the full search pipeline: hot-cache lookup, stored
// candidate lookup, autocomplete, concurrent enrichment, filtering,
// deduplication, and result caching.
type SearchEngine struct {
	cache    HotCache
	store    Store
	places   PlacesProvider
	enricher *PlaceEnricher
	filter   CandidateFilter
	country  string
	now      func() time.Time
}

// NewSearchEngine creates a search engine. country is the ISO 3166-1
// alpha-2 code used to scope autocomplete.
func NewSearchEngine(cache HotCache, store Store, places PlacesProvider, enricher *PlaceEnricher, filter CandidateFilter, country string) *SearchEngine {
	return &SearchEngine{
		cache:    cache,
		store:    store,
		places:   places,
		enricher: enricher,
		filter:   filter,
		country:  country,
		now:      time.Now,
	}
}

func (s *SearchEngine) cacheKey(query, city, regionHint string) string {
	fold := textutils.LowerASCIIFolding

	return "search-" + hashKey(
		fold(city),
		fold(s.country),
		fold(query),
		fold(regionHint),
	)
}

// Search resolves a free-text query against the target city to at most
// maxSearchResults candidates; regionHint scopes searches aimed outside
// the metropolitan city. A repeated query within the TTL is answered
// from the cache with a refreshed timestamp; previously enriched
// candidates in the store answer it without another autocomplete round
// trip.
func (s *SearchEngine) Search(ctx context.Context, query, city, regionHint string) SearchResultSet {
	key := s.cacheKey(query, city, regionHint)

	var cached SearchResultSet
	if cacheRead(ctx, s.cache, key, &cached) && len(cached.Results) > 0 {
		for i := range cached.Results {
			cached.Results[i].Suburb = ApplySuburbException(cached.Results[i].DisplayName, cached.Results[i].Suburb)
		}

		cached.Timestamp = s.now()

		return cached
	}

	result := SearchResultSet{Timestamp: s.now(), Results: []LocationCandidate{}}

	stored, err := s.store.FindCandidates(query, city)
	if err != nil {
		log.Printf("stored candidates %q: %v", query, err)
	}

	if len(stored) > 0 {
		result.Results = capResults(Deduplicate(stored), maxSearchResults)

		cacheWrite(ctx, s.cache, key, result, SearchCacheTTL)

		return result
	}

	predictions, err := s.places.Autocomplete(ctx, query, s.country)
	if err != nil {
		log.Printf("autocomplete %q: %v", query, err)

		return result
	}

	candidates := make([]LocationCandidate, len(predictions))
	for i, p := range predictions {
		candidates[i] = candidateFromPrediction(p, query)
	}

	// Enrichment hits the cache and the detail provider per candidate;
	// fan out and keep the provider's ordering.
	var wg sync.WaitGroup

	for i := range candidates {
		wg.Add(1)

		go func(c *LocationCandidate) {
			defer wg.Done()
			s.enricher.Enrich(ctx, c)
		}(&candidates[i])
	}

	wg.Wait()

	kept := make([]LocationCandidate, 0, len(candidates))

	for _, c := range candidates {
		if !s.filter(c, city, regionHint) {
			continue
		}

		kept = append(kept, c)

		if c.Point != nil {
			if err := s.store.SaveCandidate(&c, result.Timestamp); err != nil {
				log.Printf("candidate save %s: %v", c.PlaceID, err)
			}
		}
	}

	result.Results = capResults(Deduplicate(kept), maxSearchResults)

	cacheWrite(ctx, s.cache, key, result, SearchCacheTTL)

	return result
}

const noComponent = "none"

// candidateFromPrediction splits the secondary text of a prediction
// into street, city, and country. Components are comma separated and
// indexed from the end, so the country is last, the city second to
// last, and the street third to last; whatever is missing becomes
// "none".
func candidateFromPrediction(p Prediction, query string) LocationCandidate {
	c := LocationCandidate{
		PlaceID:     p.PlaceID,
		DisplayName: p.MainText,
		Street:      noComponent,
		City:        noComponent,
		Country:     noComponent,
		SourceQuery: query,
	}

	parts := strings.Split(p.SecondaryText, ", ")
	if p.SecondaryText == "" {
		parts = nil
	}

	n := len(parts)
	if n >= 1 {
		c.Country = parts[n-1]
	}

	if n >= 2 {
		c.City = parts[n-2]
	}

	if n >= 3 {
		c.Street = parts[n-3]
	}

	return c
}
