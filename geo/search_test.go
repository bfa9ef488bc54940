// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"testing"
	"time"

	"github.com/nakale/tuyende/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearchEngine(cache *fakeCache, store *fakeStore, places *fakePlaces) *SearchEngine {
	enricher := NewPlaceEnricher(cache, store, places)
	enricher.now = fixedNow

	s := NewSearchEngine(cache, store, places, enricher, MetroCandidateFilter(MetropolitanCity), "na")
	s.now = fixedNow

	return s
}

func TestCandidateFromPrediction(t *testing.T) {
	tests := []struct {
		name          string
		secondaryText string
		street        string
		city          string
		country       string
	}{
		{
			name:          "full address",
			secondaryText: "Mandume Ndemufayo Avenue, Windhoek, Namibia",
			street:        "Mandume Ndemufayo Avenue",
			city:          "Windhoek",
			country:       "Namibia",
		},
		{
			name:          "city and country only",
			secondaryText: "Windhoek, Namibia",
			street:        "none",
			city:          "Windhoek",
			country:       "Namibia",
		},
		{
			name:          "country only",
			secondaryText: "Namibia",
			street:        "none",
			city:          "none",
			country:       "Namibia",
		},
		{
			name:          "empty",
			secondaryText: "",
			street:        "none",
			city:          "none",
			country:       "none",
		},
		{
			name:          "extra leading components are ignored",
			secondaryText: "Unit 4, Wernhil Park, Mandume Ndemufayo Avenue, Windhoek, Namibia",
			street:        "Mandume Ndemufayo Avenue",
			city:          "Windhoek",
			country:       "Namibia",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := candidateFromPrediction(Prediction{
				PlaceID:       "p",
				MainText:      "Somewhere",
				SecondaryText: tt.secondaryText,
			}, "somewhere")

			assert.Equal(t, tt.street, got.Street)
			assert.Equal(t, tt.city, got.City)
			assert.Equal(t, tt.country, got.Country)
			assert.Equal(t, "somewhere", got.SourceQuery)
			assert.Equal(t, "Somewhere", got.DisplayName)
		})
	}
}

func TestMetroCandidateFilter(t *testing.T) {
	filter := MetroCandidateFilter("Windhoek")

	tests := []struct {
		name       string
		c          LocationCandidate
		city       string
		regionHint string
		want       bool
	}{
		{
			name: "metro target keeps matching city",
			c:    LocationCandidate{City: "Windhoek"},
			city: "Windhoek",
			want: true,
		},
		{
			name: "metro target matches case insensitive substring",
			c:    LocationCandidate{City: "windhoek east"},
			city: "Windhoek",
			want: true,
		},
		{
			name: "metro target ignores the region",
			c:    LocationCandidate{City: "Swakopmund", Region: strPtr("Khomas")},
			city: "Windhoek",
			want: false,
		},
		{
			name:       "other target keeps matching region",
			c:          LocationCandidate{City: "none", Region: strPtr("Khomas")},
			city:       "Okahandja",
			regionHint: "Khomas Region",
			want:       true,
		},
		{
			name:       "other target ignores a metro city mention",
			c:          LocationCandidate{City: "Windhoek", Region: strPtr("Khomas")},
			city:       "Swakopmund",
			regionHint: "Erongo Region",
			want:       false,
		},
		{
			name:       "other target with metro city but matching region",
			c:          LocationCandidate{City: "Windhoek East", Region: strPtr("Erongo")},
			city:       "Swakopmund",
			regionHint: "Erongo Region",
			want:       true,
		},
		{
			name: "no region at all outside the metro",
			c:    LocationCandidate{City: "none"},
			city: "Okahandja",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter(tt.c, tt.city, tt.regionHint))
		})
	}
}

func TestSearchPipeline(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	point := spatial.Point{Lat: -22.5609, Lng: 17.0658}
	places := &fakePlaces{
		predictions: []Prediction{
			{PlaceID: "wernhil", MainText: "Wernhil Park", SecondaryText: "Mandume Ndemufayo Avenue, Windhoek, Namibia"},
			{PlaceID: "wernhil2", MainText: "Wernhil Park", SecondaryText: "Mandume Ndemufayo Avenue, Windhoek, Namibia"},
			{PlaceID: "swakop", MainText: "Wernhil Outlet", SecondaryText: "Swakopmund, Namibia"},
		},
		details: map[string]*PlaceDetail{
			"wernhil": {
				PlaceID: "wernhil",
				AddressComponents: []AddressComponent{
					{LongName: "Khomas Region", Types: []string{"administrative_area_level_1"}},
				},
				Point: &point,
				Raw:   []byte(`{}`),
			},
		},
	}

	s := newTestSearchEngine(cache, store, places)

	got := s.Search(context.Background(), "Wernhil", "Windhoek", "Khomas Region")

	// The Swakopmund hit is filtered out and the duplicate collapses.
	require.Len(t, got.Results, 1)

	r := got.Results[0]
	assert.Equal(t, "Wernhil Park", r.DisplayName)
	require.NotNil(t, r.Point)
	assert.Equal(t, point, *r.Point)
	require.NotNil(t, r.Region)
	assert.Equal(t, "Khomas", *r.Region)
	require.NotNil(t, r.Suburb)
	assert.Equal(t, "Windhoek Central/CBD", *r.Suburb)
	assert.Equal(t, fixedNow(), got.Timestamp)
}

func TestSearchOutsideMetroFiltersByRegion(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	coastPoint := spatial.Point{Lat: -22.6784, Lng: 14.5258}
	metroPoint := spatial.Point{Lat: -22.5609, Lng: 17.0658}
	places := &fakePlaces{
		predictions: []Prediction{
			{PlaceID: "jetty", MainText: "Swakopmund Jetty", SecondaryText: "Strand Street, Swakopmund, Namibia"},
			{PlaceID: "wernhil", MainText: "Wernhil Park", SecondaryText: "Mandume Ndemufayo Avenue, Windhoek, Namibia"},
		},
		details: map[string]*PlaceDetail{
			"jetty": {
				PlaceID: "jetty",
				AddressComponents: []AddressComponent{
					{LongName: "Erongo Region", Types: []string{"administrative_area_level_1"}},
				},
				Point: &coastPoint,
				Raw:   []byte(`{}`),
			},
			"wernhil": {
				PlaceID: "wernhil",
				AddressComponents: []AddressComponent{
					{LongName: "Khomas Region", Types: []string{"administrative_area_level_1"}},
				},
				Point: &metroPoint,
				Raw:   []byte(`{}`),
			},
		},
	}

	s := newTestSearchEngine(cache, store, places)

	// Outside the metro only the region hint counts; the candidate in
	// the metropolitan city is dropped despite the city mention.
	got := s.Search(context.Background(), "jetty", "Swakopmund", "Erongo Region")

	require.Len(t, got.Results, 1)
	assert.Equal(t, "Swakopmund Jetty", got.Results[0].DisplayName)
}

func TestSearchRepeatServedFromCache(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	places := &fakePlaces{
		predictions: []Prediction{
			{PlaceID: "p1", MainText: "Eros Airport", SecondaryText: "Windhoek, Namibia"},
		},
	}

	s := newTestSearchEngine(cache, store, places)

	// A cache hit refreshes the timestamp but not the data.
	calls := 0
	s.now = func() time.Time {
		calls++

		return fixedNow().Add(time.Duration(calls) * time.Hour)
	}

	first := s.Search(context.Background(), "Eros", "Windhoek", "")
	second := s.Search(context.Background(), "Eros", "Windhoek", "")

	assert.Equal(t, 1, places.autocompleteN)
	assert.True(t, second.Timestamp.After(first.Timestamp))
	assert.Equal(t, first.Results, second.Results)
}

func TestSearchServedFromStore(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	places := &fakePlaces{}

	point := spatial.Point{Lat: -22.5609, Lng: 17.0658}
	require.NoError(t, store.SaveCandidate(&LocationCandidate{
		PlaceID:     "wernhil",
		DisplayName: "Wernhil Park",
		Street:      "Mandume Ndemufayo Avenue",
		City:        "Windhoek",
		Country:     "Namibia",
		SourceQuery: "wernhil",
		Point:       &point,
		Region:      strPtr("Khomas"),
	}, fixedNow()))

	s := newTestSearchEngine(cache, store, places)

	got := s.Search(context.Background(), "wernhil", "Windhoek", "")

	assert.Equal(t, 0, places.autocompleteN)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Wernhil Park", got.Results[0].DisplayName)

	// The store hit is cached for the next caller.
	s.Search(context.Background(), "wernhil", "Windhoek", "")
	assert.Equal(t, 0, places.autocompleteN)
}

func TestSearchCachedEmptySetIsRecomputed(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	places := &fakePlaces{}

	s := newTestSearchEngine(cache, store, places)

	first := s.Search(context.Background(), "nothing here", "Windhoek", "")
	assert.Empty(t, first.Results)

	s.Search(context.Background(), "nothing here", "Windhoek", "")
	assert.Equal(t, 2, places.autocompleteN)
}

func TestSearchCapsResults(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()

	var predictions []Prediction
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		predictions = append(predictions, Prediction{
			PlaceID:       id,
			MainText:      "Shop " + id,
			SecondaryText: "Independence Avenue, Windhoek, Namibia",
		})
	}

	places := &fakePlaces{predictions: predictions}

	s := newTestSearchEngine(cache, store, places)

	got := s.Search(context.Background(), "shop", "Windhoek", "")
	assert.Len(t, got.Results, maxSearchResults)
}

func TestSearchProviderFailureYieldsEmpty(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	places := &fakePlaces{failAll: true}

	s := newTestSearchEngine(cache, store, places)

	got := s.Search(context.Background(), "anything", "Windhoek", "")
	assert.Empty(t, got.Results)

	// Failures are not cached; the next call retries.
	s.Search(context.Background(), "anything", "Windhoek", "")
	assert.Equal(t, 2, places.autocompleteN)
}

func TestSearchPersistsEnrichedCandidates(t *testing.T) {
	cache := newFakeCache()
	store := newFakeStore()
	point := spatial.Point{Lat: -22.6, Lng: 17.08}
	places := &fakePlaces{
		predictions: []Prediction{
			{PlaceID: "with-geo", MainText: "Grove Mall", SecondaryText: "Frankie Fredericks Drive, Windhoek, Namibia"},
			{PlaceID: "without-geo", MainText: "Mystery Spot", SecondaryText: "Windhoek, Namibia"},
		},
		details: map[string]*PlaceDetail{
			"with-geo": {PlaceID: "with-geo", Point: &point, Raw: []byte(`{}`)},
		},
	}

	s := newTestSearchEngine(cache, store, places)

	s.Search(context.Background(), "grove", "Windhoek", "")

	saved, err := store.FindCandidates("grove", "Windhoek")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "with-geo", saved[0].PlaceID)
}
