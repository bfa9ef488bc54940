// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nakale/tuyende/spatial"
)

// fakeCache is an in-memory HotCache. failGets makes every read fail,
// simulating an unreachable cache.
type fakeCache struct {
	mu       sync.Mutex
	data     map[string]string
	failGets bool
	failSets bool
	gets     int
	sets     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gets++

	if c.failGets {
		return "", false, errors.New("cache unavailable")
	}

	v, ok := c.data[key]

	return v, ok, nil
}

func (c *fakeCache) SetWithExpiry(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++

	if c.failSets {
		return errors.New("cache unavailable")
	}

	c.data[key] = value

	return nil
}

func (c *fakeCache) ScanBySuffix(_ context.Context, suffix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string

	for k := range c.data {
		if strings.HasSuffix(k, suffix) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)

	return nil
}

func (c *fakeCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]

	return v, ok
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu          sync.Mutex
	details     map[string]*PlaceDetailRecord
	candidates  []LocationCandidate
	areaSuburbs map[string]*AreaSuburbRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		details:     make(map[string]*PlaceDetailRecord),
		areaSuburbs: make(map[string]*AreaSuburbRecord),
	}
}

func (s *fakeStore) CreateSchema() error { return nil }

func (s *fakeStore) DB() *sql.DB { return nil }

func (s *fakeStore) GetPlaceDetail(placeID string) (*PlaceDetailRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.details[placeID], nil
}

func (s *fakeStore) SavePlaceDetail(rec *PlaceDetailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.details[rec.PlaceID]; ok {
		return nil
	}

	s.details[rec.PlaceID] = rec

	return nil
}

func (s *fakeStore) GetCandidate(sourceQuery, placeID string) (*LocationCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.candidates) - 1; i >= 0; i-- {
		c := s.candidates[i]
		if c.SourceQuery == sourceQuery && c.PlaceID == placeID {
			return &c, nil
		}
	}

	return nil, nil
}

func (s *fakeStore) SaveCandidate(c *LocationCandidate, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candidates = append(s.candidates, *c)

	return nil
}

func (s *fakeStore) FindCandidates(sourceQuery, city string) ([]LocationCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LocationCandidate

	for _, c := range s.candidates {
		if strings.EqualFold(c.SourceQuery, sourceQuery) && strings.EqualFold(c.City, city) {
			out = append(out, c)
		}
	}

	return out, nil
}

func (s *fakeStore) GetAreaSuburb(areaID string) (*AreaSuburbRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.areaSuburbs[areaID], nil
}

func (s *fakeStore) SaveAreaSuburb(rec *AreaSuburbRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.areaSuburbs[rec.AreaID]; ok {
		return nil
	}

	s.areaSuburbs[rec.AreaID] = rec

	return nil
}

func (s *fakeStore) BulkInsertAreaSuburbs(recs []*AreaSuburbRecord) error {
	for _, rec := range recs {
		if err := s.SaveAreaSuburb(rec); err != nil {
			return err
		}
	}

	return nil
}

func (s *fakeStore) CountAreaSuburbs() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.areaSuburbs), nil
}

// fakePlaces scripts autocomplete and details responses and counts
// calls.
type fakePlaces struct {
	mu            sync.Mutex
	predictions   []Prediction
	details       map[string]*PlaceDetail
	autocompleteN int
	detailsN      int
	failAll       bool
}

func (p *fakePlaces) Autocomplete(_ context.Context, _, _ string) ([]Prediction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.autocompleteN++

	if p.failAll {
		return nil, &ProviderError{Type: ErrorTypeNetworkError, Message: "provider down"}
	}

	return p.predictions, nil
}

func (p *fakePlaces) Details(_ context.Context, placeID string) (*PlaceDetail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.detailsN++

	if p.failAll {
		return nil, &ProviderError{Type: ErrorTypeNetworkError, Message: "provider down"}
	}

	d, ok := p.details[placeID]
	if !ok {
		return nil, &ProviderError{Type: ErrorTypeNotFound, Message: "no such place"}
	}

	return d, nil
}

// fakeReverse scripts one reverse geocoding answer.
type fakeReverse struct {
	mu     sync.Mutex
	addr   *ReverseAddress
	err    error
	callsN int
}

func (r *fakeReverse) Reverse(_ context.Context, _ spatial.Point) (*ReverseAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callsN++

	if r.err != nil {
		return nil, r.err
	}

	return r.addr, nil
}

// fakeAreas returns a fixed area id.
type fakeAreas struct {
	id  string
	err error
}

func (a *fakeAreas) AreaID(_ context.Context, _ spatial.Point) (string, error) {
	return a.id, a.err
}

// fakeLive scripts the live geocoder.
type fakeLive struct {
	feature *LiveFeature
	err     error
}

func (l *fakeLive) ReverseLive(_ context.Context, _ spatial.Point) (*LiveFeature, error) {
	if l.err != nil {
		return nil, l.err
	}

	f := *l.feature

	return &f, nil
}

// fakeBoundary scripts the boundary provider.
type fakeBoundary struct {
	city string
	err  error
}

func (b *fakeBoundary) CityAt(_ context.Context, _ spatial.Point) (string, error) {
	return b.city, b.err
}

// fakeRouting scripts the routing engine and counts calls.
type fakeRouting struct {
	mu     sync.Mutex
	leg    *RouteLeg
	err    error
	callsN int
}

func (r *fakeRouting) Route(_ context.Context, _, _ spatial.Point) (*RouteLeg, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callsN++

	if r.err != nil {
		return nil, r.err
	}

	leg := *r.leg

	return &leg, nil
}

func (r *fakeRouting) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.callsN
}

func strPtr(s string) *string { return &s }
