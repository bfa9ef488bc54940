// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nakale/tuyende/spatial"
)

// RouteLeg is one driving route between two points.
type RouteLeg struct {
	Points       []spatial.Point
	Instructions []string
	TimeMS       int64
	Meters       float64
}

// RoutingProvider computes driving directions.
type RoutingProvider interface {
	Route(ctx context.Context, origin, destination spatial.Point) (*RouteLeg, error)
}

// GraphHopperRoutingProvider uses a GraphHopper-compatible routing
// engine.
type GraphHopperRoutingProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGraphHopperRoutingProvider creates a routing client.
func NewGraphHopperRoutingProvider(baseURL, apiKey string, options *ClientOptions) *GraphHopperRoutingProvider {
	return &GraphHopperRoutingProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: newProviderClient(options),
	}
}

type graphHopperResponse struct {
	Paths []struct {
		Distance float64 `json:"distance"`
		Time     int64   `json:"time"`
		Points   struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"points"`
		Instructions []struct {
			Text string `json:"text"`
		} `json:"instructions"`
	} `json:"paths"`
}

func (g *GraphHopperRoutingProvider) Route(ctx context.Context, origin, destination spatial.Point) (*RouteLeg, error) {
	params := url.Values{}
	params.Add("point", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	params.Add("point", fmt.Sprintf("%f,%f", destination.Lat, destination.Lng))
	params.Set("profile", "car")
	// Route previews need flexible routing: contraction hierarchies
	// off, plain coordinate arrays instead of encoded polylines, no
	// heading penalty, and residential roads and ferries excluded.
	params.Set("ch.disable", "true")
	params.Set("points_encoded", "false")
	params.Set("heading_penalty", "0")
	params.Add("avoid", "residential")
	params.Add("avoid", "ferry")

	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	reqURL := g.baseURL + "/route?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building route request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	var ghResp graphHopperResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("decoding route response: %w", err)
	}

	if len(ghResp.Paths) == 0 {
		return nil, &ProviderError{
			Type:    ErrorTypeIncompleteData,
			Message: "routing engine returned no path",
		}
	}

	path := ghResp.Paths[0]

	points := make([]spatial.Point, 0, len(path.Points.Coordinates))

	for _, c := range path.Points.Coordinates {
		if len(c) < 2 {
			continue
		}

		// GraphHopper emits [lng, lat] pairs
		points = append(points, spatial.Normalize(spatial.Point{Lat: c[1], Lng: c[0]}))
	}

	instructions := make([]string, 0, len(path.Instructions))
	for _, in := range path.Instructions {
		instructions = append(instructions, in.Text)
	}

	return &RouteLeg{
		Points:       points,
		Instructions: instructions,
		TimeMS:       path.Time,
		Meters:       path.Distance,
	}, nil
}
