// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/nakale/tuyende/spatial"
)

// ReverseAddress is a decoded reverse-geocoding answer plus the
// verbatim payload for persistence.
type ReverseAddress struct {
	Suburb        string
	Neighbourhood string
	Residential   string
	State         string
	City          string
	Road          string
	Raw           []byte
}

// SuburbName picks the most specific suburb-like field that is
// present, in the provider's order of reliability.
func (a *ReverseAddress) SuburbName() string {
	for _, v := range []string{a.Suburb, a.Neighbourhood, a.Residential} {
		if v != "" {
			return v
		}
	}

	return ""
}

// ReverseGeocoder resolves coordinates to address components,
// including suburb-level fields.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, p spatial.Point) (*ReverseAddress, error)
}

// NominatimReverseGeocoder uses a Nominatim-compatible endpoint.
type NominatimReverseGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// NewNominatimReverseGeocoder creates a new reverse geocoder. An empty
// baseURL selects the public endpoint.
func NewNominatimReverseGeocoder(baseURL string, options *ClientOptions) *NominatimReverseGeocoder {
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}

	return &NominatimReverseGeocoder{
		baseURL:    baseURL,
		httpClient: newProviderClient(options),
	}
}

type nominatimResponse struct {
	Address struct {
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		Residential   string `json:"residential"`
		State         string `json:"state"`
		City          string `json:"city"`
		Road          string `json:"road"`
	} `json:"address"`
}

func (g *NominatimReverseGeocoder) Reverse(ctx context.Context, p spatial.Point) (*ReverseAddress, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", p.Lat))
	params.Set("lon", fmt.Sprintf("%f", p.Lng))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	reqURL := g.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building reverse request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading reverse response: %w", err)
	}

	var nomResp nominatimResponse
	if err := json.Unmarshal(body, &nomResp); err != nil {
		return nil, fmt.Errorf("decoding reverse response: %w", err)
	}

	return &ReverseAddress{
		Suburb:        nomResp.Address.Suburb,
		Neighbourhood: nomResp.Address.Neighbourhood,
		Residential:   nomResp.Address.Residential,
		State:         nomResp.Address.State,
		City:          nomResp.Address.City,
		Road:          nomResp.Address.Road,
		Raw:           body,
	}, nil
}
