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

// LiveGeocoder is the primary reverse geocoder for moving entities. It
// trades accuracy of the city field for latency; the resolver patches
// the city from the boundary provider.
type LiveGeocoder interface {
	ReverseLive(ctx context.Context, p spatial.Point) (*LiveFeature, error)
}

// BoundaryLookup is the secondary administrative-boundary provider,
// consulted only for the city containing a point.
type BoundaryLookup interface {
	CityAt(ctx context.Context, p spatial.Point) (string, error)
}

// PhotonLiveGeocoder uses a Photon-compatible endpoint for the live
// path.
type PhotonLiveGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

const photonBaseURL = "https://photon.komoot.io"

// NewPhotonLiveGeocoder creates a live geocoder. An empty baseURL
// selects the public endpoint.
func NewPhotonLiveGeocoder(baseURL string, options *ClientOptions) *PhotonLiveGeocoder {
	if baseURL == "" {
		baseURL = photonBaseURL
	}

	return &PhotonLiveGeocoder{
		baseURL:    baseURL,
		httpClient: newProviderClient(options),
	}
}

type photonResponse struct {
	Features []struct {
		Properties struct {
			Name     string `json:"name"`
			Street   string `json:"street"`
			City     string `json:"city"`
			District string `json:"district"`
		} `json:"properties"`
	} `json:"features"`
}

func (g *PhotonLiveGeocoder) ReverseLive(ctx context.Context, p spatial.Point) (*LiveFeature, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", p.Lat))
	params.Set("lon", fmt.Sprintf("%f", p.Lng))
	params.Set("limit", "1")

	reqURL := g.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building live reverse request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("live reverse request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	var phResp photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&phResp); err != nil {
		return nil, fmt.Errorf("decoding live reverse response: %w", err)
	}

	if len(phResp.Features) == 0 {
		return nil, &ProviderError{
			Type:    ErrorTypeNotFound,
			Message: "no feature at point",
		}
	}

	props := phResp.Features[0].Properties

	return &LiveFeature{
		Name:   props.Name,
		Street: props.Street,
		City:   props.City,
		Suburb: props.District,
	}, nil
}

// BoundaryServiceClient queries an administrative-boundary service for
// the city containing a point.
type BoundaryServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBoundaryServiceClient creates a boundary lookup client.
func NewBoundaryServiceClient(baseURL string, options *ClientOptions) *BoundaryServiceClient {
	return &BoundaryServiceClient{
		baseURL:    baseURL,
		httpClient: newProviderClient(options),
	}
}

type boundaryResponse struct {
	City string `json:"city"`
}

func (c *BoundaryServiceClient) CityAt(ctx context.Context, p spatial.Point) (string, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", p.Lat))
	params.Set("lng", fmt.Sprintf("%f", p.Lng))

	reqURL := c.baseURL + "/boundaries/city?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("building boundary request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("boundary request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ClassifyHTTPError(resp.StatusCode, "")
	}

	var bResp boundaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&bResp); err != nil {
		return "", fmt.Errorf("decoding boundary response: %w", err)
	}

	return bResp.City, nil
}
