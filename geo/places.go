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

// Prediction is one autocomplete suggestion.
type Prediction struct {
	PlaceID       string
	MainText      string
	SecondaryText string
}

// AddressComponent is one component of a place-detail address.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// PlaceDetail is the decoded place-detail response plus the verbatim
// payload, which the store persists untouched.
type PlaceDetail struct {
	PlaceID           string
	AddressComponents []AddressComponent
	Point             *spatial.Point
	Raw               []byte
}

// PlacesProvider is the autocomplete and place-detail upstream.
type PlacesProvider interface {
	Autocomplete(ctx context.Context, query, country string) ([]Prediction, error)
	Details(ctx context.Context, placeID string) (*PlaceDetail, error)
}

// GooglePlacesProvider uses the Google Places API.
type GooglePlacesProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

const googlePlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

// NewGooglePlacesProvider creates a new Places client.
func NewGooglePlacesProvider(apiKey string, options *ClientOptions) *GooglePlacesProvider {
	return &GooglePlacesProvider{
		apiKey:     apiKey,
		baseURL:    googlePlacesBaseURL,
		httpClient: newProviderClient(options),
	}
}

type autocompleteResponse struct {
	Predictions []struct {
		PlaceID             string `json:"place_id"`
		StructuredFormatting struct {
			MainText      string `json:"main_text"`
			SecondaryText string `json:"secondary_text"`
		} `json:"structured_formatting"`
	} `json:"predictions"`
	Status string `json:"status"` // OK, ZERO_RESULTS, etc.
}

func (g *GooglePlacesProvider) Autocomplete(ctx context.Context, query, country string) ([]Prediction, error) {
	params := url.Values{}
	params.Set("input", query)
	params.Set("key", g.apiKey)

	if country != "" {
		params.Set("components", "country:"+country)
	}

	reqURL := g.baseURL + "/autocomplete/json?" + params.Encode()

	body, err := g.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var acResp autocompleteResponse
	if err := json.Unmarshal(body, &acResp); err != nil {
		return nil, fmt.Errorf("decoding autocomplete response: %w", err)
	}

	if acResp.Status != "OK" && acResp.Status != "ZERO_RESULTS" {
		return nil, &ProviderError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("places autocomplete status: %s", acResp.Status),
		}
	}

	predictions := make([]Prediction, 0, len(acResp.Predictions))
	for _, p := range acResp.Predictions {
		predictions = append(predictions, Prediction{
			PlaceID:       p.PlaceID,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}

	return predictions, nil
}

type detailsResponse struct {
	Result struct {
		PlaceID           string             `json:"place_id"`
		AddressComponents []AddressComponent `json:"address_components"`
		Geometry          *struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
	Status string `json:"status"`
}

func (g *GooglePlacesProvider) Details(ctx context.Context, placeID string) (*PlaceDetail, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,address_components,geometry")
	params.Set("key", g.apiKey)

	reqURL := g.baseURL + "/details/json?" + params.Encode()

	body, err := g.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var detResp detailsResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("decoding details response: %w", err)
	}

	if detResp.Status != "OK" {
		return nil, &ProviderError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("places details status: %s", detResp.Status),
		}
	}

	detail := &PlaceDetail{
		PlaceID:           placeID,
		AddressComponents: detResp.Result.AddressComponents,
		Raw:               body,
	}

	if detResp.Result.Geometry != nil {
		p := spatial.Normalize(spatial.Point{
			Lat: detResp.Result.Geometry.Location.Lat,
			Lng: detResp.Result.Geometry.Location.Lng,
		})
		detail.Point = &p
	}

	return detail, nil
}

func (g *GooglePlacesProvider) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building places request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading places response: %w", err)
	}

	return body, nil
}
