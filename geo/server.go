// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/gin-gonic/gin"
	"github.com/nakale/tuyende/spatial"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// Server exposes the resolution pipeline over HTTP.
type Server struct {
	search   *SearchEngine
	suburbs  *SuburbResolver
	live     *LiveResolver
	previews *RoutePreviewer
	store    Store
	addr     string
}

// NewServer wires the pipeline components into an HTTP server.
func NewServer(search *SearchEngine, suburbs *SuburbResolver, live *LiveResolver, previews *RoutePreviewer, store Store, addr string) *Server {
	return &Server{
		search:   search,
		suburbs:  suburbs,
		live:     live,
		previews: previews,
		store:    store,
		addr:     addr,
	}
}

// ResolvePlacesAPIKey returns the Places API key from the environment,
// falling back to Application Default Credentials.
func ResolvePlacesAPIKey(ctx context.Context) string {
	apiKey := os.Getenv("PLACES_API_KEY")
	if apiKey != "" {
		return apiKey
	}

	log.Println("PLACES_API_KEY is not set. Attempting to retrieve via ADC...")

	apiKey, err := getAPIKeyFromADC(ctx)
	if err != nil {
		log.Printf("Failed to retrieve API key via ADC: %v", err)
		log.Print("PLACES_API_KEY is not set and ADC failed. Place search will be degraded.")

		return ""
	}

	log.Println("✅ Successfully retrieved Places API Key via ADC")

	return apiKey
}

func getAPIKeyFromADC(ctx context.Context) (string, error) {
	// 1. Get Project ID from ADC
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		// Fallback to known Project ID if not found in credentials
		// This happens when using user credentials without a quota project
		projectID = "tuyende-20260114"
		log.Printf("⚠️ No Project ID found in credentials. Using fallback: %s", projectID)
	}

	// 2. Create API Keys client
	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	// 3. List keys to find the one with the expected display name
	const targetDisplayName = "Tuyende Places Key"

	req := &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	}

	it := client.ListKeys(ctx, req)

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName == targetDisplayName {
			// ListKeys and GetKey redact the KeyString.
			// We must use GetKeyString method to retrieve the secret.
			log.Printf("Found key resource '%s', retrieving secret...", key.Name)

			getReq := &apikeyspb.GetKeyStringRequest{
				Name: key.Name,
			}

			resp, err := client.GetKeyString(ctx, getReq)
			if err != nil {
				return "", fmt.Errorf("getting key string: %w", err)
			}

			if resp.KeyString == "" {
				return "", fmt.Errorf("key '%s' found but KeyString is still empty after GetKeyString", targetDisplayName)
			}

			return resp.KeyString, nil
		}
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", targetDisplayName, projectID)
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	r := gin.Default()

	s.registerRoutes(r)

	return r.Run(s.addr)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", s.health)
	r.GET("/api/locations/search", s.searchLocations)
	r.GET("/api/locations/suburb", s.resolveSuburb)
	r.GET("/api/locations/live", s.resolveLive)
	r.GET("/api/routes/preview", s.previewRoute)
}

func (s *Server) health(ctx *gin.Context) {
	count, err := s.store.CountAreaSuburbs()
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "known_areas": count})
}

func (s *Server) searchLocations(ctx *gin.Context) {
	query := ctx.Query("query")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})

		return
	}

	city := ctx.DefaultQuery("city", MetropolitanCity)
	regionHint := ctx.Query("state")

	result := s.search.Search(ctx.Request.Context(), query, city, regionHint)

	ctx.JSON(http.StatusOK, result)
}

func pointFromQuery(ctx *gin.Context, latParam, lngParam string) (spatial.Point, bool) {
	lat, latErr := strconv.ParseFloat(ctx.Query(latParam), 64)
	lng, lngErr := strconv.ParseFloat(ctx.Query(lngParam), 64)

	if latErr != nil || lngErr != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("%s and %s must be valid coordinates", latParam, lngParam),
		})

		return spatial.Point{}, false
	}

	return spatial.Point{Lat: lat, Lng: lng}, true
}

func (s *Server) resolveSuburb(ctx *gin.Context) {
	p, ok := pointFromQuery(ctx, "lat", "lng")
	if !ok {
		return
	}

	name := ctx.Query("name")
	city := ctx.DefaultQuery("city", MetropolitanCity)

	result := s.suburbs.Resolve(ctx.Request.Context(), p, name, city)

	ctx.JSON(http.StatusOK, result)
}

func (s *Server) resolveLive(ctx *gin.Context) {
	p, ok := pointFromQuery(ctx, "lat", "lng")
	if !ok {
		return
	}

	feature := s.live.ResolveLive(ctx.Request.Context(), p)
	if feature == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no feature at point"})

		return
	}

	ctx.JSON(http.StatusOK, feature)
}

func (s *Server) previewRoute(ctx *gin.Context) {
	requesterID := ctx.Query("requester_id")
	if requesterID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "requester_id parameter is required"})

		return
	}

	origin, ok := pointFromQuery(ctx, "origin_lat", "origin_lng")
	if !ok {
		return
	}

	destination, ok := pointFromQuery(ctx, "dest_lat", "dest_lng")
	if !ok {
		return
	}

	entry := s.previews.Preview(ctx.Request.Context(), requesterID, origin, destination)
	if entry == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no route available"})

		return
	}

	ctx.JSON(http.StatusOK, entry)
}
