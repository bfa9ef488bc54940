// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/nakale/tuyende/geo"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	DbPath              string
	Addr                string
	Country             string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	NominatimURL        string
	PhotonURL           string
	BoundaryURL         string
	GraphHopperURL      string
	GraphHopperKey      string
	EnableHTTPTrace     bool
	EnableHTTPBodyTrace bool
}

var serveOpts = &serveOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resolution HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if err := os.MkdirAll(serveOpts.DbPath, 0o750); err != nil {
			return fmt.Errorf("creating db directory: %w", err)
		}

		dbpath := filepath.Join(serveOpts.DbPath, "tuyende.duckdb")

		db, err := sql.Open("duckdb", dbpath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		store := geo.NewStore(db)
		if err := store.CreateSchema(); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}

		cache, err := geo.NewRedisCache(ctx, serveOpts.RedisAddr, serveOpts.RedisPassword, serveOpts.RedisDB)
		if err != nil {
			return fmt.Errorf("connecting to hot cache: %w", err)
		}
		defer cache.Close()

		clientOptions := &geo.ClientOptions{
			UserAgent:           fmt.Sprintf("tuyende/%s (+https://github.com/nakale/tuyende)", Version),
			EnableHTTPTrace:     serveOpts.EnableHTTPTrace,
			EnableHTTPBodyTrace: serveOpts.EnableHTTPBodyTrace,
		}

		places := geo.NewGooglePlacesProvider(geo.ResolvePlacesAPIKey(ctx), clientOptions)
		enricher := geo.NewPlaceEnricher(cache, store, places)
		search := geo.NewSearchEngine(
			cache,
			store,
			places,
			enricher,
			geo.MetroCandidateFilter(geo.MetropolitanCity),
			serveOpts.Country,
		)

		suburbs := geo.NewSuburbResolver(
			cache,
			store,
			geo.NewH3AreaLookup(),
			geo.NewNominatimReverseGeocoder(serveOpts.NominatimURL, clientOptions),
		)

		live := geo.NewLiveResolver(
			geo.NewPhotonLiveGeocoder(serveOpts.PhotonURL, clientOptions),
			geo.NewBoundaryServiceClient(serveOpts.BoundaryURL, clientOptions),
		)

		previews := geo.NewRoutePreviewer(
			cache,
			geo.NewGraphHopperRoutingProvider(serveOpts.GraphHopperURL, serveOpts.GraphHopperKey, clientOptions),
		)

		server := geo.NewServer(search, suburbs, live, previews, store, serveOpts.Addr)

		fmt.Printf("🗺️  Resolution server listening on %s\n", serveOpts.Addr)

		return server.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.DbPath,
		"db-path",
		"db",
		"Base directory for the persistent store",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.Addr,
		"addr",
		"localhost:8080",
		"Address to listen on",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.Country,
		"country",
		"na",
		"ISO 3166-1 alpha-2 country code that scopes place search",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.RedisAddr,
		"redis-addr",
		envOr("REDIS_ADDR", "localhost:6379"),
		"Redis address for the hot cache",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.RedisPassword,
		"redis-password",
		os.Getenv("REDIS_PASSWORD"),
		"Redis password, empty for none",
	)
	serveCmd.PersistentFlags().IntVar(
		&serveOpts.RedisDB,
		"redis-db",
		0,
		"Redis database index",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.NominatimURL,
		"nominatim-url",
		os.Getenv("NOMINATIM_URL"),
		"Nominatim base URL, empty for the public endpoint",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.PhotonURL,
		"photon-url",
		os.Getenv("PHOTON_URL"),
		"Photon base URL, empty for the public endpoint",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.BoundaryURL,
		"boundary-url",
		envOr("BOUNDARY_URL", "http://localhost:8081"),
		"Administrative boundary service base URL",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.GraphHopperURL,
		"graphhopper-url",
		envOr("GRAPHHOPPER_URL", "https://graphhopper.com/api/1"),
		"GraphHopper base URL",
	)
	serveCmd.PersistentFlags().StringVar(
		&serveOpts.GraphHopperKey,
		"graphhopper-key",
		os.Getenv("GRAPHHOPPER_API_KEY"),
		"GraphHopper API key, empty for a self-hosted engine",
	)
	serveCmd.PersistentFlags().BoolVar(
		&serveOpts.EnableHTTPTrace,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	serveCmd.PersistentFlags().BoolVar(
		&serveOpts.EnableHTTPBodyTrace,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
