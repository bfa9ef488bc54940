// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/mattn/go-isatty"
	"github.com/nakale/tuyende/geo"
	"github.com/nakale/tuyende/utils/textutils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const seedBatchSize = 500

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <suburbs.json>",
		Short: "Seeds the store with curated area-to-suburb resolutions",
		Long: `Loads a JSON file of curated suburb resolutions into the persistent
store. Each entry maps a stable area identifier to its region and suburb;
existing entries are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := os.MkdirAll(serveOpts.DbPath, 0o750); err != nil {
				return fmt.Errorf("creating db directory: %w", err)
			}

			dbpath := filepath.Join(serveOpts.DbPath, "tuyende.duckdb")

			return seedSuburbs(dbpath, args[0])
		},
	}
}

func init() {
	rootCmd.AddCommand(newSeedCmd())
}

func seedSuburbs(dbPath, seedFile string) error {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	store := geo.NewStore(db)
	if err := store.CreateSchema(); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var records []*geo.AreaSuburbRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("unmarshaling seed file: %w", err)
	}

	now := time.Now()
	for _, rec := range records {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(records),
			progressbar.OptionSetDescription("Seeding suburbs"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for start := 0; start < len(records); start += seedBatchSize {
		end := start + seedBatchSize
		if end > len(records) {
			end = len(records)
		}

		if err := store.BulkInsertAreaSuburbs(records[start:end]); err != nil {
			return fmt.Errorf("inserting batch at %d: %w", start, err)
		}

		if bar != nil {
			_ = bar.Add(end - start)
		}
	}

	total, err := store.CountAreaSuburbs()
	if err != nil {
		return fmt.Errorf("counting areas: %w", err)
	}

	fmt.Printf("✅ Loaded %s suburb resolutions (%s areas known)\n",
		textutils.FormatInt(int64(len(records))),
		textutils.FormatInt(int64(total)))

	return nil
}
