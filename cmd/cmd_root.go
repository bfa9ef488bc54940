// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "tuyende",
	Short: "geospatial resolution service for the Windhoek marketplace",
	Long: `
tuyende resolves the locations the marketplace runs on: place search with
coordinate enrichment, suburb resolution, live courier positions, and route
previews, backed by a hot cache and a persistent store.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	// Local overrides only; absence of a .env file is the normal case.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
