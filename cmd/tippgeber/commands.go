// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tippgeber/tippgeber/pkg/logging"
)

// --- Global Command Variables ---
var (
	configPath string
	poolPath   string
	envPath    string
	verbose    bool

	ring *logging.Ring

	rootCmd = &cobra.Command{
		Use:   "tippgeber",
		Short: "Maintains and serves a pool of AI-generated tips",
		Long: `Tippgeber keeps a replenishable pool of short AI-generated tips,
serves them one at a time over HTTP/SSE, and rotates stale entries
out in the background.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; a missing file is the normal case in
			// container deployments where secrets arrive as real env vars.
			if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "warning: could not load %s: %v\n", envPath, err)
			}
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			ring = logging.Setup(logging.Config{Level: level})
		},
	}

	poolCmd = &cobra.Command{
		Use:   "pool",
		Short: "Inspect and maintain the persisted answer pool",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tippgeber.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&poolPath, "pool", "answers.json", "path to the persisted answer pool")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "path to the .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolEnsureCmd)
	poolCmd.AddCommand(poolRotateCmd)
	poolCmd.AddCommand(poolStatusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
