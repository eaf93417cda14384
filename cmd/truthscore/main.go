// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main is the truthscore command: it serves the verification API and
// runs one-off checks against the same ledger from the terminal.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/traylinx/truthscore/internal/buildinfo"
	"github.com/traylinx/truthscore/internal/logging"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global flags
var (
	configPath string
	verbose    bool
)

func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

var rootCmd = &cobra.Command{
	Use:   "truthscore",
	Short: "Heuristic credibility checks for news, websites and companies",
	Long: `truthscore scores news content, website URLs and company names with
fixed heuristics and keeps a verification ledger: 10 points for every
credible news item or legitimate website, plus the ten most recent results.

Run "truthscore serve" to start the API used by the browser front end, or
"truthscore check" to evaluate something from the terminal.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.SetDebug(true)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
	},
}

func defaultConfigPath() string {
	if p := os.Getenv("TRUTHSCORE_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

// loadDotEnv reads .env from the working directory if present.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Errorf("failed to get working directory: %v", err)
		return
	}
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}
}

func main() {
	loadDotEnv()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, checkCmd, ledgerCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
