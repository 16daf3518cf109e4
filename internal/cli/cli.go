// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package cli implements the revgeo command line interface
package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wneessen/revgeo/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "revgeo",
	Short: "Multi-provider reverse geocoding service",
	Long: `
revgeo resolves geographic coordinates to human-readable addresses. It tries a
configurable chain of geocoding providers in priority order and caches the
normalized results in coordinate buckets.
`,
	SilenceUsage: true,
}

// Build metadata, set via Execute
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Persistent flags
var (
	confPath string
	logLevel int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&confPath, "config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().IntVar(&logLevel, "log-level", 0,
		"log level override (slog numeric: -4 debug, 0 info, 4 warn, 8 error)")
	rootCmd.AddCommand(serveCmd, lookupCmd, versionCmd)
}

// Execute runs the command line interface
func Execute(buildVersion, buildCommit, buildDate string) {
	version, commit, date = buildVersion, buildCommit, buildDate
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration from the --config flag, a config file in
// the default location or the environment, in that order
func loadConfig() (*config.Config, error) {
	conf, err := readConfig()
	if err != nil {
		return nil, err
	}
	if rootCmd.PersistentFlags().Changed("log-level") {
		conf.LogLevel = slog.Level(logLevel)
	}
	return conf, nil
}

func readConfig() (*config.Config, error) {
	if confPath != "" {
		return config.NewFromFile(filepath.Dir(confPath), filepath.Base(confPath))
	}
	if path, file := findConfigFile(); path != "" && file != "" {
		return config.NewFromFile(path, file)
	}
	return config.New()
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "revgeo", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
