// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wneessen/revgeo/internal/geocode"
	"github.com/wneessen/revgeo/internal/logger"
	"github.com/wneessen/revgeo/internal/service"
)

var lookupLang string

var lookupCmd = &cobra.Command{
	Use:   "lookup <latitude> <longitude>",
	Short: "Reverse geocode a single coordinate and print the result as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid latitude: %s", args[0])
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid longitude: %s", args[1])
		}

		conf, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New(conf.LogLevel)

		resolver, store, err := service.BuildResolver(conf, log)
		if err != nil {
			return err
		}
		defer func() {
			if err = store.Close(); err != nil {
				log.Error("failed to close cache store", logger.Err(err))
			}
		}()

		lang := lookupLang
		if lang == "" {
			lang = conf.Language
		}
		result := resolver.Geocode(cmd.Context(), geocode.Coordinate{Lat: lat, Lon: lon}, lang)

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if !result.Success {
			return fmt.Errorf("reverse geocoding failed: %s", result.Message)
		}
		return nil
	},
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupLang, "language", "l", "", "response language (two-letter code)")
}
