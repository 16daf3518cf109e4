// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wneessen/revgeo/internal/logger"
	"github.com/wneessen/revgeo/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reverse geocoding HTTP service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGABRT,
			os.Interrupt)
		defer cancel()

		conf, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New(conf.LogLevel)

		serv, err := service.New(conf, log, version)
		if err != nil {
			return err
		}

		log.Info("starting revgeo service", slog.String("version", version),
			slog.String("commit", commit), slog.String("date", date),
			slog.String("address", conf.ServerAddr()))
		if err = serv.Run(ctx); err != nil {
			return err
		}
		log.Info("shutting down revgeo service")
		return nil
	},
}
