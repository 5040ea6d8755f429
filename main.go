/* SPDX-License-Identifier: AGPL-3.0-or-later
 *
 * Zymatik VCF Server - Serve variant queries from a single VCF file.
 * Copyright (C) 2024 Zymatik
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published
 * by the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/zymatik-com/vcfserver/internal/server"
	"github.com/zymatik-com/vcfserver/internal/sessions"
	"github.com/zymatik-com/vcfserver/internal/vcfstore"
)

func main() {
	var logger *slog.Logger
	var showProgress bool
	var debug bool

	init := func(c *cli.Context) error {
		level := (*slog.Level)(c.Generic("log-level").(*logLevelFlag))
		if c.Bool("debug") {
			l := slog.LevelDebug
			level = &l
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		showProgress = c.Bool("show-progress")
		debug = c.Bool("debug")

		return nil
	}

	app := &cli.App{
		Name:      "vcfserver",
		Usage:     "Serve variant queries from a single VCF file over the Model Context Protocol",
		UsageText: "vcfserver [options] <vcf path>",
		Flags: []cli.Flag{
			&cli.GenericFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set the log level",
				Value:   fromLogLevel(slog.LevelInfo),
			},
			&cli.StringFlag{
				Name:  "sse",
				Usage: "Serve over SSE at the given host:port instead of stdio",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging and response timing/size logs",
				Value: false,
			},
			&cli.BoolFlag{
				Name:  "never-save-index",
				Usage: "Never write sidecar index files beside the VCF",
				Value: false,
			},
			&cli.BoolFlag{
				Name:    "show-progress",
				Aliases: []string{"p"},
				Usage:   "Show progress bars while building indices",
				Value:   true,
			},
		},
		Before: init,
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("missing required vcf path argument")
			}

			vcfPath := c.Args().First()

			policy := vcfstore.Policy{
				NeverSaveIndex: c.Bool("never-save-index"),
				ShowProgress:   showProgress,
			}

			logger.Info("Opening vcf file", "path", vcfPath)

			store, err := vcfstore.Open(logger, vcfPath, policy)
			if err != nil {
				return fmt.Errorf("could not open vcf file: %w", err)
			}
			defer store.Close()

			mgr := sessions.NewManager(store, sessions.DefaultIdleTimeout)
			defer mgr.Close()

			srv := server.New(logger, store, mgr, server.Config{Debug: debug})

			if addr := c.String("sse"); addr != "" {
				logger.Info("Serving over sse", "addr", addr)
				return srv.ServeSSE(addr)
			}

			logger.Info("Serving over stdio")
			return srv.ServeStdio()
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("Error running app", "error", err)
		os.Exit(1)
	}
}

type logLevelFlag slog.Level

func fromLogLevel(l slog.Level) *logLevelFlag {
	f := logLevelFlag(l)
	return &f
}

func (f *logLevelFlag) Set(value string) error {
	return (*slog.Level)(f).UnmarshalText([]byte(value))
}

func (f *logLevelFlag) String() string {
	return (*slog.Level)(f).String()
}
