// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Command oculy aligns, edits and re-exports signal recordings and their
// keypress label logs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bobdethird/oculy-data/config"
	"github.com/bobdethird/oculy-data/session"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

var (
	flags  globalFlags
	conf   config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "oculy",
	Short: "Align, edit and export signal recordings and label logs",
	Long: `oculy reads a six channel signal text file and the keypress label log
recorded alongside it, aligns the labels onto the signal timeline by their
absolute timestamps and writes both back out, optionally cropped, edited or
converted to EDF.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"Log level: debug, info, warn or error (overrides the configuration)")

	rootCmd.AddCommand(inspectCmd, exportCmd, shellCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	conf, err = config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		conf.Log.Level = flags.logLevel
		if err := conf.Validate(); err != nil {
			return err
		}
	}

	logger, err = conf.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func newSession() (*session.Session, error) {
	opts, err := conf.SessionOptions(logger)
	if err != nil {
		return nil, fmt.Errorf("error applying configuration: %w", err)
	}
	return session.New(opts), nil
}
