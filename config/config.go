// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config loads the tunables of the oculy tools from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // Zones resolve without a system database.

	"github.com/bobdethird/oculy-data/segment"
	"github.com/bobdethird/oculy-data/session"
	"github.com/bobdethird/oculy-data/signal"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid value")

// Config is the file format. Keys missing from the file keep their
// defaults.
type Config struct {
	Timezone string  `yaml:"timezone"` // IANA zone or Local for header times without an offset
	Display  Display `yaml:"display"`
	Editing  Editing `yaml:"editing"`
	Log      Log     `yaml:"log"`
}

type Display struct {
	Channel     string  `yaml:"channel"`      // Channel whose range is tracked, A1..A6
	Points      int     `yaml:"points"`       // Cap on decimated display samples
	ViewSeconds float64 `yaml:"view_seconds"` // Initial view window length
}

type Editing struct {
	MinWidth    float64 `yaml:"min_width"`    // Narrowest segment a drag may leave
	AppendWidth float64 `yaml:"append_width"` // Width of quick-append proposals
}

type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Timezone: "Local",
		Display: Display{
			Channel:     signal.ChannelName(0),
			Points:      signal.DefaultDisplayPoints,
			ViewSeconds: 10,
		},
		Editing: Editing{
			MinWidth:    segment.DefaultMinWidth,
			AppendWidth: segment.DefaultAppendWidth,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	conf := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Validate checks every field can be turned into session options.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %w", ErrInvalid, c.Timezone, err)
	}
	if _, err := parseChannel(c.Display.Channel); err != nil {
		return err
	}
	if c.Display.Points <= 0 {
		return fmt.Errorf("%w: display.points must be positive, got %d", ErrInvalid, c.Display.Points)
	}
	if c.Display.ViewSeconds <= 0 {
		return fmt.Errorf("%w: display.view_seconds must be positive, got %g", ErrInvalid, c.Display.ViewSeconds)
	}
	if c.Editing.MinWidth <= 0 {
		return fmt.Errorf("%w: editing.min_width must be positive, got %g", ErrInvalid, c.Editing.MinWidth)
	}
	if c.Editing.AppendWidth <= 0 {
		return fmt.Errorf("%w: editing.append_width must be positive, got %g", ErrInvalid, c.Editing.AppendWidth)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// SessionOptions converts the configuration for a session logging to
// logger.
func (c Config) SessionOptions(logger *slog.Logger) (session.Options, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return session.Options{}, fmt.Errorf("%w: timezone %q: %w", ErrInvalid, c.Timezone, err)
	}
	channel, err := parseChannel(c.Display.Channel)
	if err != nil {
		return session.Options{}, err
	}

	return session.Options{
		Location:       loc,
		DisplayChannel: channel,
		DisplayPoints:  c.Display.Points,
		MinWidth:       c.Editing.MinWidth,
		AppendWidth:    c.Editing.AppendWidth,
		ViewSeconds:    c.Display.ViewSeconds,
		Logger:         logger,
	}, nil
}

// Logger returns a logger writing to w at the configured level and format.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.Log.level()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (l Log) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, l.Level)
	}
	return level, nil
}

// parseChannel accepts a channel name such as A3 and returns its index.
func parseChannel(name string) (int, error) {
	for c := 0; c < signal.ChannelCount; c++ {
		if strings.EqualFold(name, signal.ChannelName(c)) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: display.channel must be one of A1..A%d, got %q", ErrInvalid, signal.ChannelCount, name)
}
