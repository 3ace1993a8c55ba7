// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package session

import (
	"log/slog"
	"time"

	"github.com/bobdethird/oculy-data/segment"
	"github.com/bobdethird/oculy-data/signal"
)

// Options tunes a session. Zero fields take the defaults below.
type Options struct {
	Location       *time.Location // Zone for header times without an offset (time.Local)
	DisplayChannel int            // Channel whose min/max is tracked (0)
	DisplayPoints  int            // Cap on the decimated display samples (10,000)
	MinWidth       float64        // Minimum segment width kept by drags (0.01 s)
	AppendWidth    float64        // Width proposed by QuickAppend (0.2 s)
	ViewSeconds    float64        // Length of the view window after load and crop (10 s)
	Logger         *slog.Logger   // Destination for diagnostics and command logs (slog.Default)
}

// DefaultOptions returns the options used for zero fields.
func DefaultOptions() Options {
	return Options{
		Location:      time.Local,
		DisplayPoints: signal.DefaultDisplayPoints,
		MinWidth:      segment.DefaultMinWidth,
		AppendWidth:   segment.DefaultAppendWidth,
		ViewSeconds:   10,
		Logger:        slog.Default(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Location == nil {
		o.Location = def.Location
	}
	if o.DisplayChannel < 0 || o.DisplayChannel >= signal.ChannelCount {
		o.DisplayChannel = def.DisplayChannel
	}
	if o.DisplayPoints <= 0 {
		o.DisplayPoints = def.DisplayPoints
	}
	if o.MinWidth <= 0 {
		o.MinWidth = def.MinWidth
	}
	if o.AppendWidth <= 0 {
		o.AppendWidth = def.AppendWidth
	}
	if o.ViewSeconds <= 0 {
		o.ViewSeconds = def.ViewSeconds
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	return o
}
