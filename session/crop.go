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
	"fmt"
	"log/slog"
	"sort"

	"github.com/bobdethird/oculy-data/segment"
	"github.com/bobdethird/oculy-data/signal"
)

// Crop keeps only the samples within [start, end] and renormalizes the
// timeline so the first kept sample is at time zero. Segments are clipped
// to the kept samples and shifted with them, and both stream start times
// advance by the same offset.
func (s *Session) Crop(start, end float64) error {
	const op = "crop"

	if err := s.checkEditable(op); err != nil {
		return err
	}
	if err := segment.ValidateInterval(start, end, s.state.rng); err != nil {
		return validation(op, err)
	}

	samples := s.state.samples
	lo := sort.Search(len(samples), func(i int) bool { return samples[i].Time >= start })
	hi := sort.Search(len(samples), func(i int) bool { return samples[i].Time > end })
	if lo >= hi {
		return validation(op, fmt.Errorf("%w: [%g, %g]", ErrEmptyCrop, start, end))
	}

	offset := samples[lo].Time
	kept := make([]signal.Sample, hi-lo)
	for i, smp := range samples[lo:hi] {
		smp.Time -= offset
		kept[i] = smp
	}

	// Unlike load and export, segments are bounded by the last kept sample
	// itself, not by the interval it owns.
	extent := segment.Range{Min: samples[lo].Time, Max: samples[hi-1].Time}
	segs := segment.Shift(segment.Clip(s.state.segments, extent.Min, extent.Max), offset)

	rng := signal.Extent(kept)
	chLo, chHi := signal.ChannelExtent(kept, s.opts.DisplayChannel)

	next := state{
		loaded:   true,
		signal:   s.state.signal.Advance(offset),
		labels:   s.state.labels.Advance(offset),
		samples:  kept,
		display:  signal.Decimate(kept, s.opts.DisplayPoints),
		channel:  [2]float64{chLo, chHi},
		rng:      rng,
		view:     s.initialView(rng),
		segments: segs,
	}

	dropped := len(s.state.segments) - len(segs)
	s.state = next

	s.logger.Info("cropped recording",
		slog.Float64("start", start),
		slog.Float64("end", end),
		slog.Float64("offset", offset),
		slog.Int("samples", len(kept)),
		slog.Int("segments", len(segs)),
		slog.Int("droppedSegments", dropped))
	return nil
}
