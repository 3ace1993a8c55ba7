// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package session owns the in-memory model of one import, edit and export
// lifecycle: the signal samples, the aligned label segments and the
// metadata of both streams.
//
// Every command either completes and replaces the affected part of the
// model, or fails with an *Error and leaves the model as it was.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/bobdethird/oculy-data/diag"
	"github.com/bobdethird/oculy-data/header"
	"github.com/bobdethird/oculy-data/label"
	"github.com/bobdethird/oculy-data/segment"
	"github.com/bobdethird/oculy-data/signal"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Session is the single mutable aggregate behind the editor. It is not safe
// for concurrent use.
type Session struct {
	id     uuid.UUID
	opts   Options
	logger *slog.Logger

	state state
	drag  segment.DragState
}

// state is everything replaced wholesale by load and crop.
type state struct {
	loaded   bool
	signal   header.Metadata
	labels   header.Metadata
	samples  []signal.Sample
	display  []signal.Sample
	channel  [2]float64 // Display channel min and max
	rng      segment.Range
	view     segment.Range
	segments []segment.Segment
}

// LoadResult summarizes a successful load.
type LoadResult struct {
	Samples           int
	Segments          int
	Range             segment.Range
	SignalDiagnostics diag.List
	LabelDiagnostics  diag.List
}

// New returns an empty session.
func New(opts Options) *Session {
	opts = opts.withDefaults()
	id := uuid.New()
	return &Session{
		id:     id,
		opts:   opts,
		logger: opts.Logger.With(slog.String("session", id.String())),
	}
}

// ID identifies the session in log records.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// LoadFiles reads the signal and label files concurrently and loads them.
// labelPath may be empty when there is no label log.
func (s *Session) LoadFiles(ctx context.Context, signalPath, labelPath string) (LoadResult, error) {
	var signalText, labelText string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := readFile(gctx, signalPath)
		if err != nil {
			return fmt.Errorf("error reading signal file: %w", err)
		}
		signalText = string(b)
		return nil
	})
	if labelPath != "" {
		g.Go(func() error {
			b, err := readFile(gctx, labelPath)
			if err != nil {
				return fmt.Errorf("error reading label file: %w", err)
			}
			labelText = string(b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LoadResult{}, err
	}

	return s.Load(ctx, signalText, labelText)
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Load parses both texts and replaces the session model. Malformed header
// fields and rows are reported in the result diagnostics; the load only
// fails when the signal has no samples.
func (s *Session) Load(ctx context.Context, signalText, labelText string) (LoadResult, error) {
	const op = "load"

	lines := header.SplitLines(signalText)
	hdr, signalDiags := header.Parse(lines, s.opts.Location)
	stream, decodeDiags := signal.Decode(lines, hdr, s.opts.DisplayChannel)
	signalDiags = append(signalDiags, decodeDiags...)
	signalDiags.Log(ctx, s.logger, "signal")

	if len(stream.Samples) == 0 {
		return LoadResult{}, validation(op, ErrNoSamples)
	}

	rng := stream.Range()
	built, labelDiags := label.Build(labelText, label.Alignment{
		Start:    hdr.StartTime,
		Range:    rng,
		Interval: hdr.Interval(),
	}, s.opts.Location)
	labelDiags.Log(ctx, s.logger, "labels")

	next := state{
		loaded:   true,
		signal:   hdr.Metadata,
		labels:   built.Metadata,
		samples:  stream.Samples,
		display:  signal.Decimate(stream.Samples, s.opts.DisplayPoints),
		channel:  [2]float64{stream.Min, stream.Max},
		rng:      rng,
		view:     s.initialView(rng),
		segments: built.Segments,
	}

	s.state = next
	s.drag = segment.DragState{}

	if !hdr.HasStart() {
		s.logger.WarnContext(ctx, "signal has no absolute start time, labels were not aligned")
	}
	s.logger.InfoContext(ctx, "loaded recording",
		slog.Int("samples", len(next.samples)),
		slog.Int("segments", len(next.segments)),
		slog.Float64("duration", rng.Width()),
		slog.Float64("samplingRate", hdr.SamplingRate),
		slog.Int("warnings", signalDiags.Warnings()+labelDiags.Warnings()))

	return LoadResult{
		Samples:           len(next.samples),
		Segments:          len(next.segments),
		Range:             rng,
		SignalDiagnostics: signalDiags,
		LabelDiagnostics:  labelDiags,
	}, nil
}

// Reset discards the model, including any drag in progress.
func (s *Session) Reset() {
	s.state = state{}
	s.drag = segment.DragState{}
	s.logger.Info("session reset")
}

// Loaded reports whether a recording is loaded.
func (s *Session) Loaded() bool {
	return s.state.loaded
}

// Samples returns the full resolution samples. Callers must not modify them.
func (s *Session) Samples() []signal.Sample {
	return s.state.samples
}

// Display returns the decimated samples for plotting.
func (s *Session) Display() []signal.Sample {
	return s.state.display
}

// Segments returns a copy of the current segments. During a drag it
// reflects the latest drag update.
func (s *Session) Segments() []segment.Segment {
	if s.drag.Phase == segment.Dragging {
		return slices.Clone(s.drag.Segments())
	}
	return slices.Clone(s.state.segments)
}

// Range returns the sample time range.
func (s *Session) Range() segment.Range {
	return s.state.rng
}

// EditRange returns the range segment edits must stay within: the sample
// range extended by one sampling interval, as the last sample covers it.
func (s *Session) EditRange() segment.Range {
	if !s.state.loaded {
		return segment.Range{}
	}
	return segment.Range{Min: s.state.rng.Min, Max: s.state.rng.Max + s.state.signal.Interval()}
}

// View returns the display window.
func (s *Session) View() segment.Range {
	return s.state.view
}

// ChannelRange returns the min and max of the display channel.
func (s *Session) ChannelRange() (lo, hi float64) {
	return s.state.channel[0], s.state.channel[1]
}

// SignalMetadata returns the signal stream's metadata.
func (s *Session) SignalMetadata() header.Metadata {
	return s.state.signal
}

// LabelMetadata returns the label stream's metadata.
func (s *Session) LabelMetadata() header.Metadata {
	return s.state.labels
}

func (s *Session) initialView(rng segment.Range) segment.Range {
	return segment.Range{Min: rng.Min, Max: min(rng.Max, rng.Min+s.opts.ViewSeconds)}
}
