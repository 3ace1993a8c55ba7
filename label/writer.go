// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package label

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bobdethird/oculy-data/header"
	"github.com/bobdethird/oculy-data/segment"
)

var (
	// ErrNoStartTime is returned when the label stream has no absolute start time.
	ErrNoStartTime = errors.New("label: label stream start time is unknown")
	// ErrNoAnchor is returned when the signal start time used for alignment is unknown.
	ErrNoAnchor = errors.New("label: signal start time is unknown")
)

// Writer writes label logs with one synthesized row per label sampling
// interval of each segment.
type Writer struct {
	w        *bufio.Writer
	meta     header.Metadata
	rows     int     // Number of rows written so far.
	anchorMs int64   // Whole epoch milliseconds of anchor
	fracMs   float64 // Sub-millisecond part of anchor
	offsetMs float64 // anchor minus the label stream start, in milliseconds
}

// Create writes the label header for meta and returns a writer placing
// segments relative to anchor, the absolute time of the signal's relative
// zero.
func Create(w io.Writer, meta header.Metadata, anchor time.Time) (*Writer, error) {
	if !meta.HasStart() {
		return nil, ErrNoStartTime
	}
	if anchor.IsZero() {
		return nil, ErrNoAnchor
	}

	lw := &Writer{
		w:        bufio.NewWriter(w),
		meta:     meta,
		anchorMs: anchor.UnixMilli(),
		fracMs:   float64(anchor.Nanosecond()%int(time.Millisecond)) / 1e6,
		offsetMs: float64(anchor.Sub(meta.StartTime)) / float64(time.Millisecond),
	}
	if err := lw.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return lw, nil
}

// WriteSegment writes max(1, ceil(duration / interval)) rows for s.
func (lw *Writer) WriteSegment(s segment.Segment) error {
	intervalMs := 1000 / lw.meta.SamplingRate
	durationMs := (s.End - s.Start) * 1000
	n := max(1, int(math.Ceil(durationMs/intervalMs-1e-9)))

	for i := 0; i < n; i++ {
		relMs := s.Start*1000 + float64(i)*intervalMs
		_, err := fmt.Fprintf(lw.w, "%d %s %s %s\n",
			lw.rows,
			formatEpochMillis(lw.anchorMs, lw.fracMs+relMs),
			formatMillis(lw.offsetMs+relMs),
			s.Label)
		if err != nil {
			return err
		}
		lw.rows++
	}

	return nil
}

// Close flushes buffered rows to the underlying writer.
func (lw *Writer) Close() error {
	return lw.w.Flush()
}

// Encode writes a complete label log for segs.
func Encode(w io.Writer, meta header.Metadata, anchor time.Time, segs []segment.Segment) error {
	lw, err := Create(w, meta, anchor)
	if err != nil {
		return err
	}

	for _, s := range segs {
		if err := lw.WriteSegment(s); err != nil {
			return fmt.Errorf("error writing segment: %w", err)
		}
	}

	return lw.Close()
}

func (lw *Writer) writeHeader() error {
	_, err := fmt.Fprintf(lw.w, "%s Recording started: %s\n%s Sampling rate: %s Hz\n%s\n",
		header.CommentMarker, lw.meta.StartTime.Format("2006-01-02 15:04:05.000"),
		header.CommentMarker, strconv.FormatFloat(lw.meta.SamplingRate, 'f', -1, 64),
		header.EndOfHeader)
	return err
}

// formatEpochMillis formats base + offset milliseconds. The epoch part is
// kept as an integer so the fraction does not lose precision.
func formatEpochMillis(base int64, offset float64) string {
	offset = math.Round(offset*1000) / 1000
	whole := math.Floor(offset)
	s := strconv.FormatInt(base+int64(whole), 10)
	return s + strings.TrimPrefix(formatMillis(offset-whole), "0")
}

// formatMillis formats v with at most three decimals and no trailing zeros.
func formatMillis(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s
}
