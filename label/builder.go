// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package label turns keypress label logs into segments on the signal's
// relative timeline and writes segments back out as label logs.
package label

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bobdethird/oculy-data/diag"
	"github.com/bobdethird/oculy-data/header"
	"github.com/bobdethird/oculy-data/segment"
)

const (
	// MinFields is the minimum number of fields in a label row.
	MinFields = 4

	fieldTimestamp = 1
	fieldElapsed   = 2
	fieldLabel     = 3

	// A pause between runs longer than this many typical row spacings is a
	// gap in the log; the runs either side do not touch.
	gapFactor = 1.5
)

// Alignment is the signal timeline the labels are placed on.
type Alignment struct {
	Start    time.Time     // Absolute time of the signal's relative zero
	Range    segment.Range // Signal sample time range
	Interval float64       // Signal sampling interval in seconds
}

// Coverage returns the time span the signal samples cover: each sample owns
// one sampling interval, including the last.
func (a Alignment) Coverage() segment.Range {
	return segment.Range{Min: a.Range.Min, Max: a.Range.Max + a.Interval}
}

// Result is the outcome of Build.
type Result struct {
	Segments []segment.Segment
	Metadata header.Metadata // The label stream's own start time and sampling rate
}

type row struct {
	line  int
	time  float64 // Seconds on the signal timeline
	label string
}

// Build parses a label log and aligns it onto the signal timeline described
// by align. Times without a zone are interpreted in loc.
//
// Empty label text, an unknown signal start or an empty signal range yield
// no segments; the reason is recorded in the diagnostics.
func Build(text string, align Alignment, loc *time.Location) (Result, diag.List) {
	var diags diag.List
	res := Result{Metadata: header.Metadata{SamplingRate: header.DefaultSamplingRate}}

	if strings.TrimSpace(text) == "" {
		diags.Infof("label text is empty, nothing to align")
		return res, diags
	}

	lines := header.SplitLines(text)
	hdr, hdrDiags := header.Parse(lines, loc)
	diags = append(diags, hdrDiags...)
	res.Metadata = hdr.Metadata

	if align.Start.IsZero() {
		diags.Infof("signal start time is unknown, labels cannot be aligned")
		return res, diags
	}
	if align.Range.Max <= align.Range.Min {
		diags.Infof("signal time range %s is empty, nothing to align", align.Range)
		return res, diags
	}

	rows := readRows(lines, hdr, align.Start, &diags)
	segs := encodeRuns(rows, hdr.Interval())

	segs, changed := segment.Repair(segs)
	if changed > 0 {
		diags.Warnf(-1, "", "trimmed or dropped %d label runs that overlapped or had no width", changed)
	}

	coverage := align.Coverage()
	res.Segments = segment.Clip(segs, coverage.Min, coverage.Max)
	if len(segs) > 0 && len(res.Segments) == 0 {
		diags.Warnf(-1, "", "all %d label runs fall outside the signal coverage %s, check the recording time zone",
			len(segs), coverage)
	}
	return res, diags
}

func readRows(lines []string, hdr header.Header, signalStart time.Time, diags *diag.List) []row {
	var rows []row
	for i := hdr.DataStart; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		if len(fields) < MinFields {
			diags.Warnf(i, "", "skipping row with %d fields, expected at least %d", len(fields), MinFields)
			continue
		}

		abs, ok := rowTime(fields, hdr)
		if !ok {
			diags.Warnf(i, "timestamp", "no usable absolute or elapsed time, skipping row")
			continue
		}

		rows = append(rows, row{
			line:  i,
			time:  abs.Sub(signalStart).Seconds(),
			label: fields[fieldLabel],
		})
	}
	return rows
}

// rowTime prefers the absolute millisecond timestamp and falls back to the
// elapsed milliseconds since the recording start.
func rowTime(fields []string, hdr header.Header) (time.Time, bool) {
	if ms, err := strconv.ParseFloat(fields[fieldTimestamp], 64); err == nil && finite(ms) {
		return header.FromMillis(ms), true
	}
	if !hdr.HasStart() {
		return time.Time{}, false
	}
	elapsed, err := strconv.ParseFloat(fields[fieldElapsed], 64)
	if err != nil || !finite(elapsed) {
		return time.Time{}, false
	}
	return hdr.StartTime.Add(header.Seconds(elapsed / 1000)), true
}

// encodeRuns collapses every maximal run of consecutive rows with the same
// label into one segment, however unevenly the rows are spaced. A run reaches
// the first row of the next run, unless the log pauses for longer than
// gapFactor typical row spacings there, in which case it covers one label
// sampling interval past its last row. The final run does the same.
func encodeRuns(rows []row, interval float64) []segment.Segment {
	gap := gapFactor * rowSpacing(rows, interval)

	var segs []segment.Segment
	for i := 0; i < len(rows); {
		j := i
		for j+1 < len(rows) && rows[j+1].label == rows[i].label {
			j++
		}

		start, last := rows[i].time, rows[j].time
		end := last + interval
		if j+1 < len(rows) && rows[j+1].time-last <= gap {
			end = rows[j+1].time
		}
		if end <= start {
			end = start + interval
		}

		segs = append(segs, segment.Segment{Start: start, End: end, Label: rows[i].label})
		i = j + 1
	}
	return segs
}

// rowSpacing returns the median positive spacing between consecutive rows,
// or fallback when there is none. Logs without a rate line report the
// default rate, so the rows themselves are the better measure of cadence.
func rowSpacing(rows []row, fallback float64) float64 {
	var steps []float64
	for i := 1; i < len(rows); i++ {
		if d := rows[i].time - rows[i-1].time; d > 0 {
			steps = append(steps, d)
		}
	}
	if len(steps) == 0 {
		return fallback
	}
	slices.Sort(steps)
	return max(steps[len(steps)/2], fallback)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
