// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package signal

import "github.com/bobdethird/oculy-data/segment"

const (
	// ChannelCount is the number of analog channels per row.
	ChannelCount = 6
	// FieldCount is the number of whitespace separated fields in a data row.
	FieldCount = 11
	// FirstChannelField is the index of the first analog channel in a row.
	FirstChannelField = FieldCount - ChannelCount
	// DefaultDisplayPoints caps the decimated display subsequence.
	DefaultDisplayPoints = 10000
)

// Sample is one instant of the signal stream.
type Sample struct {
	Time     float64               // Seconds since the first sample of the current window
	Channels [ChannelCount]float64 // Analog channel readings A1..A6
}

// Stream is a decoded signal with the extent of its display channel.
type Stream struct {
	Samples []Sample // Full resolution, authoritative for export and cropping
	Channel int      // Index of the display channel
	Min     float64  // Minimum of the display channel
	Max     float64  // Maximum of the display channel
}

// Range returns the time extent of the stream.
func (s Stream) Range() segment.Range {
	return Extent(s.Samples)
}

// Extent returns the [first, last] sample time range, or the zero range if
// there are no samples.
func Extent(samples []Sample) segment.Range {
	if len(samples) == 0 {
		return segment.Range{}
	}
	return segment.Range{Min: samples[0].Time, Max: samples[len(samples)-1].Time}
}

// ChannelExtent returns the minimum and maximum of one channel over samples.
func ChannelExtent(samples []Sample, channel int) (lo, hi float64) {
	for i, s := range samples {
		v := s.Channels[channel]
		if i == 0 || v < lo {
			lo = v
		}
		if i == 0 || v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Decimate returns every k-th sample so that the result holds at most
// limit points. The input slice is never modified.
func Decimate(samples []Sample, limit int) []Sample {
	if limit <= 0 || len(samples) <= limit {
		return samples[:len(samples):len(samples)]
	}

	step := (len(samples) + limit - 1) / limit
	out := make([]Sample, 0, (len(samples)+step-1)/step)
	for i := 0; i < len(samples); i += step {
		out = append(out, samples[i])
	}
	return out
}
