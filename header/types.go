// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package header

import (
	"math"
	"time"
)

const (
	// CommentMarker prefixes every header line.
	CommentMarker = "#"
	// EndOfHeader is the sentinel line terminating the header.
	EndOfHeader = "# EndOfHeader"
	// DefaultSamplingRate is used when no header line carries a usable rate.
	DefaultSamplingRate = 1000.0
)

// Metadata describes the time origin of one recorded stream.
type Metadata struct {
	StartTime    time.Time // Absolute wall-clock time of the first row, zero if unknown
	SamplingRate float64   // Rows per second, always > 0
	DeviceID     string    // Device identifier, empty if unknown
}

// HasStart reports whether the absolute start time is known.
func (m Metadata) HasStart() bool {
	return !m.StartTime.IsZero()
}

// StartMillis returns the absolute start as fractional epoch milliseconds.
func (m Metadata) StartMillis() float64 {
	return float64(m.StartTime.UnixMilli()) + float64(m.StartTime.Nanosecond()%int(time.Millisecond))/1e6
}

// Interval returns the sampling interval in seconds.
func (m Metadata) Interval() float64 {
	return 1 / m.SamplingRate
}

// Advance returns a copy whose start time is moved forward by the given
// number of seconds. An unknown start stays unknown.
func (m Metadata) Advance(seconds float64) Metadata {
	if m.HasStart() {
		m.StartTime = m.StartTime.Add(Seconds(seconds))
	}
	return m
}

// Header is the parsed header of either file type.
type Header struct {
	Metadata
	DataStart int // Index of the first line after the header
}

// Seconds converts fractional seconds to a duration rounded to the nanosecond.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// FromMillis converts fractional epoch milliseconds to a time.
func FromMillis(ms float64) time.Time {
	whole := math.Floor(ms)
	return time.UnixMilli(int64(whole)).Add(time.Duration(math.Round((ms - whole) * 1e6)))
}
