// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package segment

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

const (
	// DefaultMinWidth is the minimum separation kept between boundaries during a drag.
	DefaultMinWidth = 0.01
	// DefaultAppendWidth is the width proposed by QuickAppend.
	DefaultAppendWidth = 0.2
)

var (
	// ErrEmptyInterval indicates start is not strictly before end.
	ErrEmptyInterval = errors.New("segment: start must be before end")
	// ErrOutOfRange indicates a time outside the valid range.
	ErrOutOfRange = errors.New("segment: time outside the valid range")
	// ErrNotFinite indicates a NaN or infinite time.
	ErrNotFinite = errors.New("segment: time must be finite")
	// ErrEmptyLabel indicates a missing label.
	ErrEmptyLabel = errors.New("segment: label must not be empty")
	// ErrLabelWhitespace indicates a label that cannot be written as a single token.
	ErrLabelWhitespace = errors.New("segment: label must not contain whitespace")
	// ErrIndex indicates a segment index outside the list.
	ErrIndex = errors.New("segment: index out of range")
	// ErrEdge indicates an unknown segment edge.
	ErrEdge = errors.New("segment: unknown edge")
	// ErrNoRoom indicates that no segment of positive width fits.
	ErrNoRoom = errors.New("segment: no room for a new segment")
	// ErrNotDragging indicates a drag update without a drag in progress.
	ErrNotDragging = errors.New("segment: no drag in progress")

	// ErrDegenerate indicates a segment whose end does not exceed its start.
	ErrDegenerate = errors.New("segment: segment has no positive width")
	// ErrUnsorted indicates a list not sorted by start.
	ErrUnsorted = errors.New("segment: segments are not sorted")
	// ErrOverlap indicates two segments sharing more than a boundary.
	ErrOverlap = errors.New("segment: segments overlap")
)

// Range is a closed time range [Min, Max] in seconds.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether t lies within the range.
func (r Range) Contains(t float64) bool {
	return t >= r.Min && t <= r.Max
}

// Width returns Max - Min.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Segment is a labeled half-open interval [Start, End) on the relative
// time axis.
type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Label string  `json:"label" yaml:"label"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Overlaps reports whether s and o share more than a boundary.
func (s Segment) Overlaps(o Segment) bool {
	return s.Start < o.End && o.Start < s.End
}

func (s Segment) String() string {
	return fmt.Sprintf("[%g, %g) %s", s.Start, s.End, s.Label)
}

// Edge selects one boundary of a segment.
type Edge int

const (
	StartEdge Edge = iota
	EndEdge
)

func (e Edge) String() string {
	switch e {
	case StartEdge:
		return "start"
	case EndEdge:
		return "end"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

// ParseEdge parses "start" or "end".
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return StartEdge, nil
	case "end":
		return EndEdge, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrEdge, s)
	}
}

// ValidateLabel checks that label is a single non-empty token.
func ValidateLabel(label string) error {
	if label == "" {
		return ErrEmptyLabel
	}
	if strings.IndexFunc(label, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrLabelWhitespace, label)
	}
	return nil
}

// ValidateInterval checks that [start, end) is a finite, non-empty
// interval inside valid.
func ValidateInterval(start, end float64, valid Range) error {
	if !finite(start) || !finite(end) {
		return ErrNotFinite
	}
	if start >= end {
		return fmt.Errorf("%w: [%g, %g)", ErrEmptyInterval, start, end)
	}
	if !valid.Contains(start) || !valid.Contains(end) {
		return fmt.Errorf("%w: [%g, %g) not within %s", ErrOutOfRange, start, end, valid)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
