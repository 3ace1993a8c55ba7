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
	"cmp"
	"fmt"
	"slices"
)

// Sort orders segs by start, then by end, keeping equal segments in place.
func Sort(segs []Segment) {
	slices.SortStableFunc(segs, func(a, b Segment) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})
}

// Check verifies that every segment has a positive finite width, that the
// list is sorted by start and that neighbours share at most a boundary.
func Check(segs []Segment) error {
	for i, s := range segs {
		if !finite(s.Start) || !finite(s.End) {
			return fmt.Errorf("segment %d: %w", i, ErrNotFinite)
		}
		if s.End <= s.Start {
			return fmt.Errorf("segment %d %s: %w", i, s, ErrDegenerate)
		}
		if i == 0 {
			continue
		}
		prev := segs[i-1]
		if s.Start < prev.Start {
			return fmt.Errorf("segment %d %s: %w", i, s, ErrUnsorted)
		}
		if prev.End > s.Start {
			return fmt.Errorf("segments %d %s and %d %s: %w", i-1, prev, i, s, ErrOverlap)
		}
	}
	return nil
}

// Repair returns a copy of segs that satisfies Check: non-finite and
// degenerate segments are dropped, the list is sorted and a segment that
// runs into its successor is trimmed to end where the successor starts.
// It also returns the number of segments that were dropped or trimmed.
func Repair(segs []Segment) ([]Segment, int) {
	sorted := make([]Segment, 0, len(segs))
	changed := 0
	for _, s := range segs {
		if !finite(s.Start) || !finite(s.End) || s.End <= s.Start {
			changed++
			continue
		}
		sorted = append(sorted, s)
	}
	Sort(sorted)

	out := sorted[:0]
	for _, s := range sorted {
		if n := len(out); n > 0 && out[n-1].End > s.Start {
			out[n-1].End = s.Start
			changed++
			if out[n-1].End <= out[n-1].Start {
				out = out[:n-1]
			}
		}
		out = append(out, s)
	}

	return out, changed
}

// Clip restricts every segment to [lo, hi], dropping segments left with no
// positive width.
func Clip(segs []Segment, lo, hi float64) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		s.Start = max(s.Start, lo)
		s.End = min(s.End, hi)
		if s.End > s.Start {
			out = append(out, s)
		}
	}
	return out
}

// Shift returns a copy of segs with offset subtracted from every boundary.
func Shift(segs []Segment, offset float64) []Segment {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = Segment{Start: s.Start - offset, End: s.End - offset, Label: s.Label}
	}
	return out
}

// IndexAt returns the index of the segment containing t, or -1.
func IndexAt(segs []Segment, t float64) int {
	i, _ := slices.BinarySearchFunc(segs, t, func(s Segment, t float64) int {
		return cmp.Compare(s.Start, t)
	})
	// i is the first segment starting at or after t.
	if i < len(segs) && segs[i].Start == t {
		return i
	}
	if i > 0 && t < segs[i-1].End {
		return i - 1
	}
	return -1
}
