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
	"fmt"
	"slices"
)

// Insert adds s to segs. The inserted range wins: existing segments it
// covers are dropped, segments overlapping one side are truncated and a
// segment strictly containing s is split in two around it.
//
// On error the input list is returned unchanged. The input is never
// modified.
func Insert(segs []Segment, s Segment, valid Range) ([]Segment, error) {
	if err := ValidateInterval(s.Start, s.End, valid); err != nil {
		return segs, err
	}
	if err := ValidateLabel(s.Label); err != nil {
		return segs, err
	}

	out := make([]Segment, 0, len(segs)+2)
	for _, e := range segs {
		switch {
		case !e.Overlaps(s):
			out = append(out, e)
		case s.Start <= e.Start && e.End <= s.End:
			// Covered.
		case e.Start < s.Start && e.End > s.End:
			out = append(out,
				Segment{Start: e.Start, End: s.Start, Label: e.Label},
				Segment{Start: s.End, End: e.End, Label: e.Label})
		case e.Start < s.Start:
			e.End = s.Start
			out = append(out, e)
		default:
			e.Start = s.End
			out = append(out, e)
		}
	}
	out = append(out, s)
	Sort(out)

	if err := Check(out); err != nil {
		return segs, err
	}
	return out, nil
}

// Delete removes the segment at index i. Neighbouring boundaries are left
// alone, so deleting may open a gap.
func Delete(segs []Segment, i int) ([]Segment, error) {
	if i < 0 || i >= len(segs) {
		return segs, fmt.Errorf("%w: %d of %d", ErrIndex, i, len(segs))
	}
	return slices.Delete(slices.Clone(segs), i, i+1), nil
}

// QuickAppend proposes an unlabeled segment starting at after, width
// seconds long and clamped to end within valid. The caller assigns a label
// and passes the result to Insert.
func QuickAppend(after, width float64, valid Range) (Segment, error) {
	if !finite(after) || !finite(width) {
		return Segment{}, ErrNotFinite
	}
	if !valid.Contains(after) {
		return Segment{}, fmt.Errorf("%w: %g not within %s", ErrOutOfRange, after, valid)
	}

	end := min(after+width, valid.Max)
	if end <= after {
		return Segment{}, fmt.Errorf("%w: after %g", ErrNoRoom, after)
	}

	return Segment{Start: after, End: end}, nil
}

// Drag moves one boundary of segment i to t and returns the new list.
// The adjacent segment's matching boundary moves with it, so the two stay
// contiguous. t is clamped so that no segment involved becomes narrower
// than minWidth, and the outermost boundaries stay within valid. When no
// position satisfies the clamp the list is returned unchanged.
func Drag(segs []Segment, i int, edge Edge, t, minWidth float64, valid Range) ([]Segment, error) {
	if i < 0 || i >= len(segs) {
		return segs, fmt.Errorf("%w: %d of %d", ErrIndex, i, len(segs))
	}
	if !finite(t) {
		return segs, ErrNotFinite
	}

	lo, hi, err := dragBounds(segs, i, edge, minWidth, valid)
	if err != nil {
		return segs, err
	}
	if lo > hi {
		return slices.Clone(segs), nil
	}
	v := min(max(t, lo), hi)

	out := slices.Clone(segs)
	switch edge {
	case StartEdge:
		out[i].Start = v
		if i > 0 {
			out[i-1].End = v
		}
	case EndEdge:
		out[i].End = v
		if i < len(out)-1 {
			out[i+1].Start = v
		}
	}

	if err := Check(out); err != nil {
		return segs, err
	}
	return out, nil
}

// dragBounds returns the interval a boundary of segment i may move in.
func dragBounds(segs []Segment, i int, edge Edge, minWidth float64, valid Range) (lo, hi float64, err error) {
	s := segs[i]
	switch edge {
	case StartEdge:
		lo, hi = valid.Min, s.End-minWidth
		if i > 0 {
			lo = max(lo, segs[i-1].Start+minWidth)
		}
	case EndEdge:
		lo, hi = s.Start+minWidth, valid.Max
		if i < len(segs)-1 {
			hi = min(hi, segs[i+1].End-minWidth)
		}
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrEdge, int(edge))
	}
	return lo, hi, nil
}
