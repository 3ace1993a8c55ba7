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

// Phase is the state of a boundary drag gesture.
type Phase int

const (
	Idle Phase = iota
	Dragging
)

func (p Phase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

// DragState tracks one boundary drag gesture: Idle, then Dragging from
// BeginDrag until End or Cancel. Every Update is computed from the list
// captured by BeginDrag, so the result depends only on the state and the
// proposed time, never on the sequence of earlier updates.
//
// The zero value is Idle.
type DragState struct {
	Phase  Phase
	Index  int     // Segment being dragged
	Edge   Edge    // Boundary being dragged
	Anchor float64 // Boundary position when the gesture began

	minWidth float64
	valid    Range
	base     []Segment // List at BeginDrag
	current  []Segment // List after the latest Update
}

// BeginDrag starts dragging the given boundary of segment i.
func BeginDrag(segs []Segment, i int, edge Edge, minWidth float64, valid Range) (DragState, error) {
	if i < 0 || i >= len(segs) {
		return DragState{}, fmt.Errorf("%w: %d of %d", ErrIndex, i, len(segs))
	}
	if edge != StartEdge && edge != EndEdge {
		return DragState{}, fmt.Errorf("%w: %d", ErrEdge, int(edge))
	}
	if err := Check(segs); err != nil {
		return DragState{}, err
	}

	anchor := segs[i].Start
	if edge == EndEdge {
		anchor = segs[i].End
	}

	base := slices.Clone(segs)
	return DragState{
		Phase:    Dragging,
		Index:    i,
		Edge:     edge,
		Anchor:   anchor,
		minWidth: minWidth,
		valid:    valid,
		base:     base,
		current:  base,
	}, nil
}

// Update returns the state with the dragged boundary proposed at t.
func (d DragState) Update(t float64) (DragState, error) {
	if d.Phase != Dragging {
		return d, ErrNotDragging
	}

	next, err := Drag(d.base, d.Index, d.Edge, t, d.minWidth, d.valid)
	if err != nil {
		return d, err
	}
	d.current = next
	return d, nil
}

// Position returns the current position of the dragged boundary.
func (d DragState) Position() float64 {
	if d.Phase != Dragging {
		return 0
	}
	if d.Edge == StartEdge {
		return d.current[d.Index].Start
	}
	return d.current[d.Index].End
}

// Segments returns the list as it currently appears during the gesture.
func (d DragState) Segments() []Segment {
	return d.current
}

// End commits the gesture, returning the final list and an Idle state.
func (d DragState) End() ([]Segment, DragState, error) {
	if d.Phase != Dragging {
		return nil, DragState{}, ErrNotDragging
	}
	return d.current, DragState{}, nil
}

// Cancel abandons the gesture, returning the list as it was at BeginDrag
// and an Idle state.
func (d DragState) Cancel() ([]Segment, DragState) {
	return d.base, DragState{}
}
