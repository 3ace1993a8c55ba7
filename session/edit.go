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
	"log/slog"

	"github.com/bobdethird/oculy-data/segment"
)

// Insert adds a labeled segment. Overlapped segments are truncated, split
// or dropped in favour of the new one.
func (s *Session) Insert(seg segment.Segment) error {
	const op = "insert"

	if err := s.checkEditable(op); err != nil {
		return err
	}

	next, err := segment.Insert(s.state.segments, seg, s.EditRange())
	if err != nil {
		return validation(op, err)
	}

	s.state.segments = next
	s.logger.Debug("inserted segment", slog.String("segment", seg.String()), slog.Int("segments", len(next)))
	return nil
}

// QuickAppend proposes an unlabeled segment starting at after. The session
// is not modified; label the proposal and pass it to Insert.
func (s *Session) QuickAppend(after float64) (segment.Segment, error) {
	const op = "append"

	if err := s.checkEditable(op); err != nil {
		return segment.Segment{}, err
	}

	seg, err := segment.QuickAppend(after, s.opts.AppendWidth, s.EditRange())
	if err != nil {
		return segment.Segment{}, validation(op, err)
	}
	return seg, nil
}

// Delete removes the segment at index i.
func (s *Session) Delete(i int) error {
	const op = "delete"

	if err := s.checkEditable(op); err != nil {
		return err
	}

	next, err := segment.Delete(s.state.segments, i)
	if err != nil {
		return validation(op, err)
	}

	removed := s.state.segments[i]
	s.state.segments = next
	s.logger.Debug("deleted segment", slog.String("segment", removed.String()), slog.Int("segments", len(next)))
	return nil
}

// BeginDrag starts moving one boundary of segment i.
func (s *Session) BeginDrag(i int, edge segment.Edge) error {
	const op = "drag"

	if err := s.checkEditable(op); err != nil {
		return err
	}

	d, err := segment.BeginDrag(s.state.segments, i, edge, s.opts.MinWidth, s.EditRange())
	if err != nil {
		return validation(op, err)
	}

	s.drag = d
	s.logger.Debug("drag started", slog.Int("index", i), slog.String("edge", edge.String()), slog.Float64("anchor", d.Anchor))
	return nil
}

// UpdateDrag proposes time t for the dragged boundary and returns where it
// actually landed after clamping.
func (s *Session) UpdateDrag(t float64) (float64, error) {
	const op = "drag"

	d, err := s.drag.Update(t)
	if err != nil {
		return 0, validation(op, err)
	}

	s.drag = d
	return d.Position(), nil
}

// EndDrag commits the dragged boundary.
func (s *Session) EndDrag() error {
	const op = "drag"

	next, d, err := s.drag.End()
	if err != nil {
		return validation(op, err)
	}

	pos := s.drag.Position()
	s.state.segments = next
	s.drag = d
	s.logger.Debug("drag committed", slog.Float64("position", pos))
	return nil
}

// CancelDrag abandons the drag, restoring the segments as they were when
// it began.
func (s *Session) CancelDrag() error {
	const op = "drag"

	if s.drag.Phase != segment.Dragging {
		return validation(op, segment.ErrNotDragging)
	}

	s.state.segments, s.drag = s.drag.Cancel()
	s.logger.Debug("drag cancelled")
	return nil
}

// Dragging reports whether a boundary drag is in progress.
func (s *Session) Dragging() bool {
	return s.drag.Phase == segment.Dragging
}

func (s *Session) checkEditable(op string) error {
	if !s.state.loaded {
		return validation(op, ErrNotLoaded)
	}
	if s.drag.Phase == segment.Dragging {
		return validation(op, ErrDragInProgress)
	}
	return nil
}
