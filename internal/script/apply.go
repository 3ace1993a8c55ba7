// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package script

import (
	"fmt"
	"log/slog"

	"github.com/bobdethird/oculy-data/segment"
)

// Editor is the set of session commands a script drives.
type Editor interface {
	Insert(seg segment.Segment) error
	QuickAppend(after float64) (segment.Segment, error)
	Delete(i int) error
	BeginDrag(i int, edge segment.Edge) error
	UpdateDrag(t float64) (float64, error)
	EndDrag() error
	CancelDrag() error
	Crop(start, end float64) error
}

// Apply runs the operations in order and stops at the first failure,
// returning the number of operations applied. Operations before the
// failing one stay applied.
func Apply(ed Editor, s Script, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	for i, op := range s.Ops {
		if err := apply(ed, op); err != nil {
			return i, fmt.Errorf("op %d (%s): %w", i, op.Name(), err)
		}
		logger.Debug("applied edit", slog.Int("op", i), slog.String("action", op.Name()))
	}
	return len(s.Ops), nil
}

func apply(ed Editor, op Op) error {
	switch {
	case op.Insert != nil:
		return ed.Insert(segment.Segment{Start: op.Insert.Start, End: op.Insert.End, Label: op.Insert.Label})

	case op.Append != nil:
		seg, err := ed.QuickAppend(op.Append.After)
		if err != nil {
			return err
		}
		seg.Label = op.Append.Label
		return ed.Insert(seg)

	case op.Drag != nil:
		edge, err := segment.ParseEdge(op.Drag.Edge)
		if err != nil {
			return err
		}
		if err := ed.BeginDrag(op.Drag.Index, edge); err != nil {
			return err
		}
		if _, err := ed.UpdateDrag(op.Drag.To); err != nil {
			_ = ed.CancelDrag()
			return err
		}
		return ed.EndDrag()

	case op.Delete != nil:
		return ed.Delete(*op.Delete)

	case op.Crop != nil:
		return ed.Crop(op.Crop.Start, op.Crop.End)

	default:
		return ErrEmptyOp
	}
}
