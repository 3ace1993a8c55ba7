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
	"errors"
	"fmt"
)

// Kind classifies command failures.
type Kind int

const (
	// KindValidation is an invalid request: bad range, label, index or a
	// command that does not apply to the current state.
	KindValidation Kind = iota + 1
	// KindAlignment is missing absolute time metadata that no default can
	// replace.
	KindAlignment
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAlignment:
		return "alignment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrNotLoaded      = errors.New("session: no recording loaded")
	ErrNoSamples      = errors.New("session: signal contains no samples")
	ErrNoSegments     = errors.New("session: no segments to export")
	ErrNothingInRange = errors.New("session: no segments within the sample range")
	ErrEmptyCrop      = errors.New("session: crop range contains no samples")
	ErrDragInProgress = errors.New("session: a boundary drag is in progress")
	ErrNoSignalStart  = errors.New("session: signal start time is unknown")
	ErrNoLabelStart   = errors.New("session: label start time is unknown")
	ErrFractionalRate = errors.New("session: EDF export needs an integer sampling rate")
)

// Error is a failed session command. The session state is unchanged.
type Error struct {
	Kind Kind
	Op   string // Command that failed
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a session error, or 0 if err is not one.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func validation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func alignment(op string, err error) error {
	return &Error{Kind: KindAlignment, Op: op, Err: err}
}
