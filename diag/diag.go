// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package diag collects the problems tolerant parsers recover from, so
// callers can inspect exactly which rows and fields were skipped or
// defaulted.
package diag

import (
	"context"
	"fmt"
	"log/slog"
)

type Severity int

const (
	// Info records an expected condition worth reporting (e.g. nothing to align yet).
	Info Severity = iota
	// Warning records a defaulted or skipped field or row.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic describes one recovered problem.
type Diagnostic struct {
	Severity Severity
	Line     int    // Zero-based line index in the source text, -1 if not line specific
	Field    string // Field or column name, empty if the whole row/line is concerned
	Message  string
}

func (d Diagnostic) String() string {
	loc := ""
	if d.Line >= 0 {
		loc = fmt.Sprintf("line %d: ", d.Line+1)
	}
	if d.Field != "" {
		loc += d.Field + ": "
	}
	return fmt.Sprintf("%s: %s%s", d.Severity, loc, d.Message)
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Warnf appends a warning for the given line and field.
func (l *List) Warnf(line int, field, format string, args ...any) {
	*l = append(*l, Diagnostic{Severity: Warning, Line: line, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Infof appends an informational entry that is not tied to a line.
func (l *List) Infof(format string, args ...any) {
	*l = append(*l, Diagnostic{Severity: Info, Line: -1, Message: fmt.Sprintf(format, args...)})
}

// Warnings returns the number of warning entries.
func (l List) Warnings() int {
	n := 0
	for _, d := range l {
		if d.Severity == Warning {
			n++
		}
	}
	return n
}

// Log emits every diagnostic to logger, warnings at warn level and the
// rest at debug level.
func (l List) Log(ctx context.Context, logger *slog.Logger, source string) {
	if logger == nil {
		return
	}
	for _, d := range l {
		level := slog.LevelDebug
		if d.Severity == Warning {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, d.Message,
			slog.String("source", source),
			slog.Int("line", d.Line+1),
			slog.String("field", d.Field))
	}
}
