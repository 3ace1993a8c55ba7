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
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/bobdethird/oculy-data/edf"
	"github.com/bobdethird/oculy-data/label"
	"github.com/bobdethird/oculy-data/segment"
	"github.com/bobdethird/oculy-data/signal"
)

// ExportSignal returns the signal text for the current samples.
func (s *Session) ExportSignal() (string, error) {
	var buf bytes.Buffer
	if err := s.WriteSignal(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteSignal writes the signal text for the current samples to w.
func (s *Session) WriteSignal(w io.Writer) error {
	const op = "export signal"

	if err := s.checkExportable(op); err != nil {
		return err
	}
	if !s.state.signal.HasStart() {
		return alignment(op, ErrNoSignalStart)
	}

	if err := signal.Encode(w, s.state.signal, s.state.samples); err != nil {
		return fmt.Errorf("error exporting signal: %w", err)
	}

	s.logger.Info("exported signal", slog.Int("samples", len(s.state.samples)))
	return nil
}

// ExportLabels returns the label log text for the current segments.
func (s *Session) ExportLabels() (string, error) {
	var buf bytes.Buffer
	if err := s.WriteLabels(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteLabels writes the label log for the current segments to w. Segments
// are first clipped to the samples' coverage.
func (s *Session) WriteLabels(w io.Writer) error {
	const op = "export labels"

	if err := s.checkExportable(op); err != nil {
		return err
	}
	if !s.state.signal.HasStart() {
		return alignment(op, ErrNoSignalStart)
	}
	if !s.state.labels.HasStart() {
		return alignment(op, ErrNoLabelStart)
	}
	if len(s.state.segments) == 0 {
		return validation(op, ErrNoSegments)
	}

	cover := s.EditRange()
	segs := segment.Clip(s.state.segments, cover.Min, cover.Max)
	if len(segs) == 0 {
		return validation(op, ErrNothingInRange)
	}

	if err := label.Encode(w, s.state.labels, s.state.signal.StartTime, segs); err != nil {
		return fmt.Errorf("error exporting labels: %w", err)
	}

	s.logger.Info("exported labels", slog.Int("segments", len(segs)))
	return nil
}

// ExportEDF writes the current samples as an EDF file. The sampling rate
// must be a whole number of samples per second.
func (s *Session) ExportEDF(w io.WriteSeeker) (edf.Header, error) {
	const op = "export edf"

	if err := s.checkExportable(op); err != nil {
		return edf.Header{}, err
	}
	if !s.state.signal.HasStart() {
		return edf.Header{}, alignment(op, ErrNoSignalStart)
	}
	if rate := s.state.signal.SamplingRate; rate != math.Trunc(rate) {
		return edf.Header{}, validation(op, fmt.Errorf("%w: %g Hz", ErrFractionalRate, rate))
	}

	hdr, err := edf.Encode(w, s.state.signal, s.state.samples)
	if err != nil {
		return edf.Header{}, validation(op, err)
	}

	s.logger.Info("exported edf", slog.Int("records", hdr.DataRecords), slog.Int("signals", len(hdr.Signals)))
	return hdr, nil
}

func (s *Session) checkExportable(op string) error {
	if err := s.checkEditable(op); err != nil {
		return err
	}
	if len(s.state.samples) == 0 {
		return validation(op, ErrNoSamples)
	}
	return nil
}
