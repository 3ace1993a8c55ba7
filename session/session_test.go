// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package session_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobdethird/oculy-data/edf"
	"github.com/bobdethird/oculy-data/header"
	"github.com/bobdethird/oculy-data/segment"
	"github.com/bobdethird/oculy-data/session"
	"github.com/bobdethird/oculy-data/signal"
	"github.com/stretchr/testify/suite"
)

var signalStart = time.Date(2024, 3, 5, 14, 2, 31, 125*int(time.Millisecond), time.UTC)

// signalFile renders n rows at rate Hz. A zero start omits the date and time.
func signalFile(start time.Time, rate float64, n int) string {
	var sb strings.Builder
	sb.WriteString("# OpenSignals Text File Format. Version 1\n")
	if start.IsZero() {
		fmt.Fprintf(&sb, "# {\"98:D3:91:FD:40:5A\": {\"sampling rate\": %g}}\n", rate)
	} else {
		fmt.Fprintf(&sb, "# {\"98:D3:91:FD:40:5A\": {\"sampling rate\": %g, \"date\": %q, \"time\": %q}}\n",
			rate, start.Format("2006-01-02"), start.Format("15:04:05.000"))
	}
	sb.WriteString("# EndOfHeader\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d\t0\t0\t0\t0\t%g\t%g\t%g\t%g\t%g\t%g\n",
			i%16, float64(i%50)/10, float64(i), -float64(i), 0.5, 1.25, float64(i%7))
	}
	return sb.String()
}

type labelRow struct {
	offsetMs int64 // Relative to signalStart
	label    string
}

// labelFile renders a label log whose own start is labelStart.
func labelFile(labelStart time.Time, rate int, rows ...labelRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Recording started: %s\n", labelStart.Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(&sb, "# Sampling rate: %d Hz\n", rate)
	sb.WriteString("# EndOfHeader\n")
	base := signalStart.UnixMilli()
	elapsedBase := signalStart.Sub(labelStart).Milliseconds()
	for i, r := range rows {
		fmt.Fprintf(&sb, "%d %d %d %s\n", i, base+r.offsetMs, elapsedBase+r.offsetMs, r.label)
	}
	return sb.String()
}

// runs renders one row every intervalMs over [fromMs, toMs).
func runs(intervalMs int64, spans ...labelRow) []labelRow {
	var rows []labelRow
	for i := 0; i+1 < len(spans); i += 2 {
		for t := spans[i].offsetMs; t < spans[i+1].offsetMs; t += intervalMs {
			rows = append(rows, labelRow{offsetMs: t, label: spans[i].label})
		}
	}
	return rows
}

type SessionSuite struct {
	suite.Suite
	ctx context.Context
	s   *session.Session
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.s = session.New(session.Options{
		Location: time.UTC,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// loadStandard loads 2 s at 1000 Hz with labels a [0, 0.5), b [0.5, 0.8)
// and c [1.2, 1.5), logged at 100 Hz from 250 ms before the signal.
func (s *SessionSuite) loadStandard() {
	rows := runs(10,
		labelRow{0, "a"}, labelRow{500, ""},
		labelRow{500, "b"}, labelRow{800, ""},
		labelRow{1200, "c"}, labelRow{1500, ""})
	labels := labelFile(signalStart.Add(-250*time.Millisecond), 100, rows...)

	res, err := s.s.Load(s.ctx, signalFile(signalStart, 1000, 2000), labels)
	s.Require().NoError(err)
	s.Require().Equal(2000, res.Samples)
	s.Require().Equal(3, res.Segments)
}

func (s *SessionSuite) assertSegments(expected, actual []segment.Segment) {
	s.Require().Len(actual, len(expected))
	for i := range expected {
		s.Equal(expected[i].Label, actual[i].Label, "segment %d", i)
		s.InDelta(expected[i].Start, actual[i].Start, 1e-9, "segment %d start", i)
		s.InDelta(expected[i].End, actual[i].End, 1e-9, "segment %d end", i)
	}
}

func (s *SessionSuite) assertValid() {
	s.NoError(segment.Check(s.s.Segments()))
	r := s.s.EditRange()
	for _, seg := range s.s.Segments() {
		s.True(r.Contains(seg.Start) && r.Contains(seg.End), "%s outside %s", seg, r)
	}
}

func (s *SessionSuite) TestLoad() {
	s.loadStandard()

	s.True(s.s.Loaded())
	s.Len(s.s.Samples(), 2000)
	s.Equal(segment.Range{Min: 0, Max: 1.999}, s.s.Range())
	s.Equal(segment.Range{Min: 0, Max: 1.999}, s.s.View())
	s.InDelta(2.0, s.s.EditRange().Max, 1e-12)

	lo, hi := s.s.ChannelRange()
	s.Equal(0.0, lo)
	s.Equal(4.9, hi)

	s.Equal(signalStart, s.s.SignalMetadata().StartTime)
	s.Equal("98:D3:91:FD:40:5A", s.s.SignalMetadata().DeviceID)
	s.Equal(signalStart.Add(-250*time.Millisecond), s.s.LabelMetadata().StartTime)
	s.Equal(100.0, s.s.LabelMetadata().SamplingRate)

	s.assertSegments([]segment.Segment{
		{Start: 0, End: 0.5, Label: "a"},
		{Start: 0.5, End: 0.8, Label: "b"},
		{Start: 1.2, End: 1.5, Label: "c"},
	}, s.s.Segments())
	s.assertValid()
}

func (s *SessionSuite) TestLoadThreeRowScenario() {
	labels := labelFile(signalStart, 1000,
		labelRow{0, "up"}, labelRow{1, "up"}, labelRow{2, "down"})

	_, err := s.s.Load(s.ctx, signalFile(signalStart, 1000, 3), labels)
	s.Require().NoError(err)

	s.Equal([]segment.Segment{
		{Start: 0, End: 0.002, Label: "up"},
		{Start: 0.002, End: 0.003, Label: "down"},
	}, s.s.Segments())
}

func (s *SessionSuite) TestLoadDecimatesDisplay() {
	s.s = session.New(session.Options{
		Location:       time.UTC,
		DisplayPoints:  100,
		DisplayChannel: 1,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	_, err := s.s.Load(s.ctx, signalFile(signalStart, 1000, 1000), "")
	s.Require().NoError(err)

	s.Len(s.s.Display(), 100)
	s.Len(s.s.Samples(), 1000)
	s.Empty(s.s.Segments())

	lo, hi := s.s.ChannelRange()
	s.Equal(0.0, lo)
	s.Equal(999.0, hi)
}

func (s *SessionSuite) TestLoadWithoutSignalStart() {
	labels := labelFile(signalStart, 100, labelRow{0, "a"})

	res, err := s.s.Load(s.ctx, signalFile(time.Time{}, 1000, 10), labels)
	s.Require().NoError(err)

	s.Empty(s.s.Segments())
	s.Require().Len(res.LabelDiagnostics, 1)
	s.False(s.s.SignalMetadata().HasStart())
}

func (s *SessionSuite) TestLoadRejectsEmptySignal() {
	s.loadStandard()
	before := s.s.Segments()

	_, err := s.s.Load(s.ctx, "# EndOfHeader\n1 2 3\n", "")
	s.ErrorIs(err, session.ErrNoSamples)
	s.Equal(session.KindValidation, session.KindOf(err))

	// The previous recording is kept.
	s.Len(s.s.Samples(), 2000)
	s.Equal(before, s.s.Segments())
}

func (s *SessionSuite) TestLoadReportsDiagnostics() {
	text := signalFile(signalStart, 1000, 5) + "1 2 3\n"

	res, err := s.s.Load(s.ctx, text, "")
	s.Require().NoError(err)
	s.Equal(5, res.Samples)
	s.Require().Len(res.SignalDiagnostics, 1)
	s.Equal(8, res.SignalDiagnostics[0].Line)
}

func (s *SessionSuite) TestLoadFiles() {
	dir := s.T().TempDir()
	signalPath := filepath.Join(dir, "signal.txt")
	labelPath := filepath.Join(dir, "labels.txt")

	s.Require().NoError(os.WriteFile(signalPath, []byte(signalFile(signalStart, 1000, 100)), 0o644))
	s.Require().NoError(os.WriteFile(labelPath, []byte(labelFile(signalStart, 100, labelRow{0, "a"}, labelRow{10, "a"})), 0o644))

	res, err := s.s.LoadFiles(s.ctx, signalPath, labelPath)
	s.Require().NoError(err)
	s.Equal(100, res.Samples)
	s.Equal(1, res.Segments)

	res, err = s.s.LoadFiles(s.ctx, signalPath, "")
	s.Require().NoError(err)
	s.Equal(0, res.Segments)

	_, err = s.s.LoadFiles(s.ctx, filepath.Join(dir, "missing.txt"), labelPath)
	s.ErrorIs(err, os.ErrNotExist)
	s.Equal(100, len(s.s.Samples()))
}

func (s *SessionSuite) TestNotLoaded() {
	err := s.s.Insert(segment.Segment{Start: 0, End: 1, Label: "x"})
	s.ErrorIs(err, session.ErrNotLoaded)

	s.ErrorIs(s.s.Crop(0, 1), session.ErrNotLoaded)
	s.ErrorIs(s.s.Delete(0), session.ErrNotLoaded)

	_, err = s.s.ExportSignal()
	s.ErrorIs(err, session.ErrNotLoaded)
	s.Equal(session.KindValidation, session.KindOf(err))
}

func (s *SessionSuite) TestInsertSplitsContainingSegment() {
	_, err := s.s.Load(s.ctx, signalFile(signalStart, 10, 51), "")
	s.Require().NoError(err)

	s.Require().NoError(s.s.Insert(segment.Segment{Start: 0.5, End: 3.0, Label: "Y"}))
	s.Require().NoError(s.s.Insert(segment.Segment{Start: 1.0, End: 2.0, Label: "X"}))

	s.Equal([]segment.Segment{
		{Start: 0.5, End: 1.0, Label: "Y"},
		{Start: 1.0, End: 2.0, Label: "X"},
		{Start: 2.0, End: 3.0, Label: "Y"},
	}, s.s.Segments())
}

func (s *SessionSuite) TestInsertRejects() {
	s.loadStandard()
	before := s.s.Segments()

	tests := []struct {
		name string
		seg  segment.Segment
		err  error
	}{
		{"empty", segment.Segment{Start: 1, End: 1, Label: "x"}, segment.ErrEmptyInterval},
		{"reversed", segment.Segment{Start: 1.5, End: 1, Label: "x"}, segment.ErrEmptyInterval},
		{"outside", segment.Segment{Start: 1.5, End: 2.5, Label: "x"}, segment.ErrOutOfRange},
		{"no label", segment.Segment{Start: 1, End: 1.1}, segment.ErrEmptyLabel},
	}

	for _, tt := range tests {
		err := s.s.Insert(tt.seg)
		s.ErrorIs(err, tt.err, tt.name)
		s.Equal(session.KindValidation, session.KindOf(err), tt.name)
		s.Equal(before, s.s.Segments(), tt.name)
	}
}

func (s *SessionSuite) TestQuickAppendAndDelete() {
	s.loadStandard()

	proposal, err := s.s.QuickAppend(1.9)
	s.Require().NoError(err)
	s.Equal(1.9, proposal.Start)
	s.InDelta(2.0, proposal.End, 1e-12)
	s.Empty(proposal.Label)
	s.Len(s.s.Segments(), 3)

	proposal.Label = "tail"
	s.Require().NoError(s.s.Insert(proposal))
	s.Len(s.s.Segments(), 4)

	s.Require().NoError(s.s.Delete(1))
	segs := s.s.Segments()
	s.Len(segs, 3)
	s.Equal("a", segs[0].Label)
	s.Equal("c", segs[1].Label)
	s.assertValid()

	s.ErrorIs(s.s.Delete(3), segment.ErrIndex)

	_, err = s.s.QuickAppend(2.0)
	s.ErrorIs(err, segment.ErrNoRoom)
}

func (s *SessionSuite) TestDrag() {
	s.loadStandard()

	s.Require().NoError(s.s.BeginDrag(0, segment.EndEdge))
	s.True(s.s.Dragging())

	pos, err := s.s.UpdateDrag(0.6)
	s.Require().NoError(err)
	s.Equal(0.6, pos)
	s.assertSegments([]segment.Segment{
		{Start: 0, End: 0.6, Label: "a"},
		{Start: 0.6, End: 0.8, Label: "b"},
		{Start: 1.2, End: 1.5, Label: "c"},
	}, s.s.Segments())

	// Other edits wait for the gesture to finish.
	err = s.s.Insert(segment.Segment{Start: 1.6, End: 1.7, Label: "x"})
	s.ErrorIs(err, session.ErrDragInProgress)
	s.ErrorIs(s.s.Crop(0, 1), session.ErrDragInProgress)

	pos, err = s.s.UpdateDrag(0.95)
	s.Require().NoError(err)
	s.InDelta(0.79, pos, 1e-12)

	s.Require().NoError(s.s.EndDrag())
	s.False(s.s.Dragging())

	segs := s.s.Segments()
	s.InDelta(0.79, segs[0].End, 1e-12)
	s.Equal(segs[0].End, segs[1].Start)
	s.assertValid()

	_, err = s.s.UpdateDrag(0.5)
	s.ErrorIs(err, segment.ErrNotDragging)
	s.ErrorIs(s.s.EndDrag(), segment.ErrNotDragging)
}

func (s *SessionSuite) TestCancelDrag() {
	s.loadStandard()
	before := s.s.Segments()

	s.Require().NoError(s.s.BeginDrag(2, segment.StartEdge))
	_, err := s.s.UpdateDrag(1.0)
	s.Require().NoError(err)
	s.Equal(1.0, s.s.Segments()[1].End)

	s.Require().NoError(s.s.CancelDrag())
	s.Equal(before, s.s.Segments())
	s.ErrorIs(s.s.CancelDrag(), segment.ErrNotDragging)
}

func (s *SessionSuite) TestCrop() {
	_, err := s.s.Load(s.ctx, signalFile(signalStart, 10, 51), "")
	s.Require().NoError(err)
	s.Require().NoError(s.s.Insert(segment.Segment{Start: 3.0, End: 4.5, Label: "Z"}))
	s.Require().NoError(s.s.Insert(segment.Segment{Start: 0.2, End: 0.8, Label: "gone"}))

	s.Require().NoError(s.s.Crop(1.0, 4.0))

	s.Equal(segment.Range{Min: 0, Max: 3.0}, s.s.Range())
	s.Equal([]segment.Segment{{Start: 2.0, End: 3.0, Label: "Z"}}, s.s.Segments())
	s.Len(s.s.Samples(), 31)
	s.Equal(0.0, s.s.Samples()[0].Time)
	// The first kept row was originally row 10.
	s.Equal(10.0, s.s.Samples()[0].Channels[1])
	s.Equal(signalStart.Add(time.Second), s.s.SignalMetadata().StartTime)
	s.Equal(segment.Range{Min: 0, Max: 3.0}, s.s.View())

	// Channel A1 is i%50/10 over rows 10..40.
	lo, hi := s.s.ChannelRange()
	s.Equal(1.0, lo)
	s.Equal(4.0, hi)
}

func (s *SessionSuite) TestCropOffGrid() {
	_, err := s.s.Load(s.ctx, signalFile(signalStart, 10, 51), "")
	s.Require().NoError(err)

	s.Require().NoError(s.s.Crop(1.05, 2.0))

	// Renormalized to the first kept sample.
	s.Equal(0.0, s.s.Range().Min)
	s.InDelta(0.9, s.s.Range().Max, 1e-9)
	s.Equal(signalStart.Add(1100*time.Millisecond), s.s.SignalMetadata().StartTime)
}

func (s *SessionSuite) TestCropBoundsSegmentsToLastSample() {
	labels := labelFile(signalStart, 1000,
		labelRow{0, "up"}, labelRow{1, "up"}, labelRow{2, "down"})
	_, err := s.s.Load(s.ctx, signalFile(signalStart, 1000, 3), labels)
	s.Require().NoError(err)
	s.Require().Len(s.s.Segments(), 2)

	// Cropping to the full range keeps every sample, but the segment owned
	// by the last sample lies past the new maximum and is dropped.
	s.Require().NoError(s.s.Crop(0, 0.002))
	s.Len(s.s.Samples(), 3)
	s.Equal([]segment.Segment{{Start: 0, End: 0.002, Label: "up"}}, s.s.Segments())
	s.assertValid()
}

func (s *SessionSuite) TestCropRejects() {
	s.loadStandard()
	before := s.s.Segments()

	tests := []struct {
		name       string
		start, end float64
		err        error
	}{
		{"empty", 1, 1, segment.ErrEmptyInterval},
		{"reversed", 1.5, 1, segment.ErrEmptyInterval},
		{"outside", 0.5, 2.5, segment.ErrOutOfRange},
		{"between samples", 1.0001, 1.0009, session.ErrEmptyCrop},
	}

	for _, tt := range tests {
		err := s.s.Crop(tt.start, tt.end)
		s.ErrorIs(err, tt.err, tt.name)
		s.Equal(session.KindValidation, session.KindOf(err), tt.name)
		s.Len(s.s.Samples(), 2000, tt.name)
		s.Equal(before, s.s.Segments(), tt.name)
	}
}

func (s *SessionSuite) TestExportRoundTrip() {
	s.loadStandard()

	signalText, err := s.s.ExportSignal()
	s.Require().NoError(err)
	labelText, err := s.s.ExportLabels()
	s.Require().NoError(err)

	original := s.s.Samples()
	segs := s.s.Segments()

	reloaded := session.New(session.Options{Location: time.UTC, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	res, err := reloaded.Load(s.ctx, signalText, labelText)
	s.Require().NoError(err)
	s.Empty(res.SignalDiagnostics)
	s.Empty(res.LabelDiagnostics)

	s.Require().Len(reloaded.Samples(), len(original))
	for i, smp := range reloaded.Samples() {
		s.Equal(original[i].Time, smp.Time)
		for c := range smp.Channels {
			s.InDelta(original[i].Channels[c], smp.Channels[c], 1e-6)
		}
	}

	s.Equal(s.s.SignalMetadata(), reloaded.SignalMetadata())
	s.Equal(s.s.LabelMetadata(), reloaded.LabelMetadata())
	s.assertSegments(segs, reloaded.Segments())
}

func (s *SessionSuite) TestExportAfterCrop() {
	s.loadStandard()
	s.Require().NoError(s.s.Crop(0.5, 1.3))

	labelText, err := s.s.ExportLabels()
	s.Require().NoError(err)

	lines := header.SplitLines(labelText)
	hdr, diags := header.Parse(lines, nil)
	s.Require().Empty(diags)
	s.Equal(signalStart.Add(250*time.Millisecond), hdr.StartTime)

	// b is now [0, 0.3), c is clipped to [0.7, 0.8].
	first := strings.Fields(lines[hdr.DataStart])
	s.Equal(fmt.Sprint(signalStart.Add(500*time.Millisecond).UnixMilli()), first[1])
	// Elapsed time is relative to the label stream's own start.
	s.Equal("250", first[2])
	s.Equal("b", first[3])

	signalText, err := s.s.ExportSignal()
	s.Require().NoError(err)
	s.Contains(signalText, `"time":"14:02:31.625"`)
}

func (s *SessionSuite) TestExportRejects() {
	_, err := s.s.Load(s.ctx, signalFile(time.Time{}, 1000, 10), "")
	s.Require().NoError(err)

	_, err = s.s.ExportSignal()
	s.ErrorIs(err, session.ErrNoSignalStart)
	s.Equal(session.KindAlignment, session.KindOf(err))

	_, err = s.s.ExportLabels()
	s.ErrorIs(err, session.ErrNoSignalStart)

	_, err = s.s.Load(s.ctx, signalFile(signalStart, 1000, 10), "")
	s.Require().NoError(err)

	_, err = s.s.ExportLabels()
	s.ErrorIs(err, session.ErrNoLabelStart)
	s.Equal(session.KindAlignment, session.KindOf(err))

	_, err = s.s.Load(s.ctx, signalFile(signalStart, 1000, 10), labelFile(signalStart, 100))
	s.Require().NoError(err)

	_, err = s.s.ExportLabels()
	s.ErrorIs(err, session.ErrNoSegments)
	s.Equal(session.KindValidation, session.KindOf(err))
}

func (s *SessionSuite) TestExportEDF() {
	s.loadStandard()

	f, err := os.OpenFile(filepath.Join(s.T().TempDir(), "out.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	s.Require().NoError(err)
	defer f.Close()

	hdr, err := s.s.ExportEDF(f)
	s.Require().NoError(err)
	s.Equal(2, hdr.DataRecords)

	er, err := edf.Open(f)
	s.Require().NoError(err)
	s.Len(er.Header().Signals, signal.ChannelCount)

	sr, err := er.Signal(1)
	s.Require().NoError(err)
	values, err := sr.ReadAll()
	s.Require().NoError(err)
	s.Len(values, 2000)
	s.InDelta(1234, values[1234], 0.05)
}

func (s *SessionSuite) TestExportEDFFractionalRate() {
	_, err := s.s.Load(s.ctx, signalFile(signalStart, 12.5, 10), "")
	s.Require().NoError(err)

	f, err := os.OpenFile(filepath.Join(s.T().TempDir(), "out.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	s.Require().NoError(err)
	defer f.Close()

	_, err = s.s.ExportEDF(f)
	s.ErrorIs(err, session.ErrFractionalRate)
}

func (s *SessionSuite) TestReset() {
	s.loadStandard()
	s.Require().NoError(s.s.BeginDrag(0, segment.EndEdge))

	s.s.Reset()

	s.False(s.s.Loaded())
	s.False(s.s.Dragging())
	s.Empty(s.s.Samples())
	s.Empty(s.s.Segments())
	s.Equal(segment.Range{}, s.s.Range())
}
