// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// headerField is one fixed-width ASCII field of the 256 byte fixed header.
type headerField struct {
	name  string
	width int
	get   func(h *Header) string
	set   func(h *Header, v string) error
}

// signalField is one fixed-width ASCII field repeated for every signal.
// Each field is stored for all signals before the next field begins.
type signalField struct {
	name  string
	width int
	get   func(s *Signal) string
	set   func(s *Signal, v string) error
}

var headerFields = []headerField{
	{"version", 8,
		func(h *Header) string { return string(h.Version) },
		func(h *Header, v string) error { h.Version = Version(v); return nil }},
	{"patient id", 80,
		func(h *Header) string { return h.PatientID },
		func(h *Header, v string) error { h.PatientID = v; return nil }},
	{"recording id", 80,
		func(h *Header) string { return h.RecordingID },
		func(h *Header, v string) error { h.RecordingID = v; return nil }},
	{"start date", 8,
		func(h *Header) string { return h.StartTime.Format(dateLayout) },
		func(h *Header, v string) error {
			d, err := time.Parse(dateLayout, v)
			if err != nil {
				return err
			}
			h.StartTime = time.Date(d.Year(), d.Month(), d.Day(),
				h.StartTime.Hour(), h.StartTime.Minute(), h.StartTime.Second(), 0, time.UTC)
			return nil
		}},
	{"start time", 8,
		func(h *Header) string { return h.StartTime.Format(timeLayout) },
		func(h *Header, v string) error {
			t, err := time.Parse(timeLayout, v)
			if err != nil {
				return err
			}
			h.StartTime = time.Date(h.StartTime.Year(), h.StartTime.Month(), h.StartTime.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
			return nil
		}},
	{"header bytes", 8,
		func(h *Header) string { return strconv.Itoa(h.HeaderBytes) },
		func(h *Header, v string) (err error) { h.HeaderBytes, err = strconv.Atoi(v); return err }},
	{"reserved", 44,
		func(*Header) string { return "" },
		func(*Header, string) error { return nil }},
	{"data records", 8,
		func(h *Header) string { return strconv.Itoa(h.DataRecords) },
		func(h *Header, v string) (err error) { h.DataRecords, err = strconv.Atoi(v); return err }},
	{"record duration", 8,
		func(h *Header) string { return strconv.Itoa(int(h.DataRecordDuration / time.Second)) },
		func(h *Header, v string) error {
			secs, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			h.DataRecordDuration = time.Duration(secs * float64(time.Second))
			return nil
		}},
	{"signal count", 4,
		func(h *Header) string { return strconv.Itoa(len(h.Signals)) },
		func(h *Header, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			if n < 0 {
				return fmt.Errorf("negative signal count %d", n)
			}
			h.Signals = make([]Signal, n)
			return nil
		}},
}

var signalFields = []signalField{
	{"label", 16,
		func(s *Signal) string { return s.Label },
		func(s *Signal, v string) error { s.Label = v; return nil }},
	{"transducer type", 80,
		func(s *Signal) string { return s.TransducerType },
		func(s *Signal, v string) error { s.TransducerType = v; return nil }},
	{"physical dimension", 8,
		func(s *Signal) string { return s.PhysicalDimension },
		func(s *Signal, v string) error { s.PhysicalDimension = v; return nil }},
	{"physical minimum", 8,
		func(s *Signal) string { return formatPhysical(s.PhysicalMin) },
		func(s *Signal, v string) (err error) { s.PhysicalMin, err = strconv.ParseFloat(v, 64); return err }},
	{"physical maximum", 8,
		func(s *Signal) string { return formatPhysical(s.PhysicalMax) },
		func(s *Signal, v string) (err error) { s.PhysicalMax, err = strconv.ParseFloat(v, 64); return err }},
	{"digital minimum", 8,
		func(s *Signal) string { return strconv.Itoa(s.DigitalMin) },
		func(s *Signal, v string) (err error) { s.DigitalMin, err = strconv.Atoi(v); return err }},
	{"digital maximum", 8,
		func(s *Signal) string { return strconv.Itoa(s.DigitalMax) },
		func(s *Signal, v string) (err error) { s.DigitalMax, err = strconv.Atoi(v); return err }},
	{"prefiltering", 80,
		func(s *Signal) string { return s.Prefiltering },
		func(s *Signal, v string) error { s.Prefiltering = v; return nil }},
	{"samples per record", 8,
		func(s *Signal) string { return strconv.Itoa(s.SamplesPerRecord) },
		func(s *Signal, v string) (err error) { s.SamplesPerRecord, err = strconv.Atoi(v); return err }},
	{"reserved", 32,
		func(s *Signal) string { return s.Reserved },
		func(s *Signal, v string) error { s.Reserved = v; return nil }},
}

// marshalHeader renders the complete header, fixed part and signal part.
func marshalHeader(h *Header) []byte {
	var buf bytes.Buffer
	buf.Grow(h.HeaderBytes)
	for _, f := range headerFields {
		writeField(&buf, f.get(h), f.width)
	}
	for _, f := range signalFields {
		for i := range h.Signals {
			writeField(&buf, f.get(&h.Signals[i]), f.width)
		}
	}
	return buf.Bytes()
}

// unmarshalFixed parses the 256 byte fixed header.
func unmarshalFixed(h *Header, b []byte) error {
	off := 0
	for _, f := range headerFields {
		if err := f.set(h, readField(b[off:off+f.width])); err != nil {
			return fmt.Errorf("error parsing %s: %w", f.name, err)
		}
		off += f.width
	}
	return nil
}

// unmarshalSignals parses the signal part of the header into h.Signals.
func unmarshalSignals(h *Header, b []byte) error {
	off := 0
	for _, f := range signalFields {
		for i := range h.Signals {
			if err := f.set(&h.Signals[i], readField(b[off:off+f.width])); err != nil {
				return fmt.Errorf("error parsing signal %d %s: %w", i, f.name, err)
			}
			off += f.width
		}
	}
	return nil
}

// writeField writes v left aligned and space padded, truncated to width.
func writeField(buf *bytes.Buffer, v string, width int) {
	if len(v) > width {
		v = v[:width]
	}
	buf.WriteString(v)
	for i := len(v); i < width; i++ {
		buf.WriteByte(' ')
	}
}

func readField(b []byte) string {
	return strings.TrimSpace(string(b))
}

// formatPhysical formats v in at most eight characters, dropping decimals
// as needed.
func formatPhysical(v float64) string {
	for prec := 4; prec > 0; prec-- {
		if s := strconv.FormatFloat(v, 'f', prec, 64); len(s) <= 8 {
			return trimZeros(s)
		}
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
