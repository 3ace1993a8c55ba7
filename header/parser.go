// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package header parses the comment header shared by the signal and label
// text formats.
package header

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bobdethird/oculy-data/diag"
)

var (
	recordingStartedRE = regexp.MustCompile(`(?i)^recording started:\s*(.+?)\s*$`)
	samplingRateRE     = regexp.MustCompile(`(?i)^sampling rate:\s*([0-9]*\.?[0-9]+)\s*hz\b`)
)

// Layouts accepted for "Recording started:" values once the date/time
// separator has been normalized to "T".
var recordingLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// deviceHeader is the value stored under the device id key of the JSON
// header line written by the acquisition software.
type deviceHeader struct {
	SamplingRate *float64 `json:"sampling rate"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
}

// SplitLines splits text into lines, dropping a trailing carriage return
// from each one.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Parse scans the header of lines. Times without an explicit zone are
// interpreted in loc (UTC when nil). Parsing never fails: problems are
// reported in the returned diagnostics and the affected fields keep their
// defaults.
func Parse(lines []string, loc *time.Location) (Header, diag.List) {
	if loc == nil {
		loc = time.UTC
	}

	hdr := Header{
		Metadata:  Metadata{SamplingRate: DefaultSamplingRate},
		DataStart: -1,
	}
	var diags diag.List

	firstData := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == EndOfHeader {
			hdr.DataStart = i + 1
			break
		}
		if !strings.HasPrefix(trimmed, CommentMarker) {
			if firstData < 0 && trimmed != "" {
				firstData = i
			}
			continue
		}

		body := strings.TrimSpace(strings.TrimPrefix(trimmed, CommentMarker))
		switch {
		case strings.HasPrefix(body, "{"):
			parseDeviceLine(&hdr, body, i, loc, &diags)
		case recordingStartedRE.MatchString(body):
			value := recordingStartedRE.FindStringSubmatch(body)[1]
			start, err := parseRecordingStarted(value, loc)
			if err != nil {
				diags.Warnf(i, "recording started", "error parsing start time %q: %v", value, err)
				continue
			}
			hdr.StartTime = start
		case samplingRateRE.MatchString(body):
			value := samplingRateRE.FindStringSubmatch(body)[1]
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil || rate <= 0 {
				diags.Warnf(i, "sampling rate", "invalid sampling rate %q, keeping %g Hz", value, hdr.SamplingRate)
				continue
			}
			hdr.SamplingRate = rate
		}
	}

	if hdr.DataStart < 0 {
		diags.Warnf(-1, "", "missing %q line", EndOfHeader)
		hdr.DataStart = len(lines)
		if firstData >= 0 {
			hdr.DataStart = firstData
		}
	}

	return hdr, diags
}

func parseDeviceLine(hdr *Header, body string, line int, loc *time.Location, diags *diag.List) {
	id, dev, err := decodeDeviceHeader(body)
	if err != nil {
		diags.Warnf(line, "device header", "error decoding JSON header: %v", err)
		return
	}
	hdr.DeviceID = id

	if dev.SamplingRate != nil {
		if *dev.SamplingRate > 0 {
			hdr.SamplingRate = *dev.SamplingRate
		} else {
			diags.Warnf(line, "sampling rate", "invalid sampling rate %g, keeping %g Hz", *dev.SamplingRate, hdr.SamplingRate)
		}
	}

	if dev.Date == "" || dev.Time == "" {
		return
	}
	start, err := time.ParseInLocation("2006-01-02 15:04:05", dev.Date+" "+dev.Time, loc)
	if err != nil {
		diags.Warnf(line, "date/time", "error parsing start time: %v", err)
		return
	}
	hdr.StartTime = start
}

// decodeDeviceHeader decodes a {"<device id>": {...}} object, returning the
// first key and its decoded value.
func decodeDeviceHeader(body string) (string, deviceHeader, error) {
	var dev deviceHeader

	dec := json.NewDecoder(strings.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return "", dev, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", dev, errors.New("expected object")
	}
	tok, err = dec.Token()
	if err != nil {
		return "", dev, err
	}
	id, ok := tok.(string)
	if !ok {
		return "", dev, errors.New("empty object")
	}
	if err := dec.Decode(&dev); err != nil {
		return "", dev, fmt.Errorf("error decoding %q: %w", id, err)
	}

	return id, dev, nil
}

func parseRecordingStarted(value string, loc *time.Location) (time.Time, error) {
	value = strings.Replace(value, " ", "T", 1)

	var firstErr error
	for _, layout := range recordingLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, loc)
		}
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return time.Time{}, firstErr
}
