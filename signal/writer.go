// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package signal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/bobdethird/oculy-data/header"
)

// UnknownDeviceID is written when the source header carried no device id.
const UnknownDeviceID = "00:00:00:00:00:00"

// ErrNoStartTime is returned when the stream has no absolute start time.
var ErrNoStartTime = errors.New("signal: absolute start time is unknown")

// deviceHeader is the JSON value written under the device id key. Field
// order follows the acquisition software.
type deviceHeader struct {
	Sensor       []string `json:"sensor"`
	DeviceName   string   `json:"device name"`
	Column       []string `json:"column"`
	SyncInterval int      `json:"sync interval"`
	Time         string   `json:"time"`
	Comments     string   `json:"comments"`
	Channels     []int    `json:"channels"`
	Date         string   `json:"date"`
	Mode         int      `json:"mode"`
	DigitalIO    []int    `json:"digital IO"`
	Device       string   `json:"device"`
	SamplingRate float64  `json:"sampling rate"`
	Label        []string `json:"label"`
	Resolution   []int    `json:"resolution"`
}

// Writer writes the signal text format.
type Writer struct {
	w *bufio.Writer
}

// Create writes the header described by meta and returns a writer for the
// data rows.
func Create(w io.Writer, meta header.Metadata) (*Writer, error) {
	if !meta.HasStart() {
		return nil, ErrNoStartTime
	}

	sw := &Writer{w: bufio.NewWriter(w)}
	if err := sw.writeHeader(meta); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return sw, nil
}

// WriteSample writes one data row.
func (sw *Writer) WriteSample(s Sample) error {
	// The sequence and digital columns carry nothing the reader uses.
	buf := make([]byte, 0, 96)
	buf = append(buf, "0\t0\t0\t0\t0"...)
	for _, v := range s.Channels {
		buf = append(buf, '\t')
		buf = strconv.AppendFloat(buf, v, 'f', 6, 64)
	}
	buf = append(buf, '\n')

	_, err := sw.w.Write(buf)
	return err
}

// Close flushes buffered rows to the underlying writer.
func (sw *Writer) Close() error {
	return sw.w.Flush()
}

// Encode writes a complete signal file.
func Encode(w io.Writer, meta header.Metadata, samples []Sample) error {
	sw, err := Create(w, meta)
	if err != nil {
		return err
	}

	for _, s := range samples {
		if err := sw.WriteSample(s); err != nil {
			return fmt.Errorf("error writing sample: %w", err)
		}
	}

	return sw.Close()
}

func (sw *Writer) writeHeader(meta header.Metadata) error {
	id := meta.DeviceID
	if id == "" {
		id = UnknownDeviceID
	}

	labels := make([]string, ChannelCount)
	channels := make([]int, ChannelCount)
	resolution := make([]int, ChannelCount)
	sensors := make([]string, ChannelCount)
	for c := range labels {
		labels[c] = ChannelName(c)
		channels[c] = c + 1
		resolution[c] = 16
		sensors[c] = "RAW"
	}

	dev := deviceHeader{
		Sensor:       sensors,
		DeviceName:   id,
		Column:       append([]string{"nSeq", "I1", "I2", "O1", "O2"}, labels...),
		SyncInterval: 2,
		Time:         meta.StartTime.Format("15:04:05.000"),
		Channels:     channels,
		Date:         meta.StartTime.Format("2006-01-02"),
		DigitalIO:    []int{0, 0, 1, 1},
		Device:       "biosignalsplux",
		SamplingRate: meta.SamplingRate,
		Label:        labels,
		Resolution:   resolution,
	}

	b, err := json.Marshal(map[string]deviceHeader{id: dev})
	if err != nil {
		return err
	}

	if _, err := sw.w.WriteString("# OpenSignals Text File Format. Version 1\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(sw.w, "%s %s\n", header.CommentMarker, b); err != nil {
		return err
	}
	_, err = sw.w.WriteString(header.EndOfHeader + "\n")
	return err
}
