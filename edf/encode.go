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
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/bobdethird/oculy-data/header"
	"github.com/bobdethird/oculy-data/signal"
)

// ErrSamplingRate is returned when samples cannot be packed into one
// second data records.
var ErrSamplingRate = errors.New("edf: sampling rate must be a whole number of samples per second")

// Encode writes the six channels of samples as an EDF file with one second
// data records. Each channel's physical range is taken from the data. The
// final record is padded with the last sample.
func Encode(w io.WriteSeeker, meta header.Metadata, samples []signal.Sample) (Header, error) {
	if len(samples) == 0 {
		return Header{}, ErrNoSamples
	}
	rate := meta.SamplingRate
	if rate < 1 || rate != math.Trunc(rate) {
		return Header{}, fmt.Errorf("%w: %g Hz", ErrSamplingRate, rate)
	}
	perRecord := int(rate)

	id := meta.DeviceID
	if id == "" {
		id = signal.UnknownDeviceID
	}

	hdr := Header{
		PatientID:          "X",
		RecordingID:        id,
		StartTime:          meta.StartTime,
		DataRecordDuration: time.Second,
		Signals:            make([]Signal, signal.ChannelCount),
	}
	for c := range hdr.Signals {
		lo, hi := signal.ChannelExtent(samples, c)
		lo, hi = math.Floor(lo*100)/100, math.Ceil(hi*100)/100
		if lo == hi {
			lo, hi = lo-1, hi+1
		}
		hdr.Signals[c] = Signal{
			Label:             signal.ChannelName(c),
			TransducerType:    "RAW",
			PhysicalDimension: "raw",
			PhysicalMin:       lo,
			PhysicalMax:       hi,
			DigitalMin:        DigitalMin,
			DigitalMax:        DigitalMax,
			SamplesPerRecord:  perRecord,
		}
	}

	ew, err := Create(w, hdr)
	if err != nil {
		return Header{}, err
	}

	record := make([][]float64, signal.ChannelCount)
	for c := range record {
		record[c] = make([]float64, perRecord)
	}

	last := samples[len(samples)-1]
	for start := 0; start < len(samples); start += perRecord {
		for i := 0; i < perRecord; i++ {
			s := last
			if start+i < len(samples) {
				s = samples[start+i]
			}
			for c := range record {
				record[c][i] = s.Channels[c]
			}
		}
		if err := ew.WriteRecord(record); err != nil {
			return Header{}, fmt.Errorf("error writing data record: %w", err)
		}
	}

	if err := ew.Close(); err != nil {
		return Header{}, err
	}
	return ew.Header(), nil
}
