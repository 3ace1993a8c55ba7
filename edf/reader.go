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
	"encoding/binary"
	"fmt"
	"io"
)

// Reader reads EDF files.
type Reader struct {
	r   io.ReadSeeker
	hdr Header
}

// Open parses the header of an EDF file.
func Open(r io.ReadSeeker) (*Reader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	fixed := make([]byte, fixedHeaderBytes)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	var hdr Header
	if err := unmarshalFixed(&hdr, fixed); err != nil {
		return nil, err
	}

	sig := make([]byte, len(hdr.Signals)*signalHeaderBytes)
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("error reading signal headers: %w", err)
	}
	if err := unmarshalSignals(&hdr, sig); err != nil {
		return nil, err
	}

	return &Reader{r: r, hdr: hdr}, nil
}

// Header returns the parsed header.
func (er *Reader) Header() Header {
	return er.hdr
}

// SignalReader reads the physical values of one signal, record by record.
type SignalReader struct {
	r       io.ReadSeeker
	hdr     *Header
	signal  Signal
	offset  int64 // Byte offset of the signal within a record
	record  int   // Next record to load
	pending []float64
}

// Signal returns a reader for the signal at index i.
func (er *Reader) Signal(i int) (*SignalReader, error) {
	if i < 0 || i >= len(er.hdr.Signals) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSignalIndex, i, len(er.hdr.Signals))
	}

	var offset int64
	for _, s := range er.hdr.Signals[:i] {
		offset += int64(s.SamplesPerRecord) * 2
	}

	return &SignalReader{
		r:      er.r,
		hdr:    &er.hdr,
		signal: er.hdr.Signals[i],
		offset: offset,
	}, nil
}

// Read fills data with physical values. It returns io.EOF once every data
// record has been consumed.
func (sr *SignalReader) Read(data []float64) (int, error) {
	n := 0
	for n < len(data) {
		if len(sr.pending) == 0 {
			if err := sr.load(); err != nil {
				return n, err
			}
		}
		c := copy(data[n:], sr.pending)
		sr.pending = sr.pending[c:]
		n += c
	}
	return n, nil
}

// ReadAll returns every remaining value of the signal.
func (sr *SignalReader) ReadAll() ([]float64, error) {
	remaining := max(sr.hdr.DataRecords-sr.record, 0)*sr.signal.SamplesPerRecord + len(sr.pending)
	data := make([]float64, remaining)
	n, err := sr.Read(data)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return data[:n], nil
}

// load reads this signal's block of the next data record.
func (sr *SignalReader) load() error {
	if sr.record >= sr.hdr.DataRecords {
		return io.EOF
	}

	pos := int64(sr.hdr.HeaderBytes) + int64(sr.record)*int64(sr.hdr.recordBytes()) + sr.offset
	if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to record %d: %w", sr.record, err)
	}

	buf := make([]byte, sr.signal.SamplesPerRecord*2)
	if _, err := io.ReadFull(sr.r, buf); err != nil {
		return fmt.Errorf("error reading record %d: %w", sr.record, err)
	}

	values := make([]float64, sr.signal.SamplesPerRecord)
	for i := range values {
		values[i] = toPhysical(int16(binary.LittleEndian.Uint16(buf[i*2:])), sr.signal)
	}

	sr.pending = values
	sr.record++
	return nil
}
