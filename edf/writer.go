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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"
)

// Writer writes EDF files. The header is written up front and rewritten by
// Close once the number of data records is known.
type Writer struct {
	w           io.WriteSeeker
	bw          *bufio.Writer
	hdr         Header
	recordBytes int
	dataRecords int // Number of data records written so far.
}

// Create writes a provisional header for hdr and returns a writer for its
// data records. Physical ranges are stored as they will read back from
// the header, so values convert identically in both directions.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	if hdr.DataRecordDuration <= 0 || hdr.DataRecordDuration%time.Second != 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordDuration, hdr.DataRecordDuration)
	}

	hdr.Version = Version0
	hdr.Signals = slices.Clone(hdr.Signals)
	for i := range hdr.Signals {
		s := &hdr.Signals[i]
		s.PhysicalMin = storedPhysical(s.PhysicalMin)
		s.PhysicalMax = storedPhysical(s.PhysicalMax)
	}
	hdr.HeaderBytes = fixedHeaderBytes + len(hdr.Signals)*signalHeaderBytes
	hdr.DataRecords = -1 // Unknown until Close.

	ew := &Writer{w: w, hdr: hdr, recordBytes: hdr.recordBytes()}
	if ew.recordBytes > MaxRecordBytes {
		return nil, fmt.Errorf("%w: %d bytes, max is %d bytes", ErrRecordSize, ew.recordBytes, MaxRecordBytes)
	}

	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}
	ew.bw = bufio.NewWriter(w)

	return ew, nil
}

// Header returns the header as it is written to the file.
func (ew *Writer) Header() Header {
	return ew.hdr
}

// WriteRecord writes one data record, given as the physical values of each
// signal in header order.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != len(ew.hdr.Signals) {
		return fmt.Errorf("%w: expected %d signals, got %d", ErrSignalCount, len(ew.hdr.Signals), len(signals))
	}
	for i, s := range ew.hdr.Signals {
		if len(signals[i]) != s.SamplesPerRecord {
			return fmt.Errorf("%w: signal %d has %d samples, expected %d", ErrSignalCount, i, len(signals[i]), s.SamplesPerRecord)
		}
	}

	buf := make([]byte, 0, ew.recordBytes)
	for i, s := range ew.hdr.Signals {
		for _, v := range signals[i] {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(toDigital(v, s)))
		}
	}

	if _, err := ew.bw.Write(buf); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// Close flushes the data records and finalizes the header with the number
// of records written.
func (ew *Writer) Close() error {
	if err := ew.bw.Flush(); err != nil {
		return err
	}

	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	// Leave the file positioned after the last record.
	_, err := ew.w.Seek(0, io.SeekEnd)
	return err
}

func (ew *Writer) writeHeader() error {
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := ew.w.Write(marshalHeader(&ew.hdr))
	return err
}

// storedPhysical returns v as it reads back from an eight character field.
func storedPhysical(v float64) float64 {
	stored, err := strconv.ParseFloat(formatPhysical(v), 64)
	if err != nil {
		return v
	}
	return stored
}
