// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package edf reads and writes European Data Format files, used to hand
// cropped recordings to sleep and physiology tooling.
package edf

import (
	"errors"
	"math"
	"time"
)

type Version string

const (
	// Version0 is the only version defined by the EDF standard.
	Version0 Version = "0"
)

const (
	// DigitalMin and DigitalMax span the full 16-bit sample range.
	DigitalMin = -32768
	DigitalMax = 32767

	// MaxRecordBytes is the largest data record the standard recommends.
	MaxRecordBytes = 61440

	fixedHeaderBytes  = 256
	signalHeaderBytes = 256
	dateLayout        = "02.01.06"
	timeLayout        = "15.04.05"
)

var (
	ErrSignalCount    = errors.New("edf: record does not match the signal count")
	ErrRecordSize     = errors.New("edf: data record too large")
	ErrSignalIndex    = errors.New("edf: signal index out of range")
	ErrRecordDuration = errors.New("edf: record duration must be whole seconds")
	ErrNoSamples      = errors.New("edf: no samples to write")
)

// Header is the fixed part of an EDF header plus one entry per signal.
type Header struct {
	Version            Version       // Always Version0 for files written here
	PatientID          string        // Local patient identification
	RecordingID        string        // Local recording identification
	StartTime          time.Time     // Start of the first data record, second precision
	HeaderBytes        int           // Size of the header, set by the writer
	DataRecordDuration time.Duration // Duration of one data record
	DataRecords        int           // Number of data records, -1 while writing
	Signals            []Signal
}

// Signal describes one signal of each data record.
type Signal struct {
	Label             string  // e.g. A1
	TransducerType    string  // Sensor type
	PhysicalDimension string  // Unit of the physical values
	PhysicalMin       float64 // Physical value of DigitalMin
	PhysicalMax       float64 // Physical value of DigitalMax
	DigitalMin        int
	DigitalMax        int
	Prefiltering      string
	SamplesPerRecord  int // Samples of this signal in each data record
	Reserved          string
}

// recordBytes returns the size of one data record.
func (h *Header) recordBytes() int {
	n := 0
	for _, s := range h.Signals {
		n += s.SamplesPerRecord * 2
	}
	return n
}

func toDigital(physical float64, s Signal) int16 {
	if s.PhysicalMax == s.PhysicalMin {
		return int16(s.DigitalMin)
	}
	scale := float64(s.DigitalMax-s.DigitalMin) / (s.PhysicalMax - s.PhysicalMin)
	digital := (physical-s.PhysicalMin)*scale + float64(s.DigitalMin)
	digital = min(max(digital, float64(s.DigitalMin)), float64(s.DigitalMax))
	return int16(math.Round(digital))
}

func toPhysical(digital int16, s Signal) float64 {
	if s.DigitalMax == s.DigitalMin {
		return s.PhysicalMin
	}
	scale := (s.PhysicalMax - s.PhysicalMin) / float64(s.DigitalMax-s.DigitalMin)
	return s.PhysicalMin + (float64(digital)-float64(s.DigitalMin))*scale
}
