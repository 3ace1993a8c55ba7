// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package signal decodes and encodes the six channel signal text format.
package signal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bobdethird/oculy-data/diag"
	"github.com/bobdethird/oculy-data/header"
)

// Decode converts the data rows following hdr into samples. Row timestamps
// are synthesized from the accepted row position and the sampling rate.
// Short rows are skipped and unparseable channel values become 0; both are
// reported in the diagnostics. channel selects the display channel whose
// min/max is tracked.
func Decode(lines []string, hdr header.Header, channel int) (Stream, diag.List) {
	if channel < 0 || channel >= ChannelCount {
		channel = 0
	}

	stream := Stream{Channel: channel}
	var diags diag.List

	start := hdr.DataStart
	if start < 0 {
		start = 0
	}

	for i := start; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		if len(fields) < FieldCount {
			diags.Warnf(i, "", "skipping row with %d fields, expected %d", len(fields), FieldCount)
			continue
		}

		n := len(stream.Samples)
		sample := Sample{Time: float64(n) / hdr.SamplingRate}
		for c := 0; c < ChannelCount; c++ {
			sample.Channels[c] = parseChannel(fields[FirstChannelField+c], i, c, &diags)
		}

		v := sample.Channels[channel]
		if n == 0 || v < stream.Min {
			stream.Min = v
		}
		if n == 0 || v > stream.Max {
			stream.Max = v
		}

		stream.Samples = append(stream.Samples, sample)
	}

	return stream, diags
}

func parseChannel(field string, line, channel int, diags *diag.List) float64 {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		diags.Warnf(line, ChannelName(channel), "error parsing %q, using 0", field)
		return 0
	}
	return v
}

// ChannelName returns the column label of an analog channel.
func ChannelName(channel int) string {
	return fmt.Sprintf("A%d", channel+1)
}
