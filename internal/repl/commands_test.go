// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package repl_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobdethird/oculy-data/internal/repl"
	"github.com/bobdethird/oculy-data/segment"
	"github.com/bobdethird/oculy-data/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t   *testing.T
	dir string
	s   *session.Session
	sh  *repl.Shell
	out bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, dir: t.TempDir()}
	h.s = session.New(session.Options{Location: time.UTC, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	h.sh = repl.New(h.s, &h.out)
	return h
}

// run executes one command and returns what it printed.
func (h *harness) run(input string) string {
	h.out.Reset()
	require.True(h.t, h.sh.HandleCommand(context.Background(), input))
	return h.out.String()
}

func (h *harness) write(name, content string) string {
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// loadFixture writes and loads 5 s of signal at 100 Hz and two labels.
func (h *harness) loadFixture() {
	var sig strings.Builder
	sig.WriteString("# OpenSignals Text File Format. Version 1\n")
	sig.WriteString(`# {"98:D3:91:FD:40:5A": {"sampling rate": 100, "date": "2024-03-05", "time": "14:02:31.000"}}` + "\n")
	sig.WriteString("# EndOfHeader\n")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sig, "%d\t0\t0\t0\t0\t%d\t0\t0\t0\t0\t0\n", i%16, i%10)
	}

	var lab strings.Builder
	lab.WriteString("# Recording started: 2024-03-05 14:02:31.000\n# Sampling rate: 10 Hz\n# EndOfHeader\n")
	for i := 0; i < 20; i++ {
		label := "open"
		if i >= 10 {
			label = "closed"
		}
		fmt.Fprintf(&lab, "%d %d %d %s\n", i, 1709647351000+int64(i)*100, i*100, label)
	}

	out := h.run(fmt.Sprintf("load %s %s", h.write("signal.txt", sig.String()), h.write("labels.txt", lab.String())))
	require.Contains(h.t, out, "Loaded 500 samples over 4.990 s and 2 segments.")
}

func TestShellEditing(t *testing.T) {
	h := newHarness(t)
	h.loadFixture()

	out := h.run("list")
	assert.Contains(t, out, "open")
	assert.Contains(t, out, "closed")

	assert.Contains(t, h.run("insert 2.5 3 blink"), "Inserted [2.5, 3) blink.")
	assert.Contains(t, h.run("append 3 saccade"), "Inserted [3, 3.2) saccade.")
	require.Len(t, h.s.Segments(), 4)

	assert.Contains(t, h.run("drag 0 end 0.5"), "Moved the end of segment 0 to 0.500.")
	assert.Equal(t, 0.5, h.s.Segments()[1].Start)

	assert.Contains(t, h.run("drag begin 3 end"), "Dragging the end of segment 3.")
	assert.Contains(t, h.run("insert 4 4.5 x"), "a boundary drag is in progress")
	assert.Contains(t, h.run("drag move 3.6"), "Boundary at 3.600.")
	assert.Contains(t, h.run("drag cancel"), "Drag cancelled.")
	assert.Equal(t, 3.2, h.s.Segments()[3].End)

	assert.Contains(t, h.run("delete 2"), "Deleted segment 2.")
	require.Len(t, h.s.Segments(), 3)

	assert.Contains(t, h.run("crop 0.5 3.5"), "Cropped to 301 samples, range [0, 3].")
	assert.Equal(t, segment.Range{Min: 0, Max: 3}, h.s.Range())

	out = h.run("status")
	assert.Contains(t, out, "Samples:  301 at 100 Hz")
	assert.Contains(t, out, "started 2024-03-05 14:02:31.500")
}

func TestShellExport(t *testing.T) {
	h := newHarness(t)
	h.loadFixture()

	for _, kind := range []string{"signal", "labels", "edf"} {
		path := filepath.Join(h.dir, "out."+kind)
		assert.Contains(t, h.run(fmt.Sprintf("export %s %s", kind, path)), "Wrote "+path)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	// The exported pair loads back with the same segments.
	before := h.s.Segments()
	h.run(fmt.Sprintf("load %s %s", filepath.Join(h.dir, "out.signal"), filepath.Join(h.dir, "out.labels")))
	after := h.s.Segments()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Label, after[i].Label)
		assert.InDelta(t, before[i].Start, after[i].Start, 1e-9)
		assert.InDelta(t, before[i].End, after[i].End, 1e-9)
	}
}

func TestShellScript(t *testing.T) {
	h := newHarness(t)
	h.loadFixture()

	path := h.write("edits.yaml", "ops:\n  - delete: 1\n  - insert: {start: 1.5, end: 2.5, label: blink}\n")
	assert.Contains(t, h.run("script "+path), "Applied 2 operations.")
	require.Len(t, h.s.Segments(), 2)

	path = h.write("bad.yaml", "ops:\n  - delete: 0\n  - delete: 5\n")
	out := h.run("script " + path)
	assert.Contains(t, out, "Applied 1 of 2 operations.")
	assert.Contains(t, out, "Error: op 1 (delete)")
}

func TestShellErrors(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.run("status"), "Nothing loaded.")
	assert.Contains(t, h.run("list"), "No segments.")
	assert.Contains(t, h.run("insert 1 2"), "Usage: insert <start> <end> <label>")
	assert.Contains(t, h.run("insert 1 2 x"), "no recording loaded")
	assert.Contains(t, h.run("crop a b"), `invalid time "a"`)
	assert.Contains(t, h.run("export pdf out.pdf"), "Usage: export")
	assert.Contains(t, h.run("frobnicate"), "Unknown command: frobnicate")
	assert.Contains(t, h.run("help"), "Commands:")

	h.loadFixture()
	assert.Contains(t, h.run("insert 3 2 x"), "Error: insert: segment: ")
	assert.Contains(t, h.run("drag 0 middle 1"), "segment: ")
	assert.Contains(t, h.run("reset"), "Session cleared.")
	assert.False(t, h.s.Loaded())

	assert.False(t, h.sh.HandleCommand(context.Background(), "exit"))
}
