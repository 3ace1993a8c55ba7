// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package repl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bobdethird/oculy-data/internal/script"
	"github.com/bobdethird/oculy-data/segment"
	"github.com/bobdethird/oculy-data/session"
	"github.com/dustin/go-humanize"
)

var errUsage = errors.New("usage")

// HandleCommand runs one command line and reports whether the shell should
// keep reading.
func (sh *Shell) HandleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "exit", "quit", "q":
		return false
	case "help", "h":
		sh.showHelp()
	case "load":
		err = sh.load(ctx, args)
	case "status", "s":
		sh.showStatus()
	case "list", "ls":
		sh.list()
	case "insert":
		err = sh.insert(args)
	case "append":
		err = sh.appendSegment(args)
	case "delete", "rm":
		err = sh.delete(args)
	case "drag":
		err = sh.drag(args)
	case "crop":
		err = sh.crop(args)
	case "export":
		err = sh.export(args)
	case "script":
		err = sh.script(args)
	case "reset":
		sh.s.Reset()
		fmt.Fprintln(sh.out, "Session cleared.")
	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type help)\n", cmd)
	}

	if err != nil {
		sh.showError(cmd, err)
	}
	return true
}

func (sh *Shell) showError(cmd string, err error) {
	if errors.Is(err, errUsage) {
		fmt.Fprintf(sh.out, "Usage: %s\n", usage[cmd])
		return
	}
	switch session.KindOf(err) {
	case session.KindAlignment:
		fmt.Fprintf(sh.out, "Missing time metadata: %v\n", err)
	default:
		fmt.Fprintf(sh.out, "Error: %v\n", err)
	}
}

var usage = map[string]string{
	"load":   "load <signal file> [label file]",
	"insert": "insert <start> <end> <label>",
	"append": "append <after> <label>",
	"delete": "delete <index>",
	"drag":   "drag <index> <start|end> <time> | drag begin <index> <start|end> | drag move <time> | drag end | drag cancel",
	"crop":   "crop <start> <end>",
	"export": "export <signal|labels|edf> <file>",
	"script": "script <file>",
}

func (sh *Shell) showHelp() {
	fmt.Fprintln(sh.out, "Commands:")
	for _, cmd := range []string{"load", "insert", "append", "delete", "drag", "crop", "export", "script"} {
		fmt.Fprintf(sh.out, "  %s\n", usage[cmd])
	}
	fmt.Fprintln(sh.out, "  status | list | reset | help | exit")
	fmt.Fprintln(sh.out, "Times are seconds from the first sample.")
}

func (sh *Shell) load(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	labelPath := ""
	if len(args) == 2 {
		labelPath = args[1]
	}

	res, err := sh.s.LoadFiles(ctx, args[0], labelPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(sh.out, "Loaded %s samples over %.3f s and %s segments.\n",
		humanize.Comma(int64(res.Samples)), res.Range.Width(), humanize.Comma(int64(res.Segments)))
	for _, d := range res.SignalDiagnostics {
		fmt.Fprintf(sh.out, "  signal: %s\n", d)
	}
	for _, d := range res.LabelDiagnostics {
		fmt.Fprintf(sh.out, "  labels: %s\n", d)
	}
	return nil
}

func (sh *Shell) showStatus() {
	if !sh.s.Loaded() {
		fmt.Fprintln(sh.out, "Nothing loaded.")
		return
	}

	sig, lab := sh.s.SignalMetadata(), sh.s.LabelMetadata()
	lo, hi := sh.s.ChannelRange()
	fmt.Fprintf(sh.out, "Samples:  %s at %g Hz, range %s\n", humanize.Comma(int64(len(sh.s.Samples()))), sig.SamplingRate, sh.s.Range())
	fmt.Fprintf(sh.out, "Display:  %s points, view %s, channel range [%g, %g]\n", humanize.Comma(int64(len(sh.s.Display()))), sh.s.View(), lo, hi)
	fmt.Fprintf(sh.out, "Signal:   %s\n", describeStart(sig.HasStart(), sig.StartTime.Format("2006-01-02 15:04:05.000")))
	fmt.Fprintf(sh.out, "Labels:   %s at %g Hz\n", describeStart(lab.HasStart(), lab.StartTime.Format("2006-01-02 15:04:05.000")), lab.SamplingRate)
	fmt.Fprintf(sh.out, "Segments: %d\n", len(sh.s.Segments()))
	if sh.s.Dragging() {
		fmt.Fprintln(sh.out, "A boundary drag is in progress.")
	}
}

func describeStart(known bool, formatted string) string {
	if !known {
		return "start unknown"
	}
	return "started " + formatted
}

func (sh *Shell) list() {
	segs := sh.s.Segments()
	if len(segs) == 0 {
		fmt.Fprintln(sh.out, "No segments.")
		return
	}
	for i, seg := range segs {
		fmt.Fprintf(sh.out, "%3d  %10.3f  %10.3f  %8.3f  %s\n", i, seg.Start, seg.End, seg.Duration(), seg.Label)
	}
}

func (sh *Shell) insert(args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	start, end, err := parseRange(args[0], args[1])
	if err != nil {
		return err
	}

	seg := segment.Segment{Start: start, End: end, Label: args[2]}
	if err := sh.s.Insert(seg); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Inserted %s.\n", seg)
	return nil
}

func (sh *Shell) appendSegment(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	after, err := parseTime(args[0])
	if err != nil {
		return err
	}

	seg, err := sh.s.QuickAppend(after)
	if err != nil {
		return err
	}
	seg.Label = args[1]
	if err := sh.s.Insert(seg); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Inserted %s.\n", seg)
	return nil
}

func (sh *Shell) delete(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}

	if err := sh.s.Delete(i); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Deleted segment %d.\n", i)
	return nil
}

func (sh *Shell) drag(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "begin":
		if len(args) != 3 {
			return errUsage
		}
		i, edge, err := parseBoundary(args[1], args[2])
		if err != nil {
			return err
		}
		if err := sh.s.BeginDrag(i, edge); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Dragging the %s of segment %d.\n", edge, i)
	case "move":
		if len(args) != 2 {
			return errUsage
		}
		t, err := parseTime(args[1])
		if err != nil {
			return err
		}
		pos, err := sh.s.UpdateDrag(t)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Boundary at %.3f.\n", pos)
	case "end":
		if err := sh.s.EndDrag(); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "Drag committed.")
	case "cancel":
		if err := sh.s.CancelDrag(); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "Drag cancelled.")
	default:
		if len(args) != 3 {
			return errUsage
		}
		i, edge, err := parseBoundary(args[0], args[1])
		if err != nil {
			return err
		}
		t, err := parseTime(args[2])
		if err != nil {
			return err
		}
		if err := sh.s.BeginDrag(i, edge); err != nil {
			return err
		}
		pos, err := sh.s.UpdateDrag(t)
		if err != nil {
			_ = sh.s.CancelDrag()
			return err
		}
		if err := sh.s.EndDrag(); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "Moved the %s of segment %d to %.3f.\n", edge, i, pos)
	}
	return nil
}

func (sh *Shell) crop(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	start, end, err := parseRange(args[0], args[1])
	if err != nil {
		return err
	}

	if err := sh.s.Crop(start, end); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Cropped to %s samples, range %s.\n", humanize.Comma(int64(len(sh.s.Samples()))), sh.s.Range())
	return nil
}

func (sh *Shell) export(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	kind, path := args[0], args[1]
	if kind != "signal" && kind != "labels" && kind != "edf" {
		return errUsage
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch kind {
	case "signal":
		err = sh.s.WriteSignal(f)
	case "labels":
		err = sh.s.WriteLabels(f)
	case "edf":
		_, err = sh.s.ExportEDF(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Wrote %s (%s).\n", path, humanize.Bytes(uint64(info.Size())))
	return nil
}

func (sh *Shell) script(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	sc, err := script.Load(args[0])
	if err != nil {
		return err
	}

	n, err := script.Apply(sh.s, sc, nil)
	if err != nil {
		fmt.Fprintf(sh.out, "Applied %d of %d operations.\n", n, len(sc.Ops))
		return err
	}
	fmt.Fprintf(sh.out, "Applied %d operations.\n", n)
	return nil
}

func parseTime(s string) (float64, error) {
	t, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return t, nil
}

func parseRange(a, b string) (start, end float64, err error) {
	if start, err = parseTime(a); err != nil {
		return 0, 0, err
	}
	if end, err = parseTime(b); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseBoundary(index, edge string) (int, segment.Edge, error) {
	i, err := strconv.Atoi(index)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid index %q", index)
	}
	e, err := segment.ParseEdge(edge)
	if err != nil {
		return 0, 0, err
	}
	return i, e, nil
}
