// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobdethird/oculy-data/edf"
	"github.com/bobdethird/oculy-data/internal/repl"
	"github.com/bobdethird/oculy-data/internal/script"
	"github.com/bobdethird/oculy-data/session"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <signal file|edf file> [label file]",
	Short: "Summarize a recording and its aligned label segments",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runInspect,
}

var exportFlags struct {
	signalOut string
	labelsOut string
	edfOut    string
	crop      []float64
	edits     string
}

var exportCmd = &cobra.Command{
	Use:   "export <signal file> [label file]",
	Short: "Apply edits and a crop, then write the recording back out",
	Example: `  oculy export signal.txt labels.txt --crop 10,70 --edits edits.yaml \
    --signal-out cropped.txt --labels-out cropped_labels.txt --edf cropped.edf`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExport,
}

var shellCmd = &cobra.Command{
	Use:   "shell [signal file] [label file]",
	Short: "Edit a recording interactively",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runShell,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.signalOut, "signal-out", "", "Write the signal text file here")
	f.StringVar(&exportFlags.labelsOut, "labels-out", "", "Write the label log here")
	f.StringVar(&exportFlags.edfOut, "edf", "", "Write the signal as an EDF file here")
	f.Float64SliceVar(&exportFlags.crop, "crop", nil, "Crop to start,end seconds before writing")
	f.StringVar(&exportFlags.edits, "edits", "", "YAML edit script applied before the crop")
}

func labelArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}

func runInspect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if strings.EqualFold(filepath.Ext(args[0]), ".edf") {
		return inspectEDF(out, args[0])
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	res, err := s.LoadFiles(cmd.Context(), args[0], labelArg(args))
	if err != nil {
		return err
	}

	sig, lab := s.SignalMetadata(), s.LabelMetadata()
	fmt.Fprintf(out, "Signal:   %s samples at %g Hz over %.3f s\n", humanize.Comma(int64(res.Samples)), sig.SamplingRate, res.Range.Width())
	if sig.DeviceID != "" {
		fmt.Fprintf(out, "Device:   %s\n", sig.DeviceID)
	}
	if sig.HasStart() {
		fmt.Fprintf(out, "Started:  %s\n", sig.StartTime.Format("2006-01-02 15:04:05.000 MST"))
	}
	lo, hi := s.ChannelRange()
	fmt.Fprintf(out, "Channel:  [%g, %g]\n", lo, hi)
	if labelArg(args) != "" {
		fmt.Fprintf(out, "Labels:   %d segments, logged at %g Hz\n", res.Segments, lab.SamplingRate)
		for i, seg := range s.Segments() {
			fmt.Fprintf(out, "%3d  %10.3f  %10.3f  %s\n", i, seg.Start, seg.End, seg.Label)
		}
	}
	for _, d := range res.SignalDiagnostics {
		fmt.Fprintf(out, "signal %s\n", d)
	}
	for _, d := range res.LabelDiagnostics {
		fmt.Fprintf(out, "labels %s\n", d)
	}
	return nil
}

func inspectEDF(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	er, err := edf.Open(f)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}

	hdr := er.Header()
	fmt.Fprintf(out, "EDF:      %s, recording %q\n", hdr.StartTime.Format("2006-01-02 15:04:05"), hdr.RecordingID)
	fmt.Fprintf(out, "Records:  %s of %s\n", humanize.Comma(int64(hdr.DataRecords)), hdr.DataRecordDuration)
	for _, sig := range hdr.Signals {
		fmt.Fprintf(out, "  %-4s %6d/record  [%g, %g] %s\n", sig.Label, sig.SamplesPerRecord, sig.PhysicalMin, sig.PhysicalMax, sig.PhysicalDimension)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFlags.signalOut == "" && exportFlags.labelsOut == "" && exportFlags.edfOut == "" {
		return fmt.Errorf("nothing to write: set --signal-out, --labels-out or --edf")
	}
	if exportFlags.crop != nil && len(exportFlags.crop) != 2 {
		return fmt.Errorf("--crop takes start,end")
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	if _, err := s.LoadFiles(cmd.Context(), args[0], labelArg(args)); err != nil {
		return err
	}

	if exportFlags.edits != "" {
		sc, err := script.Load(exportFlags.edits)
		if err != nil {
			return err
		}
		if _, err := script.Apply(s, sc, logger); err != nil {
			return err
		}
	}
	if exportFlags.crop != nil {
		if err := s.Crop(exportFlags.crop[0], exportFlags.crop[1]); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if exportFlags.signalOut != "" {
		if err := writeFile(out, exportFlags.signalOut, func(f *os.File) error { return s.WriteSignal(f) }); err != nil {
			return err
		}
	}
	if exportFlags.labelsOut != "" {
		if err := writeFile(out, exportFlags.labelsOut, func(f *os.File) error { return s.WriteLabels(f) }); err != nil {
			return err
		}
	}
	if exportFlags.edfOut != "" {
		err := writeFile(out, exportFlags.edfOut, func(f *os.File) error {
			_, err := s.ExportEDF(f)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// writeFile creates path, fills it with write and removes it again if
// writing fails.
func writeFile(out io.Writer, path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("error writing %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
	return nil
}

func runShell(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	sh := repl.New(s, cmd.OutOrStdout())
	if len(args) > 0 {
		sh.HandleCommand(cmd.Context(), "load "+strings.Join(args, " "))
	}
	return sh.Run(cmd.Context(), repl.DefaultHistoryFile())
}

var _ script.Editor = (*session.Session)(nil)
