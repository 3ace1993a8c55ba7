// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package repl is an interactive line editing shell over a session.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobdethird/oculy-data/session"
	"github.com/chzyer/readline"
)

// Shell dispatches typed commands to a session.
type Shell struct {
	s   *session.Session
	out io.Writer
}

// New returns a shell editing s and printing to out.
func New(s *session.Session, out io.Writer) *Shell {
	return &Shell{s: s, out: out}
}

// DefaultHistoryFile returns the history file in the user's home directory,
// or in the working directory when there is none.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".oculy_history")
}

// Run reads commands until exit, end of input or an interrupt.
func (sh *Shell) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "oculy> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          sh.out,
	})
	if err != nil {
		return fmt.Errorf("error initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(sh.out, "Type help for a list of commands.")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		input, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("error reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !sh.HandleCommand(ctx, input) {
			return nil
		}
	}
}

func completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("load"),
		readline.PcItem("status"),
		readline.PcItem("list"),
		readline.PcItem("insert"),
		readline.PcItem("append"),
		readline.PcItem("delete"),
		readline.PcItem("drag",
			readline.PcItem("begin"),
			readline.PcItem("move"),
			readline.PcItem("end"),
			readline.PcItem("cancel"),
		),
		readline.PcItem("crop"),
		readline.PcItem("export",
			readline.PcItem("signal"),
			readline.PcItem("labels"),
			readline.PcItem("edf"),
		),
		readline.PcItem("script"),
		readline.PcItem("reset"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}
