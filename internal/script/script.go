// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package script applies batches of segment edits described in YAML.
//
// A script is a list of operations applied in order:
//
//	ops:
//	  - insert: {start: 1.0, end: 2.0, label: blink}
//	  - append: {after: 2.0, label: saccade}
//	  - drag: {index: 0, edge: end, to: 1.25}
//	  - delete: 2
//	  - crop: {start: 0.5, end: 4.0}
package script

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bobdethird/oculy-data/segment"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyOp     = errors.New("script: operation has no action")
	ErrAmbiguousOp = errors.New("script: operation has more than one action")
)

// Script is a parsed edit script.
type Script struct {
	Ops []Op `yaml:"ops"`
}

// Op is one operation. Exactly one field is set.
type Op struct {
	Insert *Insert `yaml:"insert,omitempty"`
	Append *Append `yaml:"append,omitempty"`
	Drag   *Drag   `yaml:"drag,omitempty"`
	Delete *int    `yaml:"delete,omitempty"`
	Crop   *Crop   `yaml:"crop,omitempty"`
}

type Insert struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Label string  `yaml:"label"`
}

// Append inserts a quick-append proposal under Label.
type Append struct {
	After float64 `yaml:"after"`
	Label string  `yaml:"label"`
}

type Drag struct {
	Index int     `yaml:"index"`
	Edge  string  `yaml:"edge"` // start or end
	To    float64 `yaml:"to"`
}

type Crop struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// Name returns the action of the operation.
func (op Op) Name() string {
	switch {
	case op.Insert != nil:
		return "insert"
	case op.Append != nil:
		return "append"
	case op.Drag != nil:
		return "drag"
	case op.Delete != nil:
		return "delete"
	case op.Crop != nil:
		return "crop"
	default:
		return ""
	}
}

func (op Op) actions() int {
	n := 0
	for _, set := range []bool{op.Insert != nil, op.Append != nil, op.Drag != nil, op.Delete != nil, op.Crop != nil} {
		if set {
			n++
		}
	}
	return n
}

// Load reads and parses the script at path.
func Load(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, fmt.Errorf("error opening script: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a script and checks that every operation names exactly
// one action. Edge names are checked here as well.
func Parse(r io.Reader) (Script, error) {
	var s Script

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Script{}, fmt.Errorf("error parsing script: %w", err)
	}

	for i, op := range s.Ops {
		switch op.actions() {
		case 0:
			return Script{}, fmt.Errorf("op %d: %w", i, ErrEmptyOp)
		case 1:
		default:
			return Script{}, fmt.Errorf("op %d: %w", i, ErrAmbiguousOp)
		}
		if op.Drag != nil {
			if _, err := segment.ParseEdge(op.Drag.Edge); err != nil {
				return Script{}, fmt.Errorf("op %d: %w", i, err)
			}
		}
	}

	return s, nil
}
