// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package segment implements labeled time intervals and the edits applied
// to them.
//
// A list of segments is valid when every segment has End > Start, the list
// is sorted by Start and consecutive segments share at most one boundary
// value. Check verifies this and Repair restores it. The editing functions
// (Insert, Delete, Drag) never modify their input and return the input
// unchanged alongside any error, so a failed edit leaves no trace.
//
// Dragging a boundary keeps the neighbouring segment attached to it:
//
//	before: [0.0 ──── 1.0)[1.0 ──── 2.0)
//	drag end of #0 to 1.4
//	after:  [0.0 ────── 1.4)[1.4 ── 2.0)
package segment
