// MMO Launcher
// Copyright (c) 2025 The MMO Launcher Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of MMO Launcher.
//
// MMO Launcher is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// MMO Launcher is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with MMO Launcher.  If not, see <http://www.gnu.org/licenses/>.

//go:build !deadlock

// Package syncutil holds the mutexes used across the launcher. Building with
// -tags=deadlock swaps in go-deadlock's detecting versions.
package syncutil

import "sync"

// DeadlockDetection reports whether the deadlock build tag is set.
const DeadlockDetection = false

type Mutex struct {
	sync.Mutex //nolint:forbidigo // wrapped here only
}

type RWMutex struct {
	sync.RWMutex //nolint:forbidigo // wrapped here only
}
