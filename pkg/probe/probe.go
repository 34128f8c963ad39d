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

// Package probe reports which runtime capabilities are present on the host by
// looking up executables on the search path.
package probe

import (
	"os/exec"

	"github.com/rs/zerolog/log"
)

// Prober answers whether named executables are available.
type Prober interface {
	// Probe reports whether name resolves on the executable search path.
	Probe(name string) bool
	// FindFirst returns the first available name, in list order.
	FindFirst(names ...string) (string, bool)
}

// PathProber probes the executable search path. It never runs the target.
type PathProber struct{}

var _ Prober = PathProber{}

func (PathProber) Probe(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

func (p PathProber) FindFirst(names ...string) (string, bool) {
	return FindFirst(p, names...)
}

// FindFirst walks names in order and returns the first one p reports as
// present. List order is the preference ranking.
func FindFirst(p Prober, names ...string) (string, bool) {
	for _, name := range names {
		if p.Probe(name) {
			log.Debug().Str("name", name).Msg("found executable")
			return name, true
		}
	}
	return "", false
}
