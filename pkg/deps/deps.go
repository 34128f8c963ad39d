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

// Package deps decides which runtime dependencies of a game are missing and
// hands them to the package manager.
package deps

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/rs/zerolog/log"
)

// probes maps known dependency names to executables, any of which satisfies
// it. Names not listed are assumed satisfiable.
var probes = map[string][]string{
	"umu-launcher": {"umu-run", "umu"},
	"wine":         {"wine"},
	"wine-staging": {"wine"},
	"steam":        {"steam"},
	"flatpak":      {"flatpak"},
	"java":         {"java"},
}

// Known reports whether name is one of the dependencies the resolver probes.
func Known(name string) bool {
	_, ok := probes[name]
	return ok
}

// Installer installs dependencies by their abstract names.
type Installer interface {
	Install(ctx context.Context, deps []string, progress func(string)) error
}

type Resolver struct {
	prober    probe.Prober
	installer Installer
}

func NewResolver(prober probe.Prober, installer Installer) *Resolver {
	return &Resolver{
		prober:    prober,
		installer: installer,
	}
}

// Satisfied reports whether a single dependency is present on the host.
func (r *Resolver) Satisfied(name string) bool {
	bins, ok := probes[name]
	if !ok {
		return true
	}
	_, found := r.prober.FindFirst(bins...)
	return found
}

// Check reports availability for each name.
func (r *Resolver) Check(names []string) map[string]bool {
	res := make(map[string]bool, len(names))
	for _, name := range names {
		res[name] = r.Satisfied(name)
	}
	return res
}

// Resolve returns the missing subset of reqs, in order.
func (r *Resolver) Resolve(reqs []string) []string {
	missing := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if !r.Satisfied(req) {
			missing = append(missing, req)
		}
	}
	return missing
}

// Ensure installs reqs when any of them are missing. The installer receives
// the full requirement list and translates it for the host.
func (r *Resolver) Ensure(ctx context.Context, reqs []string, progress func(string)) error {
	missing := r.Resolve(reqs)
	if len(missing) == 0 {
		notify(progress, "All dependencies already installed")
		return nil
	}

	log.Info().Msgf("missing dependencies: %v", missing)
	notify(progress, "Missing dependencies: "+strings.Join(missing, ", "))

	if err := r.installer.Install(ctx, reqs, progress); err != nil {
		return fmt.Errorf("failed to install dependencies: %w", err)
	}
	return nil
}

func notify(progress func(string), msg string) {
	if progress != nil {
		progress(msg)
	}
}
