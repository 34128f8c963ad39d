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

package acquire

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/virtualpath"
	"github.com/rs/zerolog/log"
)

// PackageStrategy installs a native package in an interactive terminal and
// falls back to Flatpak when that does not work out.
type PackageStrategy struct {
	tools    *Tools
	fallback *SandboxStrategy
}

func (*PackageStrategy) Method() catalog.Method {
	return catalog.MethodPackage
}

func (s *PackageStrategy) Attempt(ctx context.Context, req Request) Outcome {
	pkg := req.Entry.PackageName()

	err := s.viaTerminal(ctx, req, pkg)
	if err == nil {
		req.notify("Installation complete!")
		return Outcome{
			Installed: true,
			Record:    installedRecord(req, catalog.MethodPackage, virtualpath.Create(virtualpath.SchemePackage, pkg)),
		}
	}

	log.Warn().Err(err).Msgf("package install of %s did not complete", req.Entry.ID)
	switch {
	case errors.Is(err, ErrNoTerminal):
		req.notify("No terminal found, trying Flatpak...")
	default:
		req.notify(fmt.Sprintf("Package installation cancelled or failed: %v", err))
		req.notify("Trying Flatpak...")
	}

	out := s.fallback.install(ctx, req, req.Entry.FlatpakID())
	if out.Err != nil && !out.Installed {
		out.Err = fmt.Errorf("%w (package: %w)", out.Err, err)
	}
	return out
}

func (s *PackageStrategy) viaTerminal(ctx context.Context, req Request, pkg string) error {
	cmdline, err := s.tools.Bridge.InteractiveInstall(pkg)
	if err != nil {
		return fmt.Errorf("cannot install package: %w", err)
	}

	req.notify("Installing package: " + pkg)
	req.notify("Opening terminal for installation...")
	return RunInTerminal(ctx, s.tools.Cmd, s.tools.Prober, s.tools.Terminals, cmdline)
}
