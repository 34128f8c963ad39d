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
	"fmt"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/virtualpath"
	"github.com/rs/zerolog/log"
)

// SandboxStrategy installs a Flatpak app from Flathub.
type SandboxStrategy struct {
	tools *Tools
}

func (*SandboxStrategy) Method() catalog.Method {
	return catalog.MethodSandbox
}

func (s *SandboxStrategy) Attempt(ctx context.Context, req Request) Outcome {
	return s.install(ctx, req, req.Entry.FlatpakID())
}

func (s *SandboxStrategy) install(ctx context.Context, req Request, appID string) Outcome {
	if appID == "" {
		req.notify("No Flatpak available for " + req.Entry.Name)
		return Outcome{Err: ErrNoFlatpakID}
	}
	if !s.tools.Prober.Probe("flatpak") {
		req.notify("Flatpak is not installed")
		return Outcome{Err: ErrNoFlatpak}
	}

	req.notify("Installing via Flatpak: " + appID)
	err := s.tools.Cmd.Run(ctx, "flatpak", "install", "-y", "flathub", appID)
	if err != nil {
		log.Error().Err(err).Msgf("flatpak install failed: %s", appID)
		req.notify(fmt.Sprintf("Flatpak installation failed: %v", err))
		return Outcome{Err: fmt.Errorf("flatpak install %s: %w", appID, err)}
	}

	req.notify("Installation complete!")
	return Outcome{
		Installed: true,
		Record:    installedRecord(req, catalog.MethodSandbox, virtualpath.Create(virtualpath.SchemeFlatpak, appID)),
	}
}
