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
	"path/filepath"
	"strings"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/detect"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/rs/zerolog/log"
)

const (
	// PrefixDir is the Wine prefix directory created inside a game's
	// install directory.
	PrefixDir = "pfx"
	// prefixSearchDepth covers drive_c/Program Files (x86)/Vendor/Game.
	prefixSearchDepth = 5
)

// InstallerStrategy downloads a vendor setup program and runs it under the
// compatibility layer.
type InstallerStrategy struct {
	tools *Tools
}

func (*InstallerStrategy) Method() catalog.Method {
	return catalog.MethodInstaller
}

func (s *InstallerStrategy) runner() (string, bool) {
	if r, ok := s.tools.Prober.FindFirst(s.tools.Runners...); ok {
		return r, true
	}
	if s.tools.Prober.Probe("wine") {
		return "wine", true
	}
	return "", false
}

func (s *InstallerStrategy) Attempt(ctx context.Context, req Request) Outcome {
	e := req.Entry
	if !strings.HasPrefix(e.Source, "http://") && !strings.HasPrefix(e.Source, "https://") {
		req.notify("No installer download available for " + e.Name)
		return Outcome{Err: ErrNoSource}
	}

	runner, ok := s.runner()
	if !ok {
		req.notify("No compatibility layer found, install umu-launcher or wine")
		return Outcome{Err: ErrNoRunner}
	}

	req.notify("Downloading game installer...")
	req.notify("Downloading from " + e.Source)
	installer, err := Download(ctx, s.tools.HTTP, s.tools.Fs, e.Source, req.Dir, "installer.exe")
	if err != nil {
		req.notify(fmt.Sprintf("Download failed: %v", err))
		return Outcome{Err: fmt.Errorf("failed to download installer: %w", err)}
	}
	req.notify("Download complete: " + filepath.Base(installer))

	prefix := filepath.Join(req.Dir, PrefixDir)
	if err := s.tools.Fs.MkdirAll(prefix, 0o750); err != nil {
		return Outcome{Err: fmt.Errorf("failed to create prefix: %w", err)}
	}

	env := []string{"WINEPREFIX=" + prefix}
	if runner != "wine" {
		env = append(env, "GAMEID=umu-default", "PROTONPATH="+s.tools.ProtonPath)
	}

	req.notify(fmt.Sprintf("Running installer via %s...", runner))
	err = s.tools.Cmd.RunWithOptions(ctx, command.Options{Dir: req.Dir, Env: env}, runner, installer)
	if err != nil {
		log.Error().Err(err).Msgf("installer failed: %s", installer)
		req.notify(fmt.Sprintf("Installer failed: %v", err))
		return Outcome{Err: fmt.Errorf("installer exited with error: %w", err)}
	}

	rec := installedRecord(req, catalog.MethodInstaller, req.Dir)
	rec.Prefix = prefix
	if e.Executable != "" {
		if exe, ok := detect.FindFile(ctx, s.tools.Fs, prefix, e.Executable, prefixSearchDepth); ok {
			log.Info().Msgf("found %s executable at %s", e.ID, exe)
			rec.Executable = exe
		} else {
			log.Debug().Msgf("executable %s not found in prefix", e.Executable)
		}
	}

	req.notify("Installation complete!")
	return Outcome{Installed: true, Record: rec}
}
