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

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/detect"
	"github.com/mmolauncher/mmolauncher/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const archiveSearchDepth = 3

// ArchiveStrategy runs a per-game helper script when one is installed, and
// otherwise downloads and extracts the client archive. When neither is
// possible the game is recorded as pending manual installation.
type ArchiveStrategy struct {
	tools *Tools
}

func (*ArchiveStrategy) Method() catalog.Method {
	return catalog.MethodArchive
}

// HelperScript returns the helper script path for id when it exists.
func (s *ArchiveStrategy) HelperScript(id string) (string, bool) {
	if s.tools.ScriptsDir == "" {
		return "", false
	}
	script := filepath.Join(s.tools.ScriptsDir, id+".sh")
	ok, err := afero.Exists(s.tools.Fs, script)
	if err != nil {
		log.Warn().Err(err).Msgf("cannot check helper script: %s", script)
	}
	return script, ok
}

func (s *ArchiveStrategy) Attempt(ctx context.Context, req Request) Outcome {
	if script, ok := s.HelperScript(req.Entry.ID); ok {
		return s.runHelperScript(ctx, req, script)
	}

	e := req.Entry
	if !IsDirectDownload(e.Source) {
		s.manualInstructions(req)
		return Outcome{Record: pendingRecord(req), Err: ErrNoDirectDownload}
	}

	req.notify("Downloading from " + e.Source)
	archive, err := Download(ctx, s.tools.HTTP, s.tools.Fs, e.Source, req.Dir, "client-download")
	if err != nil {
		req.notify(fmt.Sprintf("Download failed: %v", err))
		s.manualInstructions(req)
		return Outcome{Record: pendingRecord(req), Err: fmt.Errorf("failed to download client: %w", err)}
	}
	req.notify("Download complete: " + filepath.Base(archive))

	format, ok := FormatFromName(archive)
	if !ok {
		format, ok = SniffFormat(s.tools.Fs, archive)
	}
	if !ok {
		req.notify("Downloaded file is not a supported archive")
		if err := s.tools.Fs.Remove(archive); err != nil {
			log.Warn().Err(err).Msgf("failed to remove download: %s", archive)
		}
		s.manualInstructions(req)
		return Outcome{Record: pendingRecord(req), Err: fmt.Errorf("%w: %s", ErrUnknownFormat, archive)}
	}

	req.notify("Extracting " + filepath.Base(archive) + "...")
	if err := Extract(ctx, s.tools.Cmd, s.tools.Prober, format, archive, req.Dir); err != nil {
		req.notify(fmt.Sprintf("Extraction failed: %v", err))
		s.manualInstructions(req)
		return Outcome{Record: pendingRecord(req), Err: fmt.Errorf("failed to extract client: %w", err)}
	}

	if err := s.tools.Fs.Remove(archive); err != nil {
		log.Warn().Err(err).Msgf("failed to remove archive: %s", archive)
	}

	rec := installedRecord(req, catalog.MethodArchive, req.Dir)
	if exe := s.locateExecutable(ctx, req); exe != "" {
		rec.Executable = exe
	}

	req.notify("Installation complete!")
	return Outcome{Installed: true, Record: rec}
}

// locateExecutable finds the client executable when the archive unpacked it
// somewhere other than the catalog's relative path.
func (s *ArchiveStrategy) locateExecutable(ctx context.Context, req Request) string {
	rel := req.Entry.Executable
	if rel == "" {
		return ""
	}
	if ok, _ := afero.Exists(s.tools.Fs, filepath.Join(req.Dir, rel)); ok {
		return ""
	}
	exe, ok := detect.FindFile(ctx, s.tools.Fs, req.Dir, rel, archiveSearchDepth)
	if !ok {
		log.Debug().Msgf("executable %s not found after extraction", rel)
		return ""
	}
	return exe
}

func (s *ArchiveStrategy) runHelperScript(ctx context.Context, req Request, script string) Outcome {
	req.notify("Running install helper: " + filepath.Base(script))
	req.notify("Opening terminal for installation...")

	cmdline := helpers.ShellJoin("sh", script, req.Dir)
	err := RunInTerminal(ctx, s.tools.Cmd, s.tools.Prober, s.tools.Terminals, cmdline)
	if err != nil {
		log.Error().Err(err).Msgf("helper script failed: %s", script)
		req.notify(fmt.Sprintf("Install helper failed: %v", err))
		s.manualInstructions(req)
		return Outcome{Record: pendingRecord(req), Err: fmt.Errorf("%w: %w", ErrHelperScriptFails, err)}
	}

	req.notify("Install helper finished, checking installation...")
	return Outcome{
		Record:             pendingRecord(req),
		ConfirmByDetection: true,
	}
}

func (*ArchiveStrategy) manualInstructions(req Request) {
	e := req.Entry
	req.notify("Manual download required")
	switch {
	case e.Source != "":
		req.notify("Please download client from: " + e.Source)
	case e.Website != "":
		req.notify("Please download client from: " + e.Website)
	}
	req.notify("Then extract to: " + req.Dir)
	if e.Notes != "" {
		req.notify("Installation instructions:")
		req.notify(e.Notes)
	}
}
