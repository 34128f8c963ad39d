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

package detect

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// walk visits every file under root down to maxDepth directory levels, in
// lexical order. visit returns true to stop the walk. Unreadable directories
// are logged and skipped.
func walk(
	ctx context.Context,
	fs afero.Fs,
	dir string,
	depth int,
	maxDepth int,
	visit func(path string) bool,
) bool {
	if ctx.Err() != nil {
		return true
	}

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		log.Debug().Err(err).Msgf("skipping unreadable directory: %s", dir)
		return false
	}

	for _, fi := range infos {
		p := filepath.Join(dir, fi.Name())
		if fi.IsDir() {
			if depth < maxDepth && walk(ctx, fs, p, depth+1, maxDepth, visit) {
				return true
			}
			continue
		}
		if visit(p) {
			return true
		}
	}
	return false
}

// FindFile returns the first file under root named name, compared
// case-insensitively, at most maxDepth directory levels down.
func FindFile(ctx context.Context, fs afero.Fs, root, name string, maxDepth int) (string, bool) {
	if name == "" {
		return "", false
	}
	want := strings.ToLower(filepath.Base(name))

	var found string
	walk(ctx, fs, root, 0, maxDepth, func(p string) bool {
		if strings.ToLower(filepath.Base(p)) == want {
			found = p
			return true
		}
		return false
	})
	return found, found != ""
}

// PrefixOf returns the Wine prefix root of a path inside a drive_c tree.
func PrefixOf(path string) (string, bool) {
	parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
	for i := len(parts) - 1; i > 0; i-- {
		if strings.EqualFold(parts[i], "drive_c") {
			prefix := strings.Join(parts[:i], string(filepath.Separator))
			if prefix == "" {
				return "", false
			}
			return prefix, true
		}
	}
	return "", false
}
