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
	"cmp"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"
	"github.com/mmolauncher/mmolauncher/internal/vdfbinary"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// DefaultSteamRoots are the usual Steam installation directories below home.
func DefaultSteamRoots(home string) []string {
	return []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
		filepath.Join(home, "snap", "steam", "common", ".steam", "steam"),
	}
}

// normalizeVDFKeys recursively lowercases all keys, VDF keys are
// case-insensitive.
func normalizeVDFKeys(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeVDFKeys(nested)
		}
		result[strings.ToLower(k)] = v
	}
	return result
}

func parseVDF(fs afero.Fs, path string) (map[string]any, bool) {
	f, err := fs.Open(path)
	if err != nil {
		log.Debug().Err(err).Msgf("cannot open vdf: %s", path)
		return nil, false
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing vdf: %s", path)
		}
	}()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		log.Warn().Err(err).Msgf("error parsing vdf: %s", path)
		return nil, false
	}
	return normalizeVDFKeys(m), true
}

// SteamLibraries lists library folders from libraryfolders.vdf below each
// Steam root. A root's own steamapps is always included.
func SteamLibraries(fs afero.Fs, roots []string) []string {
	seen := make(map[string]bool)
	var libs []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			libs = append(libs, p)
		}
	}

	for _, root := range roots {
		if ok, _ := afero.DirExists(fs, filepath.Join(root, "steamapps")); !ok {
			continue
		}
		add(root)

		m, ok := parseVDF(fs, filepath.Join(root, "steamapps", "libraryfolders.vdf"))
		if !ok {
			continue
		}
		lfs, ok := m["libraryfolders"].(map[string]any)
		if !ok {
			log.Warn().Msgf("libraryfolders is not a map in %s", root)
			continue
		}

		keys := make([]string, 0, len(lfs))
		for k := range lfs {
			keys = append(keys, k)
		}
		sortNumeric(keys)

		for _, k := range keys {
			lib, ok := lfs[k].(map[string]any)
			if !ok {
				continue
			}
			if p, ok := lib["path"].(string); ok && p != "" {
				add(p)
			}
		}
	}
	return libs
}

// SteamAppInstalled reports whether any library holds a manifest for appID.
func SteamAppInstalled(fs afero.Fs, libraries []string, appID int) bool {
	id := strconv.Itoa(appID)
	for _, lib := range libraries {
		mf := filepath.Join(lib, "steamapps", "appmanifest_"+id+".acf")
		m, ok := parseVDF(fs, mf)
		if !ok {
			continue
		}
		appState, ok := m["appstate"].(map[string]any)
		if !ok {
			log.Warn().Msgf("appstate is not a map in manifest: %s", mf)
			continue
		}
		if got, _ := appState["appid"].(string); got == id {
			return true
		}
	}
	return false
}

func sortNumeric(keys []string) {
	slices.SortFunc(keys, func(a, b string) int {
		ai, aErr := strconv.Atoi(a)
		bi, bErr := strconv.Atoi(b)
		if aErr == nil && bErr == nil {
			return cmp.Compare(ai, bi)
		}
		return strings.Compare(a, b)
	})
}

// SteamShortcuts returns the non-Steam games added to every Steam user's
// library under roots, deduplicated by executable.
func SteamShortcuts(fs afero.Fs, roots []string) []vdfbinary.Shortcut {
	var (
		out  []vdfbinary.Shortcut
		seen = make(map[string]bool)
	)
	for _, root := range roots {
		files, err := afero.Glob(fs, filepath.Join(root, "userdata", "*", "config", "shortcuts.vdf"))
		if err != nil {
			log.Debug().Err(err).Msgf("bad shortcuts glob under %s", root)
			continue
		}
		slices.Sort(files)
		for _, path := range files {
			f, err := fs.Open(path)
			if err != nil {
				log.Debug().Err(err).Msgf("cannot open steam shortcuts: %s", path)
				continue
			}
			shortcuts, err := vdfbinary.ParseShortcuts(f)
			_ = f.Close()
			if err != nil {
				log.Warn().Err(err).Msgf("skipping steam shortcuts: %s", path)
				continue
			}
			for _, sc := range shortcuts {
				if !seen[sc.Exe] {
					seen[sc.Exe] = true
					out = append(out, sc)
				}
			}
		}
	}
	return out
}
