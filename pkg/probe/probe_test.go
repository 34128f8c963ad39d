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

package probe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withFakePath points PATH at a temp dir containing the given executables.
func withFakePath(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		//nolint:gosec // test executables must be executable
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755))
	}
	t.Setenv("PATH", dir)
	return dir
}

func TestPathProber_Probe(t *testing.T) {
	// Cannot run in parallel due to PATH env modification

	t.Run("present_executable", func(t *testing.T) {
		withFakePath(t, "wine")

		assert.True(t, PathProber{}.Probe("wine"))
	})

	t.Run("missing_executable", func(t *testing.T) {
		withFakePath(t, "wine")

		assert.False(t, PathProber{}.Probe("umu-run"))
	})

	t.Run("non_executable_file_is_not_present", func(t *testing.T) {
		dir := withFakePath(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "flatpak"), []byte("data"), 0o600))

		assert.False(t, PathProber{}.Probe("flatpak"))
	})

	t.Run("empty_name", func(t *testing.T) {
		withFakePath(t, "wine")

		assert.False(t, PathProber{}.Probe(""))
	})
}

func TestPathProber_FindFirst(t *testing.T) {
	t.Run("list_order_is_preference", func(t *testing.T) {
		withFakePath(t, "umu", "umu-run")

		name, ok := PathProber{}.FindFirst("umu-run", "umu")

		require.True(t, ok)
		assert.Equal(t, "umu-run", name)
	})

	t.Run("skips_missing_entries", func(t *testing.T) {
		withFakePath(t, "xterm")

		name, ok := PathProber{}.FindFirst("konsole", "gnome-terminal", "xterm")

		require.True(t, ok)
		assert.Equal(t, "xterm", name)
	})

	t.Run("none_available", func(t *testing.T) {
		withFakePath(t)

		name, ok := PathProber{}.FindFirst("konsole", "kitty")

		assert.False(t, ok)
		assert.Empty(t, name)
	})
}
