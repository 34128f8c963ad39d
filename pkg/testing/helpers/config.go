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

package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mmolauncher/mmolauncher/pkg/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestDirs are per-user directories below /home/test, for in-memory
// filesystems.
var TestDirs = config.Dirs{
	Config: "/home/test/.config/mmo-launcher",
	Data:   "/home/test/.local/share/mmo-launcher",
	State:  "/home/test/.local/state/mmo-launcher",
	Home:   "/home/test",
}

// TestStatePath is the state file under TestDirs.
var TestStatePath = filepath.Join(TestDirs.Config, config.StateFile)

// ClearEnv unsets the config environment overrides for the test. Tests
// calling it cannot run in parallel.
func ClearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MMOLAUNCHER_CONFIG", "MMOLAUNCHER_GAMES_DIR", "MMOLAUNCHER_DEBUG"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

// NewTestConfig loads a config from fs under TestDirs, writing defaults
// first when no file exists.
//
//nolint:gocritic // config struct copied for immutability
func NewTestConfig(t *testing.T, fs afero.Fs, defaults config.Values) *config.Instance {
	t.Helper()
	cfg, err := config.NewConfig(fs, TestDirs, defaults)
	require.NoError(t, err)
	return cfg
}
