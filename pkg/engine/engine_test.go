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

package engine

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/config"
	"github.com/mmolauncher/mmolauncher/pkg/state"
	"github.com/mmolauncher/mmolauncher/pkg/testing/helpers"
	"github.com/mmolauncher/mmolauncher/pkg/testing/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	gamesDir   = "/home/test/Games"
	scriptsDir = "/home/test/.local/share/mmo-launcher/scripts"
)

var statePath = helpers.TestStatePath

type harness struct {
	fs     afero.Fs
	cmd    *mocks.MockCommandExecutor
	prober *mocks.FakeProber
	lines  []string
}

func newHarness(t *testing.T, tools ...string) *harness {
	t.Helper()
	helpers.ClearEnv(t)
	return &harness{
		fs:     afero.NewMemMapFs(),
		cmd:    &mocks.MockCommandExecutor{},
		prober: mocks.NewFakeProber(tools...),
	}
}

func (h *harness) progress(s string) {
	h.lines = append(h.lines, s)
}

func (h *harness) engine(t *testing.T, detectOnStartup bool, client *http.Client, entries ...catalog.Entry) *Engine {
	t.Helper()

	defaults := config.BaseDefaults
	defaults.Detect.OnStartup = detectOnStartup
	cfg := helpers.NewTestConfig(t, h.fs, defaults)

	e, err := New(context.Background(), Options{
		Config:     cfg,
		Catalog:    catalog.New(entries...),
		Fs:         h.fs,
		Executor:   h.cmd,
		Prober:     h.prober,
		HTTPClient: client,
	})
	require.NoError(t, err)
	return e
}

func (h *harness) seed(t *testing.T, records state.Records) {
	t.Helper()
	require.True(t, state.NewStore(h.fs, statePath).Save(records))
}

func (h *harness) saved() state.Records {
	return state.NewStore(h.fs, statePath).Load()
}

func zipServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("g1.exe")
	require.NoError(t, err)
	_, err = f.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func archiveEntry(source string) catalog.Entry {
	return catalog.Entry{
		ID:         "g1",
		Name:       "Game One",
		Method:     catalog.MethodArchive,
		Source:     source,
		Executable: "g1.exe",
		Notes:      "Set the realmlist",
		Detect:     catalog.DetectRules{Executables: []string{"g1.exe"}},
	}
}

func TestNewRequiresConfig(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), Options{})
	require.ErrorIs(t, err, ErrNoConfig)
}

func TestUnknownGame(t *testing.T) {
	h := newHarness(t)
	e := h.engine(t, false, nil)

	assert.False(t, e.Install(context.Background(), "nope", h.progress))
	assert.False(t, e.IsInstalled("nope"))
	_, ok := e.GamePath("nope")
	assert.False(t, ok)
	assert.False(t, e.Launch(context.Background(), "nope"))
	assert.Contains(t, h.lines, "Unknown game: nope")
}

func TestInstallDirectArchive(t *testing.T) {
	srv := zipServer(t)
	h := newHarness(t, "unzip")
	dir := filepath.Join(gamesDir, "g1")
	h.cmd.On("Run", mock.Anything, "unzip", []string{"-o", "-q", dir + "/g1.zip", "-d", dir}).
		Run(func(mock.Arguments) {
			require.NoError(t, afero.WriteFile(h.fs, dir+"/g1.exe", []byte("MZ"), 0o600))
		}).
		Return(nil)

	e := h.engine(t, false, srv.Client(), archiveEntry(srv.URL+"/g1.zip"))

	require.True(t, e.Install(context.Background(), "g1", h.progress))
	assert.True(t, e.IsInstalled("g1"))

	path, ok := e.GamePath("g1")
	require.True(t, ok)
	assert.Equal(t, dir, path)

	exists, err := afero.Exists(h.fs, dir+"/g1.zip")
	require.NoError(t, err)
	assert.False(t, exists, "archive removed")

	rec, ok := h.saved()["g1"]
	require.True(t, ok)
	assert.Equal(t, catalog.MethodArchive, rec.Method)
	assert.Equal(t, state.StatusInstalled, rec.Status)
	assert.Contains(t, h.lines, "Starting installation of Game One")
	assert.Contains(t, h.lines, "All dependencies already installed")

	// a second install is a no-op
	assert.True(t, e.Install(context.Background(), "g1", h.progress))
	h.cmd.AssertNumberOfCalls(t, "Run", 1)
}

func TestInstallWithoutDirectDownloadIsPending(t *testing.T) {
	h := newHarness(t)
	e := h.engine(t, false, nil, archiveEntry("https://example.com/download"))

	assert.False(t, e.Install(context.Background(), "g1", h.progress))
	assert.False(t, e.IsInstalled("g1"))

	rec, ok := e.Record("g1")
	require.True(t, ok)
	assert.Equal(t, state.StatusPendingManual, rec.Status)

	path, ok := e.GamePath("g1")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(gamesDir, "g1"), path)

	assert.Contains(t, h.lines, "Please download client from: https://example.com/download")
	assert.False(t, e.Launch(context.Background(), "g1"))
	h.cmd.AssertNotCalled(t, "StartWithOptions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	assert.Equal(t, state.StatusPendingManual, h.saved()["g1"].Status)
}

func TestPendingInstallFindsExistingCopy(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, gamesDir+"/GameOne/G1.EXE", []byte("MZ"), 0o600))
	h.seed(t, state.Records{
		"g1": {Name: "Game One", Path: "/old", Method: catalog.MethodArchive, Status: state.StatusPendingManual},
	})
	e := h.engine(t, false, nil, archiveEntry("https://example.com/download"))

	require.True(t, e.Install(context.Background(), "g1", h.progress))
	assert.True(t, e.IsInstalled("g1"))
	assert.Contains(t, h.lines, "Found existing installation at "+gamesDir+"/GameOne")

	rec := h.saved()["g1"]
	assert.True(t, rec.AutoDetected)
	assert.Equal(t, gamesDir+"/GameOne", rec.Path)
	assert.Equal(t, gamesDir+"/GameOne/G1.EXE", rec.Executable)
}

func TestPendingInstallReplacesPreviousRecord(t *testing.T) {
	h := newHarness(t)
	h.seed(t, state.Records{
		"g1": {Name: "Game One", Path: "/old", Method: catalog.MethodArchive, Status: state.StatusPendingManual},
	})
	e := h.engine(t, false, nil, archiveEntry("https://example.com/download"))

	assert.False(t, e.Install(context.Background(), "g1", h.progress))
	rec := h.saved()["g1"]
	assert.Equal(t, state.StatusPendingManual, rec.Status)
	assert.Equal(t, filepath.Join(gamesDir, "g1"), rec.Path)
	assert.NotContains(t, h.lines, "Could not find the installed game, finish the installation manually")
}

func TestInstallPackageFallsBackToFlatpak(t *testing.T) {
	entry := catalog.Entry{
		ID:      "g4",
		Name:    "Game Four",
		Method:  catalog.MethodPackage,
		Package: "game-four",
		Flatpak: "org.example.GameFour",
	}

	t.Run("flatpak_installs", func(t *testing.T) {
		h := newHarness(t, "flatpak")
		h.cmd.On("Run", mock.Anything, "flatpak", []string{"install", "-y", "flathub", "org.example.GameFour"}).
			Return(nil)
		e := h.engine(t, false, nil, entry)

		require.True(t, e.Install(context.Background(), "g4", h.progress))
		rec, ok := e.Record("g4")
		require.True(t, ok)
		assert.Equal(t, "flatpak://org.example.GameFour", rec.Path)
		assert.Equal(t, catalog.MethodSandbox, rec.Method)
	})

	t.Run("no_flatpak_source", func(t *testing.T) {
		h := newHarness(t, "flatpak")
		noFlatpak := entry
		noFlatpak.Flatpak = ""
		e := h.engine(t, false, nil, noFlatpak)

		assert.False(t, e.Install(context.Background(), "g4", h.progress))
		_, ok := e.Record("g4")
		assert.False(t, ok)
		assert.Empty(t, h.saved())
		h.cmd.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCheckDependenciesAfterInstall(t *testing.T) {
	h := newHarness(t, "pacman")
	h.cmd.On("Run", mock.Anything, "sudo", []string{"pacman", "-S", "--needed", "--noconfirm", "wine"}).
		Run(func(mock.Arguments) { h.prober.Add("wine") }).
		Return(nil)

	e := h.engine(t, false, nil, catalog.Entry{
		ID:           "g5",
		Name:         "Game Five",
		Method:       catalog.MethodNone,
		Website:      "https://example.com",
		Dependencies: []string{"wine"},
	})

	assert.Equal(t, map[string]bool{"wine": false}, e.CheckDependencies([]string{"wine"}))

	// manual games still get their dependencies
	assert.False(t, e.Install(context.Background(), "g5", h.progress))
	assert.Equal(t, map[string]bool{"wine": true}, e.CheckDependencies([]string{"wine"}))
	h.cmd.AssertExpectations(t)
}

func TestUninstall(t *testing.T) {
	dir := filepath.Join(gamesDir, "g1")

	t.Run("missing_record", func(t *testing.T) {
		h := newHarness(t)
		e := h.engine(t, false, nil, archiveEntry(""))

		assert.False(t, e.Uninstall(context.Background(), "g1", h.progress))
		exists, err := afero.Exists(h.fs, statePath)
		require.NoError(t, err)
		assert.False(t, exists, "store untouched")
	})

	t.Run("removes_directory_and_record", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, afero.WriteFile(h.fs, dir+"/g1.exe", []byte("MZ"), 0o600))
		h.seed(t, state.Records{
			"g1": {Name: "Game One", Path: dir, Method: catalog.MethodArchive, Status: state.StatusInstalled},
		})
		e := h.engine(t, false, nil, archiveEntry(""))

		require.True(t, e.Uninstall(context.Background(), "g1", h.progress))
		exists, err := afero.DirExists(h.fs, dir)
		require.NoError(t, err)
		assert.False(t, exists)
		assert.False(t, e.IsInstalled("g1"))
		assert.Empty(t, h.saved())
	})

	t.Run("detected_outside_games_dir_keeps_files", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, afero.WriteFile(h.fs, "/opt/g1/g1.exe", []byte("MZ"), 0o600))
		h.seed(t, state.Records{
			"g1": {Name: "Game One", Path: "/opt/g1", Method: catalog.MethodNone, AutoDetected: true},
		})
		e := h.engine(t, false, nil, archiveEntry(""))

		require.True(t, e.Uninstall(context.Background(), "g1", h.progress))
		exists, err := afero.Exists(h.fs, "/opt/g1/g1.exe")
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Contains(t, h.lines, "Files left in place: /opt/g1")
		assert.Empty(t, h.saved())
	})

	t.Run("detected_shared_folder_keeps_files", func(t *testing.T) {
		h := newHarness(t)
		shared := gamesDir + "/umu"
		require.NoError(t, afero.WriteFile(h.fs, shared+"/g1.exe", []byte("MZ"), 0o600))
		require.NoError(t, afero.WriteFile(h.fs, shared+"/other/other.exe", []byte("MZ"), 0o600))
		h.seed(t, state.Records{
			"g1": {
				Name:         "Game One",
				Path:         shared,
				Method:       catalog.MethodArchive,
				Executable:   shared + "/g1.exe",
				AutoDetected: true,
			},
		})
		e := h.engine(t, false, nil, archiveEntry(""))

		require.True(t, e.Uninstall(context.Background(), "g1", h.progress))
		for _, p := range []string{shared + "/g1.exe", shared + "/other/other.exe"} {
			exists, err := afero.Exists(h.fs, p)
			require.NoError(t, err)
			assert.True(t, exists, p)
		}
		assert.Contains(t, h.lines, "Files left in place: "+shared)
		assert.Empty(t, h.saved())
	})

	t.Run("flatpak_failure_keeps_record", func(t *testing.T) {
		h := newHarness(t)
		h.cmd.On("Run", mock.Anything, "flatpak", []string{"uninstall", "-y", "org.example.G1"}).
			Return(assert.AnError)
		h.seed(t, state.Records{
			"g1": {Name: "Game One", Path: "flatpak://org.example.G1", Method: catalog.MethodSandbox},
		})
		e := h.engine(t, false, nil, archiveEntry(""))

		assert.False(t, e.Uninstall(context.Background(), "g1", h.progress))
		assert.True(t, e.IsInstalled("g1"))
		assert.Contains(t, h.saved(), "g1")
	})

	t.Run("package_removed", func(t *testing.T) {
		h := newHarness(t, "apt")
		h.cmd.On("Run", mock.Anything, "sudo", []string{"apt", "remove", "-y", "game-one"}).Return(nil)
		h.seed(t, state.Records{
			"g1": {Name: "Game One", Path: "pkg://game-one", Method: catalog.MethodPackage},
		})
		e := h.engine(t, false, nil, archiveEntry(""))

		require.True(t, e.Uninstall(context.Background(), "g1", h.progress))
		h.cmd.AssertExpectations(t)
		assert.Empty(t, h.saved())
	})
}

func TestMalformedStateLoadsEmpty(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, statePath, []byte("{not json"), 0o600))

	e := h.engine(t, false, nil, archiveEntry(""))
	assert.Empty(t, e.Records())
	assert.False(t, e.IsInstalled("g1"))
}

func TestStartupDetection(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, afero.WriteFile(h.fs, gamesDir+"/g1/g1.exe", []byte("MZ"), 0o600))
	require.NoError(t, afero.WriteFile(h.fs, gamesDir+"/g2/g2.exe", []byte("MZ"), 0o600))
	h.seed(t, state.Records{
		"g1": {Name: "Game One", Path: "/mnt/custom", Method: catalog.MethodArchive, Status: state.StatusInstalled},
	})

	g2 := catalog.Entry{
		ID:     "g2",
		Name:   "Game Two",
		Method: catalog.MethodInstaller,
		Detect: catalog.DetectRules{Executables: []string{"G2.EXE"}},
	}
	e := h.engine(t, true, nil, archiveEntry(""), g2)

	path, ok := e.GamePath("g1")
	require.True(t, ok)
	assert.Equal(t, "/mnt/custom", path, "existing record kept")

	rec, ok := e.Record("g2")
	require.True(t, ok)
	assert.True(t, rec.AutoDetected)
	assert.Equal(t, gamesDir+"/g2", rec.Path)
	assert.Equal(t, gamesDir+"/g2/g2.exe", rec.Executable)
	assert.Contains(t, h.saved(), "g2")

	assert.Zero(t, e.Detect(context.Background()))
}

func TestHelperScriptConfirmedByDetection(t *testing.T) {
	dir := filepath.Join(gamesDir, "g1")
	script := filepath.Join(scriptsDir, "g1.sh")

	t.Run("confirmed", func(t *testing.T) {
		h := newHarness(t, "kitty")
		require.NoError(t, afero.WriteFile(h.fs, script, []byte("#!/bin/sh\n"), 0o700))
		h.cmd.On("Run", mock.Anything, "kitty", mock.Anything).
			Run(func(mock.Arguments) {
				require.NoError(t, afero.WriteFile(h.fs, dir+"/client/g1.exe", []byte("MZ"), 0o600))
			}).
			Return(nil)
		h.seed(t, state.Records{
			"g1": {Name: "Game One", Path: dir, Method: catalog.MethodArchive, Status: state.StatusPendingManual},
		})
		e := h.engine(t, false, nil, archiveEntry("https://example.com/download"))

		require.True(t, e.Install(context.Background(), "g1", h.progress))
		rec, ok := e.Record("g1")
		require.True(t, ok)
		assert.True(t, rec.Installed())
		assert.Equal(t, dir+"/client/g1.exe", rec.Executable)
		assert.True(t, h.saved()["g1"].Installed())
	})

	t.Run("not_found_restores_previous", func(t *testing.T) {
		h := newHarness(t, "kitty")
		require.NoError(t, afero.WriteFile(h.fs, script, []byte("#!/bin/sh\n"), 0o700))
		h.cmd.On("Run", mock.Anything, "kitty", mock.Anything).Return(nil)
		prev := state.Record{
			Name:   "Game One",
			Path:   "/mnt/elsewhere",
			Method: catalog.MethodArchive,
			Status: state.StatusPendingManual,
		}
		h.seed(t, state.Records{"g1": prev})
		e := h.engine(t, false, nil, archiveEntry("https://example.com/download"))

		assert.False(t, e.Install(context.Background(), "g1", h.progress))
		rec, ok := e.Record("g1")
		require.True(t, ok)
		assert.Equal(t, prev, rec)
		assert.Equal(t, prev, h.saved()["g1"])
	})

	t.Run("not_found_records_pending", func(t *testing.T) {
		h := newHarness(t, "kitty")
		require.NoError(t, afero.WriteFile(h.fs, script, []byte("#!/bin/sh\n"), 0o700))
		h.cmd.On("Run", mock.Anything, "kitty", mock.Anything).Return(nil)
		e := h.engine(t, false, nil, archiveEntry("https://example.com/download"))

		assert.False(t, e.Install(context.Background(), "g1", h.progress))
		rec, ok := e.Record("g1")
		require.True(t, ok)
		assert.Equal(t, state.StatusPendingManual, rec.Status)
		assert.Equal(t, dir, rec.Path)
	})
}

func TestLaunchInstalled(t *testing.T) {
	h := newHarness(t, "flatpak")
	h.cmd.On("StartWithOptions", mock.Anything, mock.Anything, "flatpak", []string{"run", "org.example.G1"}).
		Return(nil)
	h.seed(t, state.Records{
		"g1": {Name: "Game One", Path: "flatpak://org.example.G1", Method: catalog.MethodSandbox},
	})
	e := h.engine(t, false, nil, archiveEntry(""))

	assert.True(t, e.Launch(context.Background(), "g1"))
	h.cmd.AssertExpectations(t)
}

func TestChannelProgress(t *testing.T) {
	t.Parallel()
	ch := make(chan string, 2)
	p := ChannelProgress(ch)
	p("one")
	p.notify("two")
	assert.Equal(t, "one", <-ch)
	assert.Equal(t, "two", <-ch)

	var none Progress
	none.notify("dropped")
}
