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
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/mmolauncher/mmolauncher/pkg/testing/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func zipBytes(t testing.TB, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFormatFromName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		format Format
		ok     bool
	}{
		{name: "zip", file: "client.zip", format: FormatZip, ok: true},
		{name: "upper_zip", file: "CLIENT.ZIP", format: FormatZip, ok: true},
		{name: "tar_gz", file: "client.tar.gz", format: FormatTarGz, ok: true},
		{name: "tgz", file: "client.tgz", format: FormatTarGz, ok: true},
		{name: "tar_bz2", file: "client.tar.bz2", format: FormatTarBz2, ok: true},
		{name: "tbz2", file: "client.tbz2", format: FormatTarBz2, ok: true},
		{name: "7z", file: "turtle-wow-1-17-2-client-win.7z", format: Format7z, ok: true},
		{name: "rar", file: "Client.RAR", format: FormatRar, ok: true},
		{name: "exe", file: "setup.exe", ok: false},
		{name: "none", file: "download", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			format, ok := FormatFromName(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestIsDirectDownload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "archive_extension", url: "https://cdn.example/g1.zip", want: true},
		{name: "extension_with_query", url: "https://cdn.example/g1.7z?token=abc", want: true},
		{name: "known_host", url: "https://cdn.turtle-wow.org/client/latest", want: true},
		{name: "known_host_subdomain", url: "https://www.mediafire.com/file/abc/client", want: true},
		{name: "archive_org_download", url: "https://archive.org/download/EverQuestTitanium/x", want: true},
		{name: "archive_org_details", url: "https://archive.org/details/EverQuestTitanium", want: false},
		{name: "shortener", url: "http://bit.ly/3NHonjI", want: true},
		{name: "landing_page", url: "https://www.project1999.com/download", want: false},
		{name: "lookalike_host", url: "https://notbit.ly/abc", want: false},
		{name: "flatpak", url: "flatpak://com.example.App", want: false},
		{name: "steam", url: "steam://install/212500", want: false},
		{name: "empty", url: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsDirectDownload(tt.url))
		})
	}
}

// TestPropertyArchiveURLsAreDirect verifies any http(s) URL whose path ends in a
// known archive extension is a direct download.
func TestPropertyArchiveURLsAreDirect(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		scheme := rapid.SampledFrom([]string{"http", "https"}).Draw(t, "scheme")
		host := rapid.StringMatching(`[a-z]{1,10}\.(com|net|org)`).Draw(t, "host")
		file := rapid.StringMatching(`[a-zA-Z0-9_\-]{1,20}`).Draw(t, "file")
		ext := rapid.SampledFrom([]string{".zip", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".7z", ".rar"}).
			Draw(t, "ext")

		u := scheme + "://" + host + "/" + file + ext
		if !IsDirectDownload(u) {
			t.Fatalf("expected direct download for %q", u)
		}
	})
}

// TestPropertyNonHTTPNeverDirect verifies other schemes are never direct downloads.
func TestPropertyNonHTTPNeverDirect(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		scheme := rapid.SampledFrom([]string{"ftp", "flatpak", "steam", "file", "pkg"}).Draw(t, "scheme")
		rest := rapid.StringMatching(`[a-z0-9./]{1,30}\.zip`).Draw(t, "rest")

		u := scheme + "://" + rest
		if IsDirectDownload(u) {
			t.Fatalf("unexpected direct download for %q", u)
		}
	})
}

func TestSniffFormat(t *testing.T) {
	t.Parallel()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte("tar data"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	tests := []struct {
		name   string
		format Format
		data   []byte
		ok     bool
	}{
		{name: "zip", data: zipBytes(t, map[string]string{"a.txt": "a"}), format: FormatZip, ok: true},
		{name: "gzip", data: gz.Bytes(), format: FormatTarGz, ok: true},
		{name: "html", data: []byte("<!DOCTYPE html><html><body>Download</body></html>"), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/dl/file", tt.data, 0o600))

			format, ok := SniffFormat(fs, "/dl/file")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()
		_, ok := SniffFormat(afero.NewMemMapFs(), "/nope")
		assert.False(t, ok)
	})
}

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  Format
		program string
		present []string
		args    []string
	}{
		{
			name: "unzip", format: FormatZip, present: []string{"unzip", "7z"},
			program: "unzip", args: []string{"-o", "-q", "/g/a.zip", "-d", "/g"},
		},
		{
			name: "zip_falls_back_to_7z", format: FormatZip, present: []string{"7z"},
			program: "7z", args: []string{"x", "-y", "-o/g", "/g/a.zip"},
		},
		{
			name: "tar_gz", format: FormatTarGz, present: []string{"tar"},
			program: "tar", args: []string{"-xzf", "/g/a.zip", "-C", "/g"},
		},
		{
			name: "tar_bz2_bsdtar", format: FormatTarBz2, present: []string{"bsdtar"},
			program: "bsdtar", args: []string{"-xf", "/g/a.zip", "-C", "/g"},
		},
		{
			name: "7z_falls_back_to_7za", format: Format7z, present: []string{"7za"},
			program: "7za", args: []string{"x", "-y", "-o/g", "/g/a.zip"},
		},
		{
			name: "rar", format: FormatRar, present: []string{"unrar"},
			program: "unrar", args: []string{"x", "-o+", "/g/a.zip", "/g/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := &mocks.MockCommandExecutor{}
			cmd.On("Run", mock.Anything, tt.program, tt.args).Return(nil)

			err := Extract(context.Background(), cmd, mocks.NewFakeProber(tt.present...), tt.format, "/g/a.zip", "/g")
			require.NoError(t, err)
			cmd.AssertExpectations(t)
		})
	}

	t.Run("no_extractor", func(t *testing.T) {
		t.Parallel()
		err := Extract(context.Background(), &mocks.MockCommandExecutor{}, mocks.NewFakeProber("tar"),
			FormatRar, "/g/a.rar", "/g")
		require.ErrorIs(t, err, ErrNoExtractor)
	})
}
