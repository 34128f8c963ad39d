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

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()

	entries := c.All()
	require.NotEmpty(t, entries)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].ID, entries[i].ID, "entries should be sorted by id")
	}

	for _, e := range entries {
		assert.NotEmpty(t, e.Name, "entry %s has no name", e.ID)
		assert.True(t, e.Method.Valid(), "entry %s has invalid method %q", e.ID, e.Method)
	}

	ffxiv, ok := c.Get("ffxiv")
	require.True(t, ok)
	assert.Equal(t, MethodPackage, ffxiv.Method)
	assert.Equal(t, "xivlauncher", ffxiv.PackageName())
	assert.Equal(t, "dev.goats.xivlauncher", ffxiv.FlatpakID())
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	_, ok := Default().Get("does-not-exist")
	assert.False(t, ok)
}

func TestFilters(t *testing.T) {
	t.Parallel()

	c := New(
		Entry{ID: "a", Name: "A", Genre: "Fantasy MMORPG", Native: true, Tested: true},
		Entry{ID: "b", Name: "B", Genre: "Sci-Fi MMORPG"},
		Entry{ID: "c", Name: "C", Genre: "Anime MMORPG", Tested: true},
	)

	ids := func(es []Entry) []string {
		out := make([]string, 0, len(es))
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(c.All()))
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Find(Query{})))
	assert.Equal(t, []string{"a"}, ids(c.Find(Query{Genre: "FANTASY"})))
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Find(Query{Genre: "mmorpg"})))
	assert.Equal(t, []string{"a"}, ids(c.Find(Query{Native: true})))
	assert.Equal(t, []string{"a", "c"}, ids(c.Find(Query{Tested: true})))
	assert.Equal(t, []string{"c"}, ids(c.Find(Query{Genre: "anime", Tested: true})))
	assert.Empty(t, c.Find(Query{Genre: "anime", Native: true}))
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("legacy_install_types", func(t *testing.T) {
		t.Parallel()

		c, err := Parse([]byte(`
g1:
  name: One
  install_type: manual_download
g2:
  name: Two
  install_type: aur
g3:
  name: Three
  install_type: flatpak
g4:
  name: Four
  install_type: auto_installer
g5:
  name: Five
  install_type: steam
`))
		require.NoError(t, err)

		want := map[string]Method{
			"g1": MethodArchive,
			"g2": MethodPackage,
			"g3": MethodSandbox,
			"g4": MethodInstaller,
			"g5": MethodNone,
		}
		for id, m := range want {
			e, ok := c.Get(id)
			require.True(t, ok, id)
			assert.Equal(t, m, e.Method, id)
		}
	})

	t.Run("unknown_install_type_falls_back_to_none", func(t *testing.T) {
		t.Parallel()

		c, err := Parse([]byte("g1:\n  name: One\n  install_type: teleport\n"))
		require.NoError(t, err)

		e, ok := c.Get("g1")
		require.True(t, ok)
		assert.Equal(t, MethodNone, e.Method)
	})

	t.Run("bad_field_drops_only_that_entry", func(t *testing.T) {
		t.Parallel()

		c, err := Parse([]byte(`
good:
  name: Good
  install_type: direct_archive
bad:
  name: Bad
  dependencies: "not a list"
  native: [1, 2]
`))
		require.NoError(t, err)

		_, ok := c.Get("good")
		assert.True(t, ok)
		_, ok = c.Get("bad")
		assert.False(t, ok)
	})

	t.Run("missing_name_is_dropped", func(t *testing.T) {
		t.Parallel()

		c, err := Parse([]byte("g1:\n  install_type: none\n"))
		require.NoError(t, err)

		assert.Empty(t, c.All())
	})

	t.Run("invalid_website_is_cleared", func(t *testing.T) {
		t.Parallel()

		c, err := Parse([]byte("g1:\n  name: One\n  website: not a url\n"))
		require.NoError(t, err)

		e, ok := c.Get("g1")
		require.True(t, ok)
		assert.Empty(t, e.Website)
	})

	t.Run("malformed_document", func(t *testing.T) {
		t.Parallel()

		_, err := Parse([]byte("- just\n- a list\n"))
		assert.Error(t, err)
	})
}

func TestEntrySources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		entry       Entry
		wantPackage string
		wantFlatpak string
		wantSteamID int
	}{
		{
			name:        "package_with_flatpak_fallback",
			entry:       Entry{Method: MethodPackage, Source: "flatpak://com.jagex.RuneScape", Package: "runescape-launcher"},
			wantPackage: "runescape-launcher",
			wantFlatpak: "com.jagex.RuneScape",
		},
		{
			name:        "package_name_in_source",
			entry:       Entry{Method: MethodPackage, Source: "xivlauncher"},
			wantPackage: "xivlauncher",
		},
		{
			name:        "bare_flatpak_id",
			entry:       Entry{Method: MethodSandbox, Source: "com.albiononline.AlbionOnline"},
			wantPackage: "com.albiononline.AlbionOnline",
			wantFlatpak: "com.albiononline.AlbionOnline",
		},
		{
			name:        "steam_install_url",
			entry:       Entry{Method: MethodNone, Source: "steam://install/212500"},
			wantSteamID: 212500,
		},
		{
			name:        "steam_short_url",
			entry:       Entry{Method: MethodNone, Source: "steam://1284210"},
			wantSteamID: 1284210,
		},
		{
			name:        "declared_steam_id_wins",
			entry:       Entry{Source: "steam://install/1", Detect: DetectRules{SteamAppID: 2}},
			wantSteamID: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wantPackage, tt.entry.PackageName())
			assert.Equal(t, tt.wantFlatpak, tt.entry.FlatpakID())
			assert.Equal(t, tt.wantSteamID, tt.entry.SteamAppID())
		})
	}
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	m, ok := ParseMethod(" Direct_Archive ")
	assert.True(t, ok)
	assert.Equal(t, MethodArchive, m)

	m, ok = ParseMethod("native")
	assert.True(t, ok)
	assert.Equal(t, MethodNone, m)

	_, ok = ParseMethod("teleport")
	assert.False(t, ok)
	assert.False(t, Method("teleport").Valid())
}
