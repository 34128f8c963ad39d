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

// Package fixtures builds on-disk data of the launchers and stores the
// detector reads.
package fixtures

import (
	"bytes"
	"encoding/binary"
	"strconv"

	"github.com/mmolauncher/mmolauncher/internal/vdfbinary"
)

// LibraryFolders is a Steam libraryfolders.vdf with a second library at
// /mnt/games/SteamLibrary.
const LibraryFolders = `"libraryfolders"
{
	"0"
	{
		"path"		"/home/test/.local/share/Steam"
		"apps"
		{
			"228980"		"0"
		}
	}
	"1"
	{
		"path"		"/mnt/games/SteamLibrary"
		"apps"
		{
			"212500"		"0"
		}
	}
}
`

// AppManifest returns an appmanifest_<id>.acf body.
func AppManifest(appID int, name string) string {
	return `"AppState"
{
	"appid"		"` + strconv.Itoa(appID) + `"
	"name"		"` + name + `"
	"StateFlags"		"4"
}
`
}

// ShortcutsVDF encodes shortcuts the way Steam writes
// userdata/<id>/config/shortcuts.vdf, with quoted paths.
func ShortcutsVDF(shortcuts ...vdfbinary.Shortcut) []byte {
	var buf bytes.Buffer
	key := func(marker byte, k string) {
		buf.WriteByte(marker)
		buf.WriteString(k)
		buf.WriteByte(0)
	}
	str := func(k, v string) {
		key(0x01, k)
		buf.WriteString(v)
		buf.WriteByte(0)
	}

	key(0x00, "shortcuts")
	for i, sc := range shortcuts {
		key(0x00, strconv.Itoa(i))
		key(0x02, "appid")
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], sc.AppID)
		buf.Write(n[:])
		str("AppName", sc.AppName)
		str("Exe", `"`+sc.Exe+`"`)
		str("StartDir", `"`+sc.StartDir+`"`)
		str("LaunchOptions", sc.LaunchOptions)
		buf.WriteByte(0x08)
	}
	buf.WriteByte(0x08)
	buf.WriteByte(0x08)
	return buf.Bytes()
}
