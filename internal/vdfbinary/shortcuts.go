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

package vdfbinary

import (
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
)

var ErrNoShortcuts = errors.New("binary vdf has no shortcuts map")

// Shortcut is a non-Steam game added to the Steam library.
type Shortcut struct {
	AppName       string
	Exe           string
	StartDir      string
	LaunchOptions string
	AppID         uint32
}

// ParseShortcuts reads shortcuts.vdf. Entries without an executable are
// skipped; tools other than Steam often leave the optional keys out.
func ParseShortcuts(r io.Reader) ([]Shortcut, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}

	list, ok := root.GetMap("shortcuts")
	if !ok {
		return nil, ErrNoShortcuts
	}

	keys := make([]string, 0, len(list))
	for k := range list {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	shortcuts := make([]Shortcut, 0, len(keys))
	for _, k := range keys {
		m, ok := list[k].AsMap()
		if !ok {
			continue
		}
		exe, _ := m.GetString("Exe")
		if exe = unquote(exe); exe == "" {
			continue
		}
		s := Shortcut{Exe: exe}
		s.AppName, _ = m.GetString("AppName")
		s.AppID, _ = m.GetUint("appid")
		s.LaunchOptions, _ = m.GetString("LaunchOptions")
		if dir, ok := m.GetString("StartDir"); ok {
			s.StartDir = unquote(dir)
		}
		shortcuts = append(shortcuts, s)
	}
	return shortcuts, nil
}

// Steam writes paths wrapped in double quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
