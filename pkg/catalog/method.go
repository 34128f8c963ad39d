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
	"slices"
	"strings"
)

// Method is the acquisition method used to obtain a game's files.
type Method string

const (
	// MethodNone covers native clients and store pages: no automation, only
	// instructions.
	MethodNone Method = "none"
	// MethodArchive downloads and extracts a client archive, or hands over to
	// a helper script.
	MethodArchive Method = "direct_archive"
	// MethodInstaller downloads a vendor setup program and runs it under the
	// compatibility layer.
	MethodInstaller Method = "vendor_installer"
	// MethodPackage installs through the host package manager in a terminal.
	MethodPackage Method = "package_manager"
	// MethodSandbox installs a Flatpak app.
	MethodSandbox Method = "sandboxed_app"
)

// legacyMethods maps install types used by older catalogs and state files.
var legacyMethods = map[string]Method{
	"native":          MethodNone,
	"steam":           MethodNone,
	"manual_download": MethodArchive,
	"auto_installer":  MethodInstaller,
	"aur":             MethodPackage,
	"flatpak":         MethodSandbox,
}

// Methods lists every supported method.
var Methods = []Method{MethodNone, MethodArchive, MethodInstaller, MethodPackage, MethodSandbox}

// ParseMethod normalizes s, accepting legacy names. The second value is false
// for unsupported methods.
func ParseMethod(s string) (Method, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range Methods {
		if string(m) == s {
			return m, true
		}
	}
	if m, ok := legacyMethods[s]; ok {
		return m, true
	}
	return Method(s), false
}

// Valid reports whether m is a supported, normalized method.
func (m Method) Valid() bool {
	return slices.Contains(Methods, m)
}

// UnmarshalText normalizes legacy names. Unsupported values are kept as-is so
// callers can check Valid and decide how to recover.
func (m *Method) UnmarshalText(text []byte) error {
	*m, _ = ParseMethod(string(text))
	return nil
}

func (m Method) String() string {
	return string(m)
}
