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

// Package virtualpath builds and parses the pseudo paths stored in
// installation records for targets that have no install directory, such as
// "flatpak://com.jagex.RuneScape" or "pkg://xivlauncher".
package virtualpath

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	SchemeFlatpak = "flatpak"
	SchemePackage = "pkg"
	SchemeSteam   = "steam"
	SchemeLutris  = "lutris"
	// SchemeAUR is the legacy package scheme written by older releases.
	SchemeAUR = "aur"
)

var (
	ErrNotVirtual = errors.New("not a virtual path")
	ErrMissingID  = errors.New("missing ID in virtual path")
)

// Path holds parsed virtual path components. Rest is anything after the first
// slash following the ID, e.g. "212500" for "steam://install/212500".
type Path struct {
	Scheme string
	ID     string
	Rest   string
}

// Create returns scheme://id with the ID path-escaped.
// Example: "flatpak", "dev.goats.xivlauncher" -> "flatpak://dev.goats.xivlauncher"
func Create(scheme, id string) string {
	return scheme + "://" + url.PathEscape(id)
}

// ContainsControlChar checks if a string contains any control characters (0x00-0x1F, 0x7F)
func ContainsControlChar(s string) bool {
	for i := range len(s) {
		c := s[i]
		if c < 0x20 || c == 0x7F {
			return true
		}
	}
	return false
}

// IsValidScheme validates that a scheme follows RFC 3986 rules:
// - Must start with a letter
// - Can contain letters, digits, '+', '-', '.'
func IsValidScheme(scheme string) bool {
	if scheme == "" {
		return false
	}
	c := scheme[0]
	if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
		return false
	}
	for i := 1; i < len(scheme); i++ {
		c := scheme[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') &&
			(c < '0' || c > '9') && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

// Parse splits a virtual path into scheme, ID and the remainder. Filesystem
// paths return ErrNotVirtual.
func Parse(p string) (Path, error) {
	if ContainsControlChar(p) {
		return Path{}, ErrNotVirtual
	}

	idx := strings.Index(p, "://")
	if idx <= 0 || !IsValidScheme(p[:idx]) {
		return Path{}, ErrNotVirtual
	}

	res := Path{Scheme: strings.ToLower(p[:idx])}
	rest := p[idx+3:]
	if q := strings.Index(rest, "?"); q >= 0 {
		rest = rest[:q]
	}

	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		return res, ErrMissingID
	}
	if decoded, err := url.PathUnescape(id); err == nil {
		id = decoded
	}
	res.ID = id
	res.Rest = strings.TrimSuffix(tail, "/")

	return res, nil
}

// IsVirtual reports whether p is a scheme://id pseudo path rather than a
// filesystem path.
func IsVirtual(p string) bool {
	_, err := Parse(p)
	return err == nil
}

// ExtractID returns the ID of p if its scheme matches one of schemes
// (case-insensitively).
func ExtractID(p string, schemes ...string) (string, error) {
	res, err := Parse(p)
	if err != nil {
		return "", fmt.Errorf("failed to parse virtual path: %w", err)
	}
	for _, s := range schemes {
		if strings.EqualFold(res.Scheme, s) {
			return res.ID, nil
		}
	}
	return "", fmt.Errorf("scheme mismatch: expected %v, got %s", schemes, res.Scheme)
}
