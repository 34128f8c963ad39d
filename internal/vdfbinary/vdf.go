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

// Package vdfbinary reads Valve's binary KeyValues format, as used by
// Steam's userdata/<id>/config/shortcuts.vdf.
package vdfbinary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	markerMap       byte = 0x00
	markerString    byte = 0x01
	markerNumber    byte = 0x02
	markerEndOfMap  byte = 0x08
	markerEndOfText byte = 0x00
)

var (
	ErrEmpty     = errors.New("binary vdf is empty")
	ErrNotBinary = errors.New("not a binary vdf")
	ErrCorrupted = errors.New("binary vdf ended early")
)

// Map is a parsed map node. Keys are lowercased.
type Map map[string]Value

// Value is a map, string or uint32 node.
type Value struct {
	v any
}

func (v Value) AsMap() (Map, bool) {
	m, ok := v.v.(Map)
	return m, ok
}

func (v Value) AsString() (string, bool) {
	s, ok := v.v.(string)
	return s, ok
}

func (v Value) AsUint() (uint32, bool) {
	n, ok := v.v.(uint32)
	return n, ok
}

// Get looks up key case-insensitively.
func (m Map) Get(key string) (Value, bool) {
	v, ok := m[strings.ToLower(key)]
	return v, ok
}

func (m Map) GetString(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func (m Map) GetUint(key string) (uint32, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsUint()
}

func (m Map) GetMap(key string) (Map, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	return v.AsMap()
}

// Parse reads the root map of a binary vdf document.
func Parse(r io.Reader) (Map, error) {
	buf := bufio.NewReader(r)

	head, err := buf.Peek(1)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vdf: %w", err)
	}

	switch head[0] {
	case markerMap, markerString, markerNumber, markerEndOfMap:
	default:
		return nil, ErrNotBinary
	}

	m, err := parseMap(buf, 0)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, ErrCorrupted
	}
	return m, err
}

// maxDepth bounds map nesting. Steam writes at most a few levels.
const maxDepth = 32

func parseMap(buf *bufio.Reader, depth int) (Map, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: maps nested deeper than %d", ErrCorrupted, maxDepth)
	}
	m := make(Map)
	for {
		marker, err := buf.ReadByte()
		if err != nil {
			return nil, err //nolint:wrapcheck // EOF is checked by Parse
		}
		if marker == markerEndOfMap {
			return m, nil
		}

		key, err := readString(buf)
		if err != nil {
			return nil, err
		}

		var v Value
		switch marker {
		case markerMap:
			var child Map
			child, err = parseMap(buf, depth+1)
			v = Value{child}
		case markerString:
			var s string
			s, err = readString(buf)
			v = Value{s}
		case markerNumber:
			var n uint32
			n, err = readNumber(buf)
			v = Value{n}
		default:
			err = fmt.Errorf("%w: unexpected marker 0x%02x", ErrNotBinary, marker)
		}
		if err != nil {
			return nil, err
		}

		m[strings.ToLower(key)] = v
	}
}

func readString(buf *bufio.Reader) (string, error) {
	s, err := buf.ReadString(markerEndOfText)
	if err != nil {
		return "", err //nolint:wrapcheck // EOF is checked by Parse
	}
	return s[:len(s)-1], nil
}

func readNumber(buf *bufio.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(buf, b[:]); err != nil {
		return 0, err //nolint:wrapcheck // EOF is checked by Parse
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
