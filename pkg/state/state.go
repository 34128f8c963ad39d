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

// Package state persists what the launcher knows to be installed.
package state

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type Status string

const (
	StatusInstalled     Status = "installed"
	StatusPendingManual Status = "pending_manual"
)

// Record describes one installation. Path is a directory or a virtual path
// such as flatpak://<id> or pkg://<name>.
type Record struct {
	Name         string         `json:"name"`
	Path         string         `json:"path"`
	Method       catalog.Method `json:"install_type"`
	Status       Status         `json:"status,omitempty"`
	Prefix       string         `json:"prefix,omitempty"`
	Executable   string         `json:"executable,omitempty"`
	AutoDetected bool           `json:"auto_detected,omitempty"`
}

// Installed is false for records that still need user action.
func (r Record) Installed() bool {
	return r.Status != StatusPendingManual
}

// Records are keyed by catalog id.
type Records map[string]Record

// IDs returns the record keys sorted.
func (r Records) IDs() []string {
	return slices.Sorted(maps.Keys(r))
}

type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the state file. A missing or unreadable file yields an empty
// set; records with an unsupported method are dropped.
func (s *Store) Load() Records {
	records := make(Records)

	data, err := afero.ReadFile(s.fs, s.path)
	if os.IsNotExist(err) {
		return records
	} else if err != nil {
		log.Warn().Err(err).Msgf("failed to read state file: %s", s.path)
		return records
	}

	var raw map[string]Record
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Msgf("state file is malformed, starting empty: %s", s.path)
		return records
	}

	for id, rec := range raw {
		if !rec.Method.Valid() {
			log.Warn().Msgf("dropping record %s with unsupported install type: %s", id, rec.Method)
			continue
		}
		if rec.Status == "" {
			rec.Status = StatusInstalled
		}
		records[id] = rec
	}

	return records
}

// Save overwrites the state file with records. The data is written to a
// temporary file first and renamed into place.
func (s *Store) Save(records Records) bool {
	if err := s.save(records); err != nil {
		log.Error().Err(err).Msg("failed to save state")
		return false
	}
	return true
}

func (s *Store) save(records Records) error {
	if records == nil {
		records = Records{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
