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

// Package catalog holds the static, read-only game catalog: what each game is
// and how it is acquired, launched and recognized when installed elsewhere.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/virtualpath"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed games.yaml
var defaultData []byte

// DetectRules describe how to recognize an installation the launcher did not
// perform itself.
type DetectRules struct {
	// Executables are candidate file names, compared case-insensitively.
	Executables []string `yaml:"executables"`
	// Markers must appear (case-insensitively) in the parent path of an
	// executable match when any are declared.
	Markers    []string `yaml:"markers"`
	Packages   []string `yaml:"packages"`
	Flatpaks   []string `yaml:"flatpaks"`
	LutrisSlug string   `yaml:"lutris_slug"`
	SteamAppID int      `yaml:"steam_app_id"`
}

// Entry describes one installable game.
type Entry struct {
	ID            string      `yaml:"-"             validate:"required"`
	Name          string      `yaml:"name"          validate:"required"`
	Genre         string      `yaml:"genre"`
	Server        string      `yaml:"server"`
	Population    string      `yaml:"population"`
	Description   string      `yaml:"description"`
	Website       string      `yaml:"website"       validate:"omitempty,url"`
	Method        Method      `yaml:"install_type"`
	Source        string      `yaml:"source"`
	Package       string      `yaml:"package"`
	Flatpak       string      `yaml:"flatpak"`
	LaunchCommand string      `yaml:"launch_command"`
	Executable    string      `yaml:"executable"`
	Notes         string      `yaml:"install_notes"`
	Dependencies  []string    `yaml:"dependencies"`
	Detect        DetectRules `yaml:"detect"`
	Native        bool        `yaml:"native"`
	Tested        bool        `yaml:"tested"`
}

// PackageName is the native package installed by the package manager method.
func (e *Entry) PackageName() string {
	if e.Package != "" {
		return e.Package
	}
	if virtualpath.IsVirtual(e.Source) {
		return ""
	}
	return e.Source
}

// FlatpakID is the Flatpak app id for the sandboxed method, or the fallback
// of the package manager method.
func (e *Entry) FlatpakID() string {
	if e.Flatpak != "" {
		return e.Flatpak
	}
	if id, err := virtualpath.ExtractID(e.Source, virtualpath.SchemeFlatpak); err == nil {
		return id
	}
	if e.Method == MethodSandbox && !strings.Contains(e.Source, "://") {
		return e.Source
	}
	return ""
}

var steamIDRe = regexp.MustCompile(`^\d+$`)

// SteamAppID returns the declared Steam app id, falling back to a
// steam://install/<id> or steam://<id> source.
func (e *Entry) SteamAppID() int {
	if e.Detect.SteamAppID > 0 {
		return e.Detect.SteamAppID
	}
	p, err := virtualpath.Parse(e.Source)
	if err != nil || p.Scheme != virtualpath.SchemeSteam {
		return 0
	}
	candidate := p.ID
	if !steamIDRe.MatchString(candidate) {
		candidate = p.Rest
	}
	id, err := strconv.Atoi(candidate)
	if err != nil {
		return 0
	}
	return id
}

// Lookup is the read-only view of the catalog used by the engine.
type Lookup interface {
	Get(id string) (Entry, bool)
	All() []Entry
	Find(q Query) []Entry
}

// Query narrows a catalog listing. Zero fields match everything.
type Query struct {
	// Genre matches entries whose genre contains it, case-insensitively.
	Genre  string
	Native bool
	Tested bool
}

func (q Query) matches(e *Entry) bool {
	if q.Genre != "" && !strings.Contains(strings.ToLower(e.Genre), strings.ToLower(q.Genre)) {
		return false
	}
	return (!q.Native || e.Native) && (!q.Tested || e.Tested)
}

// Catalog is an immutable set of entries keyed by id.
type Catalog struct {
	entries map[string]Entry
}

var _ Lookup = (*Catalog)(nil)

// New builds a catalog from entries. Later duplicates replace earlier ones.
func New(entries ...Entry) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		c.entries[e.ID] = e
	}
	return c
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultData)
		if err != nil {
			log.Error().Err(err).Msg("embedded catalog is invalid")
			c = New()
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse decodes a YAML document mapping ids to entries. Only a malformed
// top-level document is an error; a bad entry is logged and dropped, and a bad
// field is replaced with its default.
func Parse(data []byte) (*Catalog, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	c := New()
	for id, node := range doc {
		var e Entry
		if err := node.Decode(&e); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("skipping unparseable catalog entry")
			continue
		}
		e.ID = id

		if !e.Method.Valid() {
			log.Warn().Str("id", id).Str("install_type", string(e.Method)).
				Msg("unknown install type, treating as manual")
			e.Method = MethodNone
		}

		if err := v.Struct(&e); err != nil {
			if !recoverInvalid(&e, err) {
				log.Warn().Err(err).Str("id", id).Msg("skipping invalid catalog entry")
				continue
			}
		}

		c.entries[id] = e
	}

	log.Debug().Msgf("loaded %d catalog entries", len(c.entries))
	return c, nil
}

// recoverInvalid clears optional fields that failed validation. It returns
// false when a required field is at fault.
func recoverInvalid(e *Entry, err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Website":
			log.Warn().Str("id", e.ID).Str("website", e.Website).Msg("invalid website, clearing")
			e.Website = ""
		default:
			return false
		}
	}
	return true
}

func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// All returns every entry sorted by id.
func (c *Catalog) All() []Entry {
	return c.filter(func(Entry) bool { return true })
}

// Find returns the entries matching q, sorted by id.
func (c *Catalog) Find(q Query) []Entry {
	return c.filter(func(e Entry) bool { return q.matches(&e) })
}

func (c *Catalog) filter(keep func(Entry) bool) []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
