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

// Package detect finds games installed outside the launcher and records
// them.
package detect

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/virtualpath"
	"github.com/mmolauncher/mmolauncher/pkg/pkgmgr"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/mmolauncher/mmolauncher/pkg/state"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// PackageLister queries the native package database.
type PackageLister interface {
	InstalledPackages(ctx context.Context) (map[string]bool, error)
}

type Options struct {
	Fs       afero.Fs
	Cmd      command.Executor
	Prober   probe.Prober
	Packages PackageLister
	Catalog  catalog.Lookup
	Store    *state.Store
	// OpenDB opens a Lutris database, defaults to the sqlite3 driver.
	OpenDB     func(path string) (*sql.DB, error)
	Home       string
	GamesDir   string
	ExtraRoots []string
	// SteamRoots and LutrisDBs default to the usual locations below Home.
	SteamRoots []string
	LutrisDBs  []string
	MaxDepth   int
}

type Detector struct {
	opts Options
}

func New(opts Options) *Detector {
	if opts.OpenDB == nil {
		opts.OpenDB = openSQLite
	}
	if opts.SteamRoots == nil {
		opts.SteamRoots = DefaultSteamRoots(opts.Home)
	}
	if opts.LutrisDBs == nil {
		opts.LutrisDBs = DefaultLutrisDBs(opts.Home)
	}
	return &Detector{opts: opts}
}

// Roots are the directories scanned for executables, deduplicated, in
// priority order.
func (d *Detector) Roots() []string {
	home := d.opts.Home
	candidates := []string{
		d.opts.GamesDir,
		filepath.Join(home, "Games"),
		filepath.Join(home, ".wine", "drive_c", "Program Files"),
		filepath.Join(home, ".wine", "drive_c", "Program Files (x86)"),
		filepath.Join(home, "Games", "umu"),
	}
	candidates = append(candidates, d.opts.ExtraRoots...)

	roots := make([]string, 0, len(candidates))
	for _, r := range candidates {
		if r == "" {
			continue
		}
		r = filepath.Clean(r)
		if !slices.Contains(roots, r) {
			roots = append(roots, r)
		}
	}
	return roots
}

type pass struct {
	run  func(ctx context.Context, entries []catalog.Entry, tracked func(string) bool, found state.Records)
	name string
}

// Run adds records for untracked games found on the host to records and
// saves them in one batch. Existing records are never replaced. It returns
// the number of games added.
func (d *Detector) Run(ctx context.Context, records state.Records) int {
	entries := d.opts.Catalog.All()
	found := make(state.Records)
	tracked := func(id string) bool {
		if _, ok := records[id]; ok {
			return true
		}
		_, ok := found[id]
		return ok
	}

	passes := []pass{
		{name: "packages", run: d.reconcilePackages},
		{name: "flatpak", run: d.reconcileFlatpaks},
		{name: "steam", run: d.reconcileSteam},
		{name: "lutris", run: d.reconcileLutris},
		{name: "steam shortcuts", run: d.reconcileShortcuts},
		{name: "filesystem", run: d.scanFilesystem},
	}
	for _, p := range passes {
		before := len(found)
		p.run(ctx, entries, tracked, found)
		log.Debug().Msgf("%s pass found %d games", p.name, len(found)-before)
	}

	if len(found) == 0 {
		return 0
	}

	for id, rec := range found {
		log.Info().Msgf("auto-detected %s at %s", id, rec.Path)
		records[id] = rec
	}
	if d.opts.Store != nil && !d.opts.Store.Save(records) {
		log.Warn().Msg("failed to save auto-detected games")
	}
	return len(found)
}

func detected(e *catalog.Entry, method catalog.Method, path string) state.Record {
	return state.Record{
		Name:         e.Name,
		Path:         path,
		Method:       method,
		Status:       state.StatusInstalled,
		AutoDetected: true,
	}
}

func (d *Detector) reconcilePackages(
	ctx context.Context,
	entries []catalog.Entry,
	tracked func(string) bool,
	found state.Records,
) {
	if d.opts.Packages == nil || !slices.ContainsFunc(entries, func(e catalog.Entry) bool {
		return len(e.Detect.Packages) > 0
	}) {
		return
	}

	installed, err := d.opts.Packages.InstalledPackages(ctx)
	if errors.Is(err, pkgmgr.ErrNoPackageManager) {
		log.Debug().Msg("no package manager, skipping package detection")
		return
	} else if err != nil {
		log.Warn().Err(err).Msg("failed to query installed packages")
		return
	}

	for i := range entries {
		e := &entries[i]
		if tracked(e.ID) {
			continue
		}
		for _, pkg := range e.Detect.Packages {
			if installed[pkg] {
				found[e.ID] = detected(e, catalog.MethodPackage, virtualpath.Create(virtualpath.SchemePackage, pkg))
				break
			}
		}
	}
}

func (d *Detector) reconcileFlatpaks(
	ctx context.Context,
	entries []catalog.Entry,
	tracked func(string) bool,
	found state.Records,
) {
	if !slices.ContainsFunc(entries, func(e catalog.Entry) bool {
		return len(e.Detect.Flatpaks) > 0
	}) || !d.opts.Prober.Probe("flatpak") {
		return
	}

	out, err := d.opts.Cmd.Output(ctx, "flatpak", "list", "--app", "--columns=application")
	if err != nil {
		log.Warn().Err(err).Msg("failed to list flatpak apps")
		return
	}

	apps := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if app := strings.TrimSpace(scanner.Text()); app != "" {
			apps[app] = true
		}
	}

	for i := range entries {
		e := &entries[i]
		if tracked(e.ID) {
			continue
		}
		for _, app := range e.Detect.Flatpaks {
			if apps[app] {
				found[e.ID] = detected(e, catalog.MethodSandbox, virtualpath.Create(virtualpath.SchemeFlatpak, app))
				break
			}
		}
	}
}

func (d *Detector) reconcileSteam(
	_ context.Context,
	entries []catalog.Entry,
	tracked func(string) bool,
	found state.Records,
) {
	var libs []string
	for i := range entries {
		e := &entries[i]
		appID := e.SteamAppID()
		if appID == 0 || tracked(e.ID) {
			continue
		}
		if libs == nil {
			libs = SteamLibraries(d.opts.Fs, d.opts.SteamRoots)
			if len(libs) == 0 {
				return
			}
		}
		if SteamAppInstalled(d.opts.Fs, libs, appID) {
			found[e.ID] = detected(e, catalog.MethodNone, virtualpath.Create(virtualpath.SchemeSteam, strconv.Itoa(appID)))
		}
	}
}

func (d *Detector) reconcileLutris(
	ctx context.Context,
	entries []catalog.Entry,
	tracked func(string) bool,
	found state.Records,
) {
	if !slices.ContainsFunc(entries, func(e catalog.Entry) bool {
		return e.Detect.LutrisSlug != "" && !tracked(e.ID)
	}) {
		return
	}

	slugs := make(map[string]bool)
	for _, path := range d.opts.LutrisDBs {
		if ok, _ := afero.Exists(d.opts.Fs, path); !ok {
			continue
		}
		db, err := d.opts.OpenDB(path)
		if err != nil {
			log.Warn().Err(err).Msgf("skipping lutris database: %s", path)
			continue
		}
		got, err := LutrisSlugs(ctx, db)
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close Lutris database")
		}
		if err != nil {
			log.Warn().Err(err).Msgf("skipping lutris database: %s", path)
			continue
		}
		for s := range got {
			slugs[s] = true
		}
	}

	for i := range entries {
		e := &entries[i]
		if e.Detect.LutrisSlug == "" || tracked(e.ID) {
			continue
		}
		if slugs[e.Detect.LutrisSlug] {
			found[e.ID] = detected(e, catalog.MethodNone,
				virtualpath.Create(virtualpath.SchemeLutris, e.Detect.LutrisSlug))
		}
	}
}

// reconcileShortcuts matches non-Steam games added to Steam against the
// catalog's executable rules. The app name counts toward marker matches.
func (d *Detector) reconcileShortcuts(
	_ context.Context,
	entries []catalog.Entry,
	tracked func(string) bool,
	found state.Records,
) {
	if !slices.ContainsFunc(entries, func(e catalog.Entry) bool {
		return len(e.Detect.Executables) > 0 && !tracked(e.ID)
	}) {
		return
	}

	for _, sc := range SteamShortcuts(d.opts.Fs, d.opts.SteamRoots) {
		if ok, _ := afero.Exists(d.opts.Fs, sc.Exe); !ok {
			continue
		}
		haystack := strings.ToLower(filepath.Dir(sc.Exe) + "/" + sc.AppName)
		for i := range entries {
			e := &entries[i]
			if tracked(e.ID) ||
				!matchesExecutable(e.Detect.Executables, filepath.Base(sc.Exe)) ||
				!matchesMarkers(e.Detect.Markers, haystack) {
				continue
			}
			dir := sc.StartDir
			if dir == "" {
				dir = filepath.Dir(sc.Exe)
			}
			rec := detected(e, filesystemMethod(e.Method), filepath.Clean(dir))
			rec.Executable = sc.Exe
			if prefix, ok := PrefixOf(sc.Exe); ok {
				rec.Prefix = prefix
			}
			found[e.ID] = rec
			break
		}
	}
}

func (d *Detector) scanFilesystem(
	ctx context.Context,
	entries []catalog.Entry,
	tracked func(string) bool,
	found state.Records,
) {
	var targets []catalog.Entry
	for _, e := range entries {
		if len(e.Detect.Executables) > 0 && !tracked(e.ID) {
			targets = append(targets, e)
		}
	}
	if len(targets) == 0 {
		return
	}

	roots := d.Roots()
	matches := make([]map[string]string, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			matches[i] = d.scanRoot(gctx, root, targets)
			return nil
		})
	}
	_ = g.Wait()

	for _, m := range matches {
		for i := range targets {
			e := &targets[i]
			exe, ok := m[e.ID]
			if !ok || tracked(e.ID) {
				continue
			}
			rec := detected(e, filesystemMethod(e.Method), filepath.Dir(exe))
			rec.Executable = exe
			if prefix, ok := PrefixOf(exe); ok {
				rec.Prefix = prefix
			}
			found[e.ID] = rec
		}
	}
}

// scanRoot returns the first executable matching each target under root.
func (d *Detector) scanRoot(ctx context.Context, root string, targets []catalog.Entry) map[string]string {
	m := make(map[string]string)
	if ok, err := afero.DirExists(d.opts.Fs, root); !ok {
		if err != nil {
			log.Warn().Err(err).Msgf("cannot scan root: %s", root)
		}
		return m
	}

	walk(ctx, d.opts.Fs, root, 0, d.opts.MaxDepth, func(p string) bool {
		name := strings.ToLower(filepath.Base(p))
		parent := strings.ToLower(filepath.Dir(p))
		for i := range targets {
			e := &targets[i]
			if _, ok := m[e.ID]; ok {
				continue
			}
			if !matchesExecutable(e.Detect.Executables, name) || !matchesMarkers(e.Detect.Markers, parent) {
				continue
			}
			m[e.ID] = p
		}
		return len(m) == len(targets)
	})
	return m
}

func matchesExecutable(exes []string, name string) bool {
	for _, exe := range exes {
		if strings.EqualFold(exe, name) {
			return true
		}
	}
	return false
}

func matchesMarkers(markers []string, parent string) bool {
	if len(markers) == 0 {
		return true
	}
	for _, mk := range markers {
		if strings.Contains(parent, strings.ToLower(mk)) {
			return true
		}
	}
	return false
}

// filesystemMethod keeps the method of games found on disk launchable by
// executable path.
func filesystemMethod(m catalog.Method) catalog.Method {
	switch m {
	case catalog.MethodArchive, catalog.MethodInstaller:
		return m
	default:
		return catalog.MethodNone
	}
}
