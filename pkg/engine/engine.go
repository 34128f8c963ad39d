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

// Package engine orchestrates installing, uninstalling and launching games.
// An Engine is not safe for concurrent use; callers run one operation at a
// time and receive progress through a Progress callback.
package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mmolauncher/mmolauncher/pkg/acquire"
	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/config"
	"github.com/mmolauncher/mmolauncher/pkg/deps"
	"github.com/mmolauncher/mmolauncher/pkg/detect"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/virtualpath"
	"github.com/mmolauncher/mmolauncher/pkg/launch"
	"github.com/mmolauncher/mmolauncher/pkg/pkgmgr"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/mmolauncher/mmolauncher/pkg/state"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var ErrNoConfig = errors.New("engine requires a config")

// Progress receives human readable status lines during install and
// uninstall.
type Progress func(string)

// ChannelProgress sends progress lines to ch. Sends block, so ch must be
// drained while the operation runs.
func ChannelProgress(ch chan<- string) Progress {
	return func(s string) {
		ch <- s
	}
}

func (p Progress) notify(msg string) {
	if p != nil {
		p(msg)
	}
}

type Options struct {
	Config     *config.Instance
	Catalog    catalog.Lookup
	Fs         afero.Fs
	Executor   command.Executor
	Prober     probe.Prober
	HTTPClient *http.Client
}

type Engine struct {
	cfg      *config.Instance
	catalog  catalog.Lookup
	fs       afero.Fs
	cmd      command.Executor
	store    *state.Store
	records  state.Records
	bridge   *pkgmgr.Bridge
	resolver *deps.Resolver
	registry *acquire.Registry
	detector *detect.Detector
	launcher *launch.Dispatcher
}

// New wires an engine from opts, loads the state store and, when enabled in
// the config, runs auto-detection once.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, ErrNoConfig
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Fs == nil {
		opts.Fs = opts.Config.Fs()
	}
	if opts.Executor == nil {
		opts.Executor = &command.RealExecutor{}
	}
	if opts.Prober == nil {
		opts.Prober = probe.PathProber{}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = acquire.DefaultHTTPClient
	}

	cfg := opts.Config
	bridge := pkgmgr.NewBridge(opts.Prober, opts.Executor, cfg.Elevate())
	store := state.NewStore(opts.Fs, cfg.StatePath())

	e := &Engine{
		cfg:      cfg,
		catalog:  opts.Catalog,
		fs:       opts.Fs,
		cmd:      opts.Executor,
		store:    store,
		records:  store.Load(),
		bridge:   bridge,
		resolver: deps.NewResolver(opts.Prober, bridge),
		registry: acquire.NewRegistry(&acquire.Tools{
			Fs:         opts.Fs,
			Cmd:        opts.Executor,
			Prober:     opts.Prober,
			Bridge:     bridge,
			HTTP:       opts.HTTPClient,
			ScriptsDir: cfg.HelperScriptsDir(),
			ProtonPath: cfg.ProtonPath(),
			Terminals:  cfg.Terminals(),
			Runners:    cfg.Runners(),
		}),
		detector: detect.New(detect.Options{
			Fs:         opts.Fs,
			Cmd:        opts.Executor,
			Prober:     opts.Prober,
			Packages:   bridge,
			Catalog:    opts.Catalog,
			Store:      store,
			Home:       cfg.Dirs().Home,
			GamesDir:   cfg.GamesDir(),
			ExtraRoots: cfg.DetectExtraRoots(),
			MaxDepth:   cfg.DetectMaxDepth(),
		}),
		launcher: launch.New(launch.Options{
			Fs:         opts.Fs,
			Cmd:        opts.Executor,
			Prober:     opts.Prober,
			ProtonPath: cfg.ProtonPath(),
			Runners:    cfg.Runners(),
		}),
	}

	log.Info().Msgf("loaded %d installation records from %s", len(e.records), store.Path())

	if cfg.DetectOnStartup() {
		if n := e.detector.Run(ctx, e.records); n > 0 {
			log.Info().Msgf("auto-detected %d games", n)
		}
	}

	return e, nil
}

func (e *Engine) Catalog() catalog.Lookup {
	return e.catalog
}

func opLogger(op, id string) zerolog.Logger {
	return log.With().Str("op", op).Str("operation_id", uuid.NewString()).Str("game", id).Logger()
}

// Install acquires a game with the strategy for its install type. Failed
// attempts that need user action still leave a pending manual record.
func (e *Engine) Install(ctx context.Context, id string, progress Progress) bool {
	logger := opLogger("install", id)

	entry, ok := e.catalog.Get(id)
	if !ok {
		logger.Warn().Msg("unknown game")
		progress.notify("Unknown game: " + id)
		return false
	}

	if rec, ok := e.records[id]; ok && rec.Installed() {
		logger.Info().Msg("already installed")
		progress.notify(entry.Name + " is already installed")
		return true
	}

	logger.Info().Msgf("installing %s with %s", entry.Name, entry.Method)
	progress.notify("Starting installation of " + entry.Name)
	progress.notify("Checking dependencies...")

	if err := e.resolver.Ensure(ctx, entry.Dependencies, progress); err != nil {
		logger.Error().Err(err).Msg("dependency installation failed")
		if errors.Is(err, pkgmgr.ErrNoPackageManager) {
			progress.notify("No package manager detected, install dependencies manually: " +
				strings.Join(e.resolver.Resolve(entry.Dependencies), ", "))
		}
		return false
	}

	dir := filepath.Join(e.cfg.GamesDir(), id)
	if err := e.fs.MkdirAll(dir, 0o750); err != nil {
		logger.Error().Err(err).Msgf("failed to create install directory: %s", dir)
		progress.notify(fmt.Sprintf("Installation error: %v", err))
		return false
	}

	strategy, ok := e.registry.Get(entry.Method)
	if !ok {
		logger.Error().Err(acquire.ErrNoStrategy).Msgf("install type: %s", entry.Method)
		progress.notify("Unsupported install type: " + entry.Method.String())
		return false
	}

	out := strategy.Attempt(ctx, acquire.Request{
		Entry:    entry,
		Dir:      dir,
		Progress: progress,
	})
	if out.Err != nil {
		logger.Warn().Err(out.Err).Msg("install did not complete")
	}

	if !out.Installed || out.ConfirmByDetection {
		return e.reconcile(ctx, id, out, progress, logger)
	}

	if out.Record != nil {
		e.records[id] = *out.Record
		if !e.store.Save(e.records) {
			logger.Warn().Msg("failed to save installation record")
		}
	}

	logger.Info().Msg("install complete")
	return true
}

// reconcile runs the auto-detector after an attempt without a clean success
// signal. The game counts as installed when the detector finds it. Otherwise
// the attempt's record is written, except that a helper script run restores
// the previous pending record.
func (e *Engine) reconcile(
	ctx context.Context,
	id string,
	out acquire.Outcome,
	progress Progress,
	logger zerolog.Logger,
) bool {
	prev, hadPrev := e.records[id]
	delete(e.records, id)

	e.detector.Run(ctx, e.records)
	if rec, ok := e.records[id]; ok && rec.Installed() {
		logger.Info().Msgf("installation found at %s", rec.Path)
		if out.ConfirmByDetection {
			progress.notify("Installation complete!")
		} else {
			progress.notify("Found existing installation at " + rec.Path)
		}
		return true
	}

	switch {
	case hadPrev && (out.ConfirmByDetection || out.Record == nil):
		e.records[id] = prev
	case out.Record != nil:
		e.records[id] = *out.Record
	}
	if (hadPrev || out.Record != nil) && !e.store.Save(e.records) {
		logger.Warn().Msg("failed to save installation record")
	}

	if out.ConfirmByDetection {
		logger.Warn().Msg("helper finished but the game was not found")
		progress.notify("Could not find the installed game, finish the installation manually")
	}
	return false
}

// Uninstall removes a game's files or package and forgets its record. The
// record is kept when removal fails.
func (e *Engine) Uninstall(ctx context.Context, id string, progress Progress) bool {
	logger := opLogger("uninstall", id)

	rec, ok := e.records[id]
	if !ok {
		logger.Warn().Msg("not installed")
		progress.notify(id + " is not installed")
		return false
	}

	progress.notify("Uninstalling " + rec.Name)
	if err := e.remove(ctx, id, &rec, progress); err != nil {
		logger.Error().Err(err).Msg("uninstall failed")
		progress.notify(fmt.Sprintf("Uninstall failed: %v", err))
		return false
	}

	delete(e.records, id)
	if !e.store.Save(e.records) {
		logger.Warn().Msg("failed to save state after uninstall")
	}

	logger.Info().Msg("uninstalled")
	progress.notify(rec.Name + " uninstalled")
	return true
}

func (e *Engine) remove(ctx context.Context, id string, rec *state.Record, progress Progress) error {
	if vp, err := virtualpath.Parse(rec.Path); err == nil {
		switch vp.Scheme {
		case virtualpath.SchemePackage, virtualpath.SchemeAUR:
			progress.notify("Removing package: " + vp.ID)
			return e.bridge.Remove(ctx, vp.ID)
		case virtualpath.SchemeFlatpak:
			progress.notify("Removing Flatpak: " + vp.ID)
			if err := e.cmd.Run(ctx, "flatpak", "uninstall", "-y", vp.ID); err != nil {
				return fmt.Errorf("flatpak uninstall %s: %w", vp.ID, err)
			}
			return nil
		case virtualpath.SchemeSteam:
			progress.notify("Remove the game from the Steam client to delete its files")
			return nil
		case virtualpath.SchemeLutris:
			progress.notify("Remove the game from Lutris to delete its files")
			return nil
		default:
			return fmt.Errorf("unsupported install path: %s", rec.Path)
		}
	}

	// Only the directory an install created is deleted.
	if filepath.Clean(rec.Path) != filepath.Join(e.cfg.GamesDir(), id) {
		progress.notify("Files left in place: " + rec.Path)
		return nil
	}

	exists, err := afero.DirExists(e.fs, rec.Path)
	if err != nil {
		return fmt.Errorf("failed to check install directory: %w", err)
	}
	if !exists {
		return nil
	}

	progress.notify("Removing " + rec.Path)
	if err := e.fs.RemoveAll(rec.Path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", rec.Path, err)
	}
	return nil
}

// Launch starts an installed game without waiting for it.
func (e *Engine) Launch(ctx context.Context, id string) bool {
	rec, ok := e.records[id]
	if !ok {
		log.Warn().Err(launch.ErrNoRecord).Msgf("cannot launch %s", id)
		return false
	}

	entry, ok := e.catalog.Get(id)
	if !ok {
		entry = catalog.Entry{ID: id, Name: rec.Name}
	}

	if err := e.launcher.Launch(ctx, &entry, &rec); err != nil {
		log.Error().Err(err).Msgf("failed to launch %s", id)
		return false
	}
	log.Info().Msgf("launched %s", id)
	return true
}

// IsInstalled is false for unknown games and pending manual installs.
func (e *Engine) IsInstalled(id string) bool {
	rec, ok := e.records[id]
	return ok && rec.Installed()
}

// GamePath returns the recorded install path, including for pending manual
// installs where it is the directory to extract into.
func (e *Engine) GamePath(id string) (string, bool) {
	rec, ok := e.records[id]
	if !ok {
		return "", false
	}
	return rec.Path, true
}

func (e *Engine) Record(id string) (state.Record, bool) {
	rec, ok := e.records[id]
	return rec, ok
}

// Records returns a copy of every installation record.
func (e *Engine) Records() state.Records {
	return maps.Clone(e.records)
}

func (e *Engine) CheckDependencies(names []string) map[string]bool {
	return e.resolver.Check(names)
}

// Detect runs auto-detection and returns the number of games added.
func (e *Engine) Detect(ctx context.Context) int {
	return e.detector.Run(ctx, e.records)
}
