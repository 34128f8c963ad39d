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

// Package launch starts installed games.
package launch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/virtualpath"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/mmolauncher/mmolauncher/pkg/state"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	ErrNoRecord           = errors.New("game is not installed")
	ErrPendingManual      = errors.New("game installation is pending manual steps")
	ErrExecutableNotFound = errors.New("game executable not found")
	ErrNoRunner           = errors.New("no compatibility layer runner found")
	ErrNoLaunchCommand    = errors.New("no launch command for package")
)

type Options struct {
	Fs         afero.Fs
	Cmd        command.Executor
	Prober     probe.Prober
	ProtonPath string
	Runners    []string
}

type Dispatcher struct {
	opts Options
}

func New(opts Options) *Dispatcher {
	return &Dispatcher{opts: opts}
}

// Launch starts the game described by entry and its installation record.
// The game runs detached and is not waited for.
func (d *Dispatcher) Launch(ctx context.Context, entry *catalog.Entry, rec *state.Record) error {
	if rec == nil {
		return ErrNoRecord
	}
	if !rec.Installed() {
		return ErrPendingManual
	}

	if vp, err := virtualpath.Parse(rec.Path); err == nil {
		switch vp.Scheme {
		case virtualpath.SchemeSteam:
			return d.start(ctx, command.Options{}, "steam", "steam://rungameid/"+vp.ID)
		case virtualpath.SchemeLutris:
			return d.start(ctx, command.Options{}, "lutris", "lutris:rungame/"+vp.ID)
		}
	}

	switch rec.Method {
	case catalog.MethodSandbox:
		return d.launchFlatpak(ctx, entry, rec)
	case catalog.MethodPackage:
		return d.launchPackage(ctx, entry, rec)
	default:
		return d.launchExecutable(ctx, entry, rec)
	}
}

func (d *Dispatcher) start(ctx context.Context, opts command.Options, name string, args ...string) error {
	opts.Detach = true
	log.Info().Msgf("launching: %s %v", name, args)
	if err := d.opts.Cmd.StartWithOptions(ctx, opts, name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

func (d *Dispatcher) launchFlatpak(ctx context.Context, entry *catalog.Entry, rec *state.Record) error {
	appID, err := virtualpath.ExtractID(rec.Path, virtualpath.SchemeFlatpak)
	if err != nil {
		appID = entry.FlatpakID()
	}
	if appID == "" {
		return fmt.Errorf("%w: no flatpak app id", ErrExecutableNotFound)
	}
	return d.start(ctx, command.Options{}, "flatpak", "run", appID)
}

func (d *Dispatcher) launchPackage(ctx context.Context, entry *catalog.Entry, rec *state.Record) error {
	if entry.LaunchCommand != "" {
		return d.start(ctx, command.Options{}, "sh", "-c", entry.LaunchCommand)
	}

	name, err := virtualpath.ExtractID(rec.Path, virtualpath.SchemePackage, virtualpath.SchemeAUR)
	if err != nil {
		name = entry.PackageName()
	}
	if name == "" || !d.opts.Prober.Probe(name) {
		return fmt.Errorf("%w: %s", ErrNoLaunchCommand, name)
	}
	return d.start(ctx, command.Options{}, name)
}

// Executable resolves the file to run for a filesystem install: the
// record's override, else the catalog's path relative to the install root.
func Executable(entry *catalog.Entry, rec *state.Record) string {
	if rec.Executable != "" {
		return rec.Executable
	}
	if entry.Executable == "" {
		return ""
	}
	return filepath.Join(rec.Path, entry.Executable)
}

func (d *Dispatcher) launchExecutable(ctx context.Context, entry *catalog.Entry, rec *state.Record) error {
	exe := Executable(entry, rec)
	if exe == "" {
		return ErrExecutableNotFound
	}
	if ok, _ := afero.Exists(d.opts.Fs, exe); !ok {
		return fmt.Errorf("%w: %s", ErrExecutableNotFound, exe)
	}

	opts := command.Options{Dir: filepath.Dir(exe)}
	if entry.Native {
		return d.start(ctx, opts, exe)
	}

	runner, ok := d.opts.Prober.FindFirst(d.opts.Runners...)
	if !ok {
		return ErrNoRunner
	}
	if rec.Prefix != "" {
		opts.Env = []string{
			"WINEPREFIX=" + rec.Prefix,
			"PROTONPATH=" + d.opts.ProtonPath,
		}
	}
	return d.start(ctx, opts, runner, exe)
}
