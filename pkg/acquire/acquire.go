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

// Package acquire implements one installation strategy per acquisition
// method.
package acquire

import (
	"context"
	"errors"
	"net/http"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/mmolauncher/mmolauncher/pkg/pkgmgr"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/mmolauncher/mmolauncher/pkg/state"
	"github.com/spf13/afero"
)

var (
	ErrManualInstall     = errors.New("game must be installed manually")
	ErrNoTerminal        = errors.New("no terminal emulator found")
	ErrNoDirectDownload  = errors.New("no direct download available")
	ErrNoExtractor       = errors.New("no extractor available for archive")
	ErrUnknownFormat     = errors.New("unrecognized archive format")
	ErrNoSource          = errors.New("no download source")
	ErrNoFlatpakID       = errors.New("no flatpak app id")
	ErrNoFlatpak         = errors.New("flatpak is not installed")
	ErrNoRunner          = errors.New("no compatibility layer found")
	ErrNoStrategy        = errors.New("no strategy for install type")
	ErrHelperScriptFails = errors.New("helper script failed")
)

// Request is one installation attempt. Dir already exists.
type Request struct {
	Progress func(string)
	Dir      string
	Entry    catalog.Entry
}

func (r Request) notify(msg string) {
	if r.Progress != nil {
		r.Progress(msg)
	}
}

// Outcome reports what a strategy did. Record, when set, is written to the
// state store unless the auto-detector finds the game afterwards.
type Outcome struct {
	Err    error
	Record *state.Record
	// ConfirmByDetection means success is decided by the auto-detector
	// finding the game, and Record is only a fallback.
	ConfirmByDetection bool
	Installed          bool
}

type Strategy interface {
	Method() catalog.Method
	Attempt(ctx context.Context, req Request) Outcome
}

// Tools are the host services strategies work with.
type Tools struct {
	Fs         afero.Fs
	Cmd        command.Executor
	Prober     probe.Prober
	Bridge     *pkgmgr.Bridge
	HTTP       *http.Client
	ScriptsDir string
	ProtonPath string
	Terminals  []string
	Runners    []string
}

type Registry struct {
	strategies map[catalog.Method]Strategy
}

// NewRegistry returns a registry with a strategy for every method.
func NewRegistry(t *Tools) *Registry {
	if t.HTTP == nil {
		t.HTTP = DefaultHTTPClient
	}
	r := &Registry{strategies: make(map[catalog.Method]Strategy)}
	sandbox := &SandboxStrategy{tools: t}
	r.Register(&ManualStrategy{})
	r.Register(&PackageStrategy{tools: t, fallback: sandbox})
	r.Register(sandbox)
	r.Register(&InstallerStrategy{tools: t})
	r.Register(&ArchiveStrategy{tools: t})
	return r
}

func (r *Registry) Register(s Strategy) {
	r.strategies[s.Method()] = s
}

func (r *Registry) Get(m catalog.Method) (Strategy, bool) {
	s, ok := r.strategies[m]
	return s, ok
}

func installedRecord(req Request, m catalog.Method, path string) *state.Record {
	return &state.Record{
		Name:   req.Entry.Name,
		Path:   path,
		Method: m,
		Status: state.StatusInstalled,
	}
}

func pendingRecord(req Request) *state.Record {
	return &state.Record{
		Name:   req.Entry.Name,
		Path:   req.Dir,
		Method: req.Entry.Method,
		Status: state.StatusPendingManual,
	}
}
