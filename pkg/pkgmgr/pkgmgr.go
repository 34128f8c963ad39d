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

// Package pkgmgr bridges abstract dependency names to the host's native
// package manager.
package pkgmgr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmolauncher/mmolauncher/pkg/helpers"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/rs/zerolog/log"
)

type Family string

const (
	Pacman Family = "pacman"
	Apt    Family = "apt"
	Dnf    Family = "dnf"
)

// Families in detection priority order.
var Families = []Family{Pacman, Apt, Dnf}

// AURHelpers in preference order.
var AURHelpers = []string{"yay", "paru", "pikaur", "trizen"}

var (
	ErrNoPackageManager = errors.New("no supported package manager detected")
	ErrNoPackage        = errors.New("no package name given")
)

// An empty name means the dependency has no automatable package on that
// family and is dropped from the batch.
var tables = map[Family]map[string]string{
	Pacman: {
		"umu-launcher": "umu-launcher",
		"wine":         "wine",
		"wine-staging": "wine-staging",
		"steam":        "steam",
		"flatpak":      "flatpak",
		"java":         "jre-openjdk",
	},
	Apt: {
		"umu-launcher": "",
		"wine":         "wine",
		"wine-staging": "wine-staging",
		"steam":        "steam",
		"flatpak":      "flatpak",
		"java":         "default-jre",
	},
	Dnf: {
		"umu-launcher": "",
		"wine":         "wine",
		"wine-staging": "wine",
		"steam":        "steam",
		"flatpak":      "flatpak",
		"java":         "java-latest-openjdk",
	},
}

// Translate maps dependency names to family package names, dropping names
// with no package and duplicates while keeping order.
func Translate(family Family, deps []string) []string {
	table := tables[family]
	seen := make(map[string]bool, len(deps))
	pkgs := make([]string, 0, len(deps))
	for _, dep := range deps {
		pkg := table[dep]
		if pkg == "" {
			log.Debug().Str("family", string(family)).Msgf("no package for dependency: %s", dep)
			continue
		}
		if seen[pkg] {
			continue
		}
		seen[pkg] = true
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

// InstallArgs is the non-interactive batch install command line, without
// elevation.
func InstallArgs(family Family, pkgs []string) []string {
	var args []string
	switch family {
	case Pacman:
		args = []string{"pacman", "-S", "--needed", "--noconfirm"}
	case Apt:
		args = []string{"apt", "install", "-y"}
	case Dnf:
		args = []string{"dnf", "install", "-y"}
	default:
		return nil
	}
	return append(args, pkgs...)
}

type Bridge struct {
	prober  probe.Prober
	cmd     command.Executor
	elevate string
}

func NewBridge(prober probe.Prober, cmd command.Executor, elevate string) *Bridge {
	if elevate == "" {
		elevate = "sudo"
	}
	return &Bridge{
		prober:  prober,
		cmd:     cmd,
		elevate: elevate,
	}
}

// Family returns the first package manager family found on the host.
func (b *Bridge) Family() (Family, bool) {
	for _, f := range Families {
		if b.prober.Probe(string(f)) {
			return f, true
		}
	}
	return "", false
}

// AURHelper returns the preferred AUR helper installed, if any.
func (b *Bridge) AURHelper() (string, bool) {
	return b.prober.FindFirst(AURHelpers...)
}

// Install runs one elevated batch install for deps. Dependencies with no
// package on the host family are skipped; an empty batch is a success.
func (b *Bridge) Install(ctx context.Context, deps []string, progress func(string)) error {
	family, ok := b.Family()
	if !ok {
		notify(progress, "No supported package manager detected")
		return ErrNoPackageManager
	}

	pkgs := Translate(family, deps)
	if len(pkgs) == 0 {
		log.Info().Msgf("nothing to install with %s for: %v", family, deps)
		return nil
	}

	notify(progress, fmt.Sprintf("Installing with %s: %s", family, strings.Join(pkgs, ", ")))

	args := InstallArgs(family, pkgs)
	log.Info().Msgf("running: %s %s", b.elevate, strings.Join(args, " "))
	err := b.cmd.Run(ctx, b.elevate, args...)
	if err != nil {
		notify(progress, fmt.Sprintf("Package installation failed: %v", err))
		return fmt.Errorf("%s install failed: %w", family, err)
	}

	notify(progress, "Dependencies installed")
	return nil
}

// InteractiveInstall returns a shell command line installing pkg with the
// host package manager, prompting the user as it goes. On Arch based hosts
// an AUR helper is preferred so AUR-only packages resolve.
func (b *Bridge) InteractiveInstall(pkg string) (string, error) {
	if pkg == "" {
		return "", ErrNoPackage
	}

	family, ok := b.Family()
	if !ok {
		return "", ErrNoPackageManager
	}

	switch family {
	case Pacman:
		if helper, ok := b.AURHelper(); ok {
			return helpers.ShellJoin(helper, "-S", "--needed", pkg), nil
		}
		return helpers.ShellJoin(b.elevate, "pacman", "-S", "--needed", pkg), nil
	case Apt:
		return helpers.ShellJoin(b.elevate, "apt", "install", pkg), nil
	case Dnf:
		return helpers.ShellJoin(b.elevate, "dnf", "install", pkg), nil
	default:
		return "", ErrNoPackageManager
	}
}

// RemoveArgs returns the program and arguments removing pkg.
func (b *Bridge) RemoveArgs(pkg string) (string, []string, error) {
	if pkg == "" {
		return "", nil, ErrNoPackage
	}

	family, ok := b.Family()
	if !ok {
		return "", nil, ErrNoPackageManager
	}

	switch family {
	case Pacman:
		if helper, ok := b.AURHelper(); ok {
			return helper, []string{"-R", "--noconfirm", pkg}, nil
		}
		return b.elevate, []string{"pacman", "-R", "--noconfirm", pkg}, nil
	case Apt:
		return b.elevate, []string{"apt", "remove", "-y", pkg}, nil
	case Dnf:
		return b.elevate, []string{"dnf", "remove", "-y", pkg}, nil
	default:
		return "", nil, ErrNoPackageManager
	}
}

// Remove uninstalls pkg and waits for the package manager to exit.
func (b *Bridge) Remove(ctx context.Context, pkg string) error {
	name, args, err := b.RemoveArgs(pkg)
	if err != nil {
		return err
	}
	log.Info().Msgf("running: %s %s", name, strings.Join(args, " "))
	if err := b.cmd.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to remove %s: %w", pkg, err)
	}
	return nil
}

// InstalledPackages queries the native package database.
func (b *Bridge) InstalledPackages(ctx context.Context) (map[string]bool, error) {
	family, ok := b.Family()
	if !ok {
		return nil, ErrNoPackageManager
	}

	var out []byte
	var err error
	switch family {
	case Pacman:
		out, err = b.cmd.Output(ctx, "pacman", "-Qq")
	case Apt:
		out, err = b.cmd.Output(ctx, "dpkg-query", "-W", "-f=${Package}\n")
	case Dnf:
		out, err = b.cmd.Output(ctx, "rpm", "-qa", "--qf", "%{NAME}\n")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s packages: %w", family, err)
	}

	return parseLines(out), nil
}

func parseLines(out []byte) map[string]bool {
	names := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names[line] = true
		}
	}
	return names
}

func notify(progress func(string), msg string) {
	if progress != nil {
		progress(msg)
	}
}
