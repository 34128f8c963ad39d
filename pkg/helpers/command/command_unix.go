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

//go:build !windows

package command

import (
	"context"
	"os/exec"
	"syscall"
)

// StartWithOptions starts a command with the given options on Unix. Detached
// commands are not bound to ctx and get their own session, and are reaped in
// the background.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (e *RealExecutor) StartWithOptions(
	ctx context.Context,
	opts Options,
	name string,
	args ...string,
) error {
	if !opts.Detach {
		cmd := exec.CommandContext(ctx, name, args...)
		e.apply(cmd, opts)
		return cmd.Start()
	}

	cmd := exec.Command(name, args...) //nolint:noctx // detached process must outlive ctx
	e.apply(cmd, opts)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
