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

package acquire

import (
	"context"
	"fmt"

	"github.com/mmolauncher/mmolauncher/pkg/helpers"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/rs/zerolog/log"
)

type terminalTemplate struct {
	args func(cmdline string) []string
	// hold terminals keep the window open themselves.
	hold bool
}

var terminalTemplates = map[string]terminalTemplate{
	"konsole": {
		hold: true,
		args: func(c string) []string { return []string{"--noclose", "-e", "sh", "-c", c} },
	},
	"gnome-terminal": {
		args: func(c string) []string { return []string{"--", "sh", "-c", c} },
	},
	"xfce4-terminal": {
		args: func(c string) []string { return []string{"-e", "sh -c " + helpers.ShellQuote(c)} },
	},
	"alacritty": {
		args: func(c string) []string { return []string{"-e", "sh", "-c", c} },
	},
	"kitty": {
		args: func(c string) []string { return []string{"--", "sh", "-c", c} },
	},
	"xterm": {
		hold: true,
		args: func(c string) []string { return []string{"-hold", "-e", "sh", "-c", c} },
	},
}

// pause keeps the window open after cmdline finishes while keeping its exit
// status.
const pause = `; status=$?; printf '\nPress Enter to close...'; read _; exit $status`

// TerminalArgs builds the arguments that make terminal run cmdline through
// sh. Unknown terminals get the common "-e sh -c" form.
func TerminalArgs(terminal, cmdline string) []string {
	tmpl, ok := terminalTemplates[terminal]
	if !ok {
		return []string{"-e", "sh", "-c", cmdline + pause}
	}
	if !tmpl.hold {
		cmdline += pause
	}
	return tmpl.args(cmdline)
}

// RunInTerminal opens the first available terminal from ranking and waits
// for cmdline to finish in it.
func RunInTerminal(
	ctx context.Context,
	cmd command.Executor,
	prober probe.Prober,
	ranking []string,
	cmdline string,
) error {
	terminal, ok := prober.FindFirst(ranking...)
	if !ok {
		return ErrNoTerminal
	}

	log.Info().Msgf("running in %s: %s", terminal, cmdline)
	err := cmd.Run(ctx, terminal, TerminalArgs(terminal, cmdline)...)
	if err != nil {
		return fmt.Errorf("%s exited with error: %w", terminal, err)
	}
	return nil
}
