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
	"errors"
	"testing"

	"github.com/mmolauncher/mmolauncher/pkg/helpers"
	"github.com/mmolauncher/mmolauncher/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTerminalArgs(t *testing.T) {
	t.Parallel()

	const c = "yay -S osrs"
	tests := []struct {
		name     string
		terminal string
		want     []string
	}{
		{name: "konsole_holds", terminal: "konsole", want: []string{"--noclose", "-e", "sh", "-c", c}},
		{name: "gnome_separator", terminal: "gnome-terminal", want: []string{"--", "sh", "-c", c + pause}},
		{name: "xfce_single_string", terminal: "xfce4-terminal", want: []string{"-e", "sh -c " + helpers.ShellQuote(c+pause)}},
		{name: "alacritty", terminal: "alacritty", want: []string{"-e", "sh", "-c", c + pause}},
		{name: "kitty_separator", terminal: "kitty", want: []string{"--", "sh", "-c", c + pause}},
		{name: "xterm_holds", terminal: "xterm", want: []string{"-hold", "-e", "sh", "-c", c}},
		{name: "unknown", terminal: "foot", want: []string{"-e", "sh", "-c", c + pause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TerminalArgs(tt.terminal, c))
		})
	}
}

func TestRunInTerminal(t *testing.T) {
	t.Parallel()

	ranking := []string{"konsole", "gnome-terminal", "kitty", "xterm"}

	t.Run("first_available_wins", func(t *testing.T) {
		t.Parallel()
		cmd := &mocks.MockCommandExecutor{}
		cmd.On("Run", mock.Anything, "kitty", []string{"--", "sh", "-c", "true" + pause}).Return(nil)

		err := RunInTerminal(context.Background(), cmd, mocks.NewFakeProber("xterm", "kitty"), ranking, "true")
		require.NoError(t, err)
		cmd.AssertExpectations(t)
	})

	t.Run("no_terminal", func(t *testing.T) {
		t.Parallel()
		err := RunInTerminal(context.Background(), &mocks.MockCommandExecutor{}, mocks.NewFakeProber(), ranking, "true")
		require.ErrorIs(t, err, ErrNoTerminal)
	})

	t.Run("non_zero_exit", func(t *testing.T) {
		t.Parallel()
		cmd := &mocks.MockCommandExecutor{}
		cmd.On("Run", mock.Anything, "xterm", mock.Anything).Return(errors.New("exit status 1"))

		err := RunInTerminal(context.Background(), cmd, mocks.NewFakeProber("xterm"), ranking, "false")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "xterm exited with error")
	})
}
