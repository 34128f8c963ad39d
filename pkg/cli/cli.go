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

// Package cli is the mmolauncher command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/config"
	"github.com/mmolauncher/mmolauncher/pkg/engine"
	"github.com/mmolauncher/mmolauncher/pkg/helpers"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Options replace the host dependencies of the command tree. Zero values use
// the real host.
type Options struct {
	Fs         afero.Fs
	Catalog    catalog.Lookup
	Executor   command.Executor
	Prober     probe.Prober
	HTTPClient *http.Client
	Out        io.Writer
	Err        io.Writer
	Dirs       config.Dirs
	// SkipLogFile leaves the global logger alone instead of writing the
	// rotated log file.
	SkipLogFile bool
}

type app struct {
	eng        *engine.Engine
	opts       Options
	configPath string
	gamesDir   string
	debug      bool
}

// NewRootCmd builds the command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Dirs == (config.Dirs{}) {
		opts.Dirs = config.DefaultDirs()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "mmolauncher",
		Short:         "Install and launch community MMO clients on Linux",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log debug output to stderr")
	root.PersistentFlags().StringVar(&a.gamesDir, "games-dir", "", "Install games under this directory")

	root.AddCommand(a.newListCmd())
	root.AddCommand(a.newInfoCmd())
	root.AddCommand(a.newInstallCmd())
	root.AddCommand(a.newUninstallCmd())
	root.AddCommand(a.newLaunchCmd())
	root.AddCommand(a.newStatusCmd())
	root.AddCommand(a.newDepsCmd())
	root.AddCommand(a.newDetectCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the command tree against the real host.
func Execute(ctx context.Context) error {
	//nolint:wrapcheck // cobra errors are printed as-is
	return NewRootCmd(Options{}).ExecuteContext(ctx)
}

func (a *app) initLogging() error {
	var writers []io.Writer
	if a.debug {
		writers = append(writers, zerolog.ConsoleWriter{Out: a.opts.Err})
	}

	if a.opts.SkipLogFile {
		if a.debug {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: a.opts.Err})
		}
		return nil
	}

	logPath := filepath.Join(a.opts.Dirs.State, config.LogFile)
	if err := helpers.InitLogging(logPath, a.debug, writers); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

func (a *app) loadConfig() (*config.Instance, error) {
	var (
		cfg *config.Instance
		err error
	)
	if a.configPath != "" {
		cfg, err = config.NewConfigFile(a.opts.Fs, a.configPath, a.opts.Dirs, config.BaseDefaults)
	} else {
		cfg, err = config.NewConfig(a.opts.Fs, a.opts.Dirs, config.BaseDefaults)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if a.gamesDir != "" {
		cfg.SetGamesDir(a.gamesDir)
	}
	if a.debug || cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg, nil
}

// setup initializes logging, config and the engine on first use.
func (a *app) setup(ctx context.Context) (*engine.Engine, error) {
	if a.eng != nil {
		return a.eng, nil
	}

	if err := a.initLogging(); err != nil {
		return nil, err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(ctx, engine.Options{
		Config:     cfg,
		Catalog:    a.opts.Catalog,
		Fs:         a.opts.Fs,
		Executor:   a.opts.Executor,
		Prober:     a.opts.Prober,
		HTTPClient: a.opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	a.eng = eng
	return eng, nil
}

// completeIDs offers catalog ids for shell completion.
func (a *app) completeIDs(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	entries := a.opts.Catalog.All()
	ids := make([]string, 0, len(entries))
	for i := range entries {
		ids = append(ids, entries[i].ID+"\t"+entries[i].Name)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
