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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/syncutil"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	AppName       = "mmo-launcher"
	CfgFile       = "config.toml"
	StateFile     = "installed_games.json"
	LogFile       = "launcher.log"
	ScriptsDir    = "scripts"
	// MaxScanDepth bounds how many directory levels below a search root the
	// auto-detector descends.
	MaxScanDepth = 3
)

var (
	DefaultTerminals = []string{"konsole", "gnome-terminal", "xfce4-terminal", "alacritty", "kitty", "xterm"}
	DefaultRunners   = []string{"umu-run", "umu"}
)

const (
	DefaultElevate    = "sudo"
	DefaultProtonPath = "GE-Proton"
)

type Values struct {
	Install      Install `toml:"install"`
	Launch       Launch  `toml:"launch"`
	Detect       Detect  `toml:"detect"`
	ConfigSchema int     `toml:"config_schema"`
	DebugLogging bool    `toml:"debug_logging"`
}

type Install struct {
	GamesDir   string   `toml:"games_dir,omitempty"`
	ScriptsDir string   `toml:"scripts_dir,omitempty"`
	Elevate    string   `toml:"elevate,omitempty"`
	Terminals  []string `toml:"terminals,omitempty,multiline"`
}

type Launch struct {
	ProtonPath string   `toml:"proton_path,omitempty"`
	Runners    []string `toml:"runners,omitempty"`
}

type Detect struct {
	ExtraRoots []string `toml:"extra_roots,omitempty,multiline"`
	MaxDepth   int      `toml:"max_depth"`
	OnStartup  bool     `toml:"on_startup"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Detect: Detect{
		OnStartup: true,
		MaxDepth:  MaxScanDepth,
	},
}

// Overrides are read from the environment and take precedence over the file.
type Overrides struct {
	ConfigPath string `env:"MMOLAUNCHER_CONFIG"`
	GamesDir   string `env:"MMOLAUNCHER_GAMES_DIR"`
	Debug      bool   `env:"MMOLAUNCHER_DEBUG"`
}

// Dirs are the per-user directories the launcher reads and writes.
type Dirs struct {
	Config string
	Data   string
	State  string
	Home   string
}

// DefaultDirs resolves XDG base directories for the current user.
func DefaultDirs() Dirs {
	return Dirs{
		Config: filepath.Join(xdg.ConfigHome, AppName),
		Data:   filepath.Join(xdg.DataHome, AppName),
		State:  filepath.Join(xdg.StateHome, AppName),
		Home:   xdg.Home,
	}
}

type Instance struct {
	fs        afero.Fs
	cfgPath   string
	dirs      Dirs
	overrides Overrides
	vals      Values
	defaults  Values
	mu        syncutil.RWMutex
}

// NewConfig loads the config file from dirs.Config, writing defaults to disk
// on first run. Environment overrides are applied on every load.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(fs afero.Fs, dirs Dirs, defaults Values) (*Instance, error) {
	var overrides Overrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	cfgPath := overrides.ConfigPath
	log.Debug().Msgf("env config path: %s", cfgPath)
	if cfgPath == "" {
		cfgPath = filepath.Join(dirs.Config, CfgFile)
	}

	return open(fs, cfgPath, dirs, overrides, defaults)
}

// NewConfigFile is NewConfig with an explicit config file path, which takes
// precedence over MMOLAUNCHER_CONFIG.
//
//nolint:gocritic // config struct copied for immutability
func NewConfigFile(fs afero.Fs, path string, dirs Dirs, defaults Values) (*Instance, error) {
	var overrides Overrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return open(fs, path, dirs, overrides, defaults)
}

//nolint:gocritic // config struct copied for immutability
func open(fs afero.Fs, cfgPath string, dirs Dirs, overrides Overrides, defaults Values) (*Instance, error) {
	cfg := Instance{
		fs:        fs,
		cfgPath:   cfgPath,
		dirs:      dirs,
		overrides: overrides,
		vals:      defaults,
		defaults:  defaults,
	}

	if _, err := fs.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	// This ensures fields not present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if c.overrides.GamesDir != "" {
		newVals.Install.GamesDir = c.overrides.GamesDir
	}
	if c.overrides.Debug {
		newVals.DebugLogging = true
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	// set current schema version
	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) Fs() afero.Fs {
	return c.fs
}

func (c *Instance) Dirs() Dirs {
	return c.dirs
}

// StatePath is the installation state file.
func (c *Instance) StatePath() string {
	return filepath.Join(c.dirs.Config, StateFile)
}

// LogPath is the rotated log file.
func (c *Instance) LogPath() string {
	return filepath.Join(c.dirs.State, LogFile)
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

// GamesDir is the root under which each game gets its own install directory.
// Defaults to ~/Games.
func (c *Instance) GamesDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Install.GamesDir != "" {
		return c.vals.Install.GamesDir
	}
	return filepath.Join(c.dirs.Home, "Games")
}

func (c *Instance) SetGamesDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Install.GamesDir = dir
}

// HelperScriptsDir holds per-game install scripts named <id>.sh.
func (c *Instance) HelperScriptsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Install.ScriptsDir != "" {
		return c.vals.Install.ScriptsDir
	}
	return filepath.Join(c.dirs.Data, ScriptsDir)
}

// Elevate is the program used to run package manager commands as root.
func (c *Instance) Elevate() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Install.Elevate != "" {
		return c.vals.Install.Elevate
	}
	return DefaultElevate
}

// Terminals is the ranked list of terminal emulators for interactive steps.
func (c *Instance) Terminals() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.vals.Install.Terminals) > 0 {
		return append([]string(nil), c.vals.Install.Terminals...)
	}
	return append([]string(nil), DefaultTerminals...)
}

// Runners is the ranked list of compatibility layer entrypoints.
func (c *Instance) Runners() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.vals.Launch.Runners) > 0 {
		return append([]string(nil), c.vals.Launch.Runners...)
	}
	return append([]string(nil), DefaultRunners...)
}

// ProtonPath selects the runtime variant umu uses for prefixed games.
func (c *Instance) ProtonPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Launch.ProtonPath != "" {
		return c.vals.Launch.ProtonPath
	}
	return DefaultProtonPath
}

func (c *Instance) DetectOnStartup() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Detect.OnStartup
}

// DetectMaxDepth is clamped to [0, MaxScanDepth].
func (c *Instance) DetectMaxDepth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return min(max(c.vals.Detect.MaxDepth, 0), MaxScanDepth)
}

func (c *Instance) DetectExtraRoots() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Detect.ExtraRoots...)
}
