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

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
	"github.com/mmolauncher/mmolauncher/pkg/config"
	"github.com/mmolauncher/mmolauncher/pkg/engine"
	"github.com/mmolauncher/mmolauncher/pkg/state"
	"github.com/spf13/cobra"
)

func printer(w io.Writer) engine.Progress {
	return func(msg string) {
		_, _ = fmt.Fprintln(w, msg)
	}
}

func statusLabel(eng *engine.Engine, id string) string {
	rec, ok := eng.Record(id)
	switch {
	case !ok:
		return "-"
	case rec.Status == state.StatusPendingManual:
		return "pending manual install"
	default:
		return "installed"
	}
}

func (a *app) newListCmd() *cobra.Command {
	var q catalog.Query

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tGENRE\tINSTALL TYPE\tSTATUS")
			for _, e := range eng.Catalog().Find(q) {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Name, e.Genre, e.Method, statusLabel(eng, e.ID))
			}
			//nolint:wrapcheck // writer error surfaced as-is
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&q.Genre, "genre", "", "Only games whose genre contains this text")
	cmd.Flags().BoolVar(&q.Native, "native", false, "Only native Linux clients")
	cmd.Flags().BoolVar(&q.Tested, "tested", false, "Only games verified to work")
	return cmd
}

func (a *app) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "info <game>",
		Short:             "Show catalog details and install status for a game",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}

			e, ok := eng.Catalog().Get(args[0])
			if !ok {
				return fmt.Errorf("unknown game: %s", args[0])
			}

			w := cmd.OutOrStdout()
			field := func(label, value string) {
				if value != "" {
					_, _ = fmt.Fprintf(w, "%-14s %s\n", label+":", value)
				}
			}
			field("Name", e.Name)
			field("Genre", e.Genre)
			field("Server", e.Server)
			field("Population", e.Population)
			field("Website", e.Website)
			field("Install type", e.Method.String())
			field("Dependencies", strings.Join(e.Dependencies, ", "))
			field("Description", e.Description)
			field("Notes", e.Notes)
			field("Status", statusLabel(eng, e.ID))
			if path, ok := eng.GamePath(e.ID); ok {
				field("Path", path)
			}
			return nil
		},
	}
}

func (a *app) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "install <game>",
		Short:             "Install a game and its dependencies",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}
			if !eng.Install(cmd.Context(), args[0], printer(cmd.OutOrStdout())) {
				return fmt.Errorf("installation of %s did not complete", args[0])
			}
			return nil
		},
	}
}

func (a *app) newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "uninstall <game>",
		Short:             "Remove an installed game",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}
			if !eng.Uninstall(cmd.Context(), args[0], printer(cmd.OutOrStdout())) {
				return fmt.Errorf("failed to uninstall %s", args[0])
			}
			return nil
		},
	}
}

func (a *app) newLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "launch <game>",
		Short:             "Start an installed game",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}
			if !eng.Launch(cmd.Context(), args[0]) {
				return fmt.Errorf("failed to launch %s", args[0])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Launched %s\n", args[0])
			return nil
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List installed and pending games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}

			records := eng.Records()
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No games installed")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tINSTALL TYPE\tSTATUS\tPATH")
			for _, id := range records.IDs() {
				rec := records[id]
				label := statusLabel(eng, id)
				if rec.AutoDetected {
					label += " (detected)"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, rec.Name, rec.Method, label, rec.Path)
			}
			//nolint:wrapcheck // writer error surfaced as-is
			return tw.Flush()
		},
	}
}

func (a *app) newDepsCmd() *cobra.Command {
	var game string

	cmd := &cobra.Command{
		Use:   "deps [dependency...]",
		Short: "Check whether dependencies are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}

			names := args
			if game != "" {
				e, ok := eng.Catalog().Get(game)
				if !ok {
					return fmt.Errorf("unknown game: %s", game)
				}
				names = append(names, e.Dependencies...)
			}
			if len(names) == 0 {
				names = allDependencies(eng.Catalog())
			}

			status := eng.CheckDependencies(names)
			w := cmd.OutOrStdout()
			for _, n := range names {
				label := "missing"
				if status[n] {
					label = "ok"
				}
				_, _ = fmt.Fprintf(w, "%-16s %s\n", n, label)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Check the dependencies of a catalog game")
	_ = cmd.RegisterFlagCompletionFunc("game", a.completeIDs)
	return cmd
}

// allDependencies lists every dependency named in the catalog once, in
// catalog order.
func allDependencies(cat catalog.Lookup) []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range cat.All() {
		for _, d := range e.Dependencies {
			if !seen[d] {
				seen[d] = true
				names = append(names, d)
			}
		}
	}
	return names
}

func (a *app) newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Find games installed outside the launcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.setup(cmd.Context())
			if err != nil {
				return err
			}
			n := eng.Detect(cmd.Context())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Detected %d new games\n", n)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mmolauncher v%s\n", config.AppVersion)
		},
	}
}
