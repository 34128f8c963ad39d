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

package detect

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DefaultLutrisDBs are the usual locations of the Lutris game database.
func DefaultLutrisDBs(home string) []string {
	return []string{
		filepath.Join(home, ".local", "share", "lutris", "pga.db"),
		filepath.Join(home, ".var", "app", "net.lutris.Lutris", "data", "lutris", "pga.db"),
	}
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open lutris database: %w", err)
	}
	return db, nil
}

// LutrisSlugs returns the slugs of games Lutris marks as installed.
func LutrisSlugs(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT slug FROM games WHERE installed = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to query lutris games: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close Lutris query rows")
		}
	}()

	slugs := make(map[string]bool)
	for rows.Next() {
		var slug sql.NullString
		if err := rows.Scan(&slug); err != nil {
			log.Warn().Err(err).Msg("failed to scan Lutris game row")
			continue
		}
		if slug.Valid && slug.String != "" {
			slugs[slug.String] = true
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lutris rows: %w", err)
	}
	return slugs, nil
}
