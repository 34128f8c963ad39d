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
	"strings"

	"github.com/mmolauncher/mmolauncher/pkg/catalog"
)

// ManualStrategy only tells the user where to get the game.
type ManualStrategy struct{}

func (*ManualStrategy) Method() catalog.Method {
	return catalog.MethodNone
}

func (*ManualStrategy) Attempt(_ context.Context, req Request) Outcome {
	e := req.Entry

	switch {
	case e.SteamAppID() > 0 || strings.HasPrefix(e.Source, "steam://"):
		req.notify(fmt.Sprintf("%s is installed through the Steam client", e.Name))
		if e.SteamAppID() > 0 {
			req.notify(fmt.Sprintf("Steam URL: steam://install/%d", e.SteamAppID()))
		}
	case e.Native:
		req.notify(fmt.Sprintf("%s is a native Linux game, download it from the official website", e.Name))
	default:
		req.notify(fmt.Sprintf("%s must be installed manually", e.Name))
	}

	if e.Source != "" && !strings.HasPrefix(e.Source, "steam://") {
		req.notify("Download URL: " + e.Source)
	} else if e.Website != "" {
		req.notify("Website: " + e.Website)
	}
	if e.Notes != "" {
		req.notify(e.Notes)
	}

	return Outcome{Err: ErrManualInstall}
}
