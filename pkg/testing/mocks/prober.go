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

package mocks

import (
	"github.com/mmolauncher/mmolauncher/pkg/helpers/syncutil"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
)

// FakeProber is an in-memory probe.Prober. Executables can be added or removed
// while a test runs, e.g. from a mocked package install.
type FakeProber struct {
	present map[string]bool
	mu      syncutil.Mutex
}

var _ probe.Prober = (*FakeProber)(nil)

// NewFakeProber returns a prober that reports the given names as present.
func NewFakeProber(names ...string) *FakeProber {
	p := &FakeProber{present: make(map[string]bool)}
	for _, n := range names {
		p.present[n] = true
	}
	return p
}

func (p *FakeProber) Add(names ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range names {
		p.present[n] = true
	}
}

func (p *FakeProber) Remove(names ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range names {
		delete(p.present, n)
	}
}

func (p *FakeProber) Probe(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.present[name]
}

func (p *FakeProber) FindFirst(names ...string) (string, bool) {
	return probe.FindFirst(p, names...)
}
