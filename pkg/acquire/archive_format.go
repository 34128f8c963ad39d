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
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mmolauncher/mmolauncher/pkg/helpers/command"
	"github.com/mmolauncher/mmolauncher/pkg/probe"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type Format string

const (
	FormatZip    Format = "zip"
	FormatTarGz  Format = "tar.gz"
	FormatTarBz2 Format = "tar.bz2"
	Format7z     Format = "7z"
	FormatRar    Format = "rar"
)

// archiveExtensions are checked in order so compound extensions win.
var archiveExtensions = []struct {
	ext    string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.bz2", FormatTarBz2},
	{".tbz2", FormatTarBz2},
	{".zip", FormatZip},
	{".7z", Format7z},
	{".rar", FormatRar},
}

// DirectHosts serve client archives without a landing page. Entries with a
// path component match as a prefix of host+path.
var DirectHosts = []string{
	"mega.nz",
	"mediafire.com",
	"zengeronline.com",
	"cdn.turtle-wow.org",
	"archive.org/download",
	"updates-eu.evolvedpw.com",
	"updates-us.evolvedpw.com",
}

// Shorteners redirect to downloads often enough to be worth following.
var Shorteners = []string{"bit.ly", "tinyurl.com"}

// FormatFromName detects the archive format from a file name or URL path.
func FormatFromName(name string) (Format, bool) {
	lower := strings.ToLower(name)
	for _, a := range archiveExtensions {
		if strings.HasSuffix(lower, a.ext) {
			return a.format, true
		}
	}
	return "", false
}

// IsDirectDownload guesses whether rawURL points straight at a client
// archive rather than a web page.
func IsDirectDownload(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	if _, ok := FormatFromName(u.Path); ok {
		return true
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	hostPath := host + strings.ToLower(u.Path)

	for _, h := range DirectHosts {
		if strings.Contains(h, "/") {
			if strings.HasPrefix(hostPath, h) {
				return true
			}
			continue
		}
		if matchHost(host, h) {
			return true
		}
	}

	for _, h := range Shorteners {
		if matchHost(host, h) {
			return true
		}
	}

	return false
}

func matchHost(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

var sniffedFormats = []struct {
	mime   string
	format Format
}{
	{"application/zip", FormatZip},
	{"application/gzip", FormatTarGz},
	{"application/x-bzip2", FormatTarBz2},
	{"application/x-7z-compressed", Format7z},
	{"application/x-rar-compressed", FormatRar},
}

// SniffFormat detects the archive format from file contents.
func SniffFormat(fs afero.Fs, path string) (Format, bool) {
	f, err := fs.Open(path)
	if err != nil {
		log.Warn().Err(err).Msgf("failed to open download for sniffing: %s", path)
		return "", false
	}
	defer func(f afero.File) {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msgf("failed to close: %s", path)
		}
	}(f)

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		log.Warn().Err(err).Msgf("failed to sniff download: %s", path)
		return "", false
	}

	for m := mtype; m != nil; m = m.Parent() {
		for _, s := range sniffedFormats {
			if m.Is(s.mime) {
				return s.format, true
			}
		}
	}

	log.Debug().Msgf("download %s detected as %s", path, mtype.String())
	return "", false
}

type extractor struct {
	args    func(archive, dir string) []string
	program string
}

func sevenZip(program string) extractor {
	return extractor{
		program: program,
		args:    func(a, d string) []string { return []string{"x", "-y", "-o" + d, a} },
	}
}

func tarExtractor(program, flags string) extractor {
	return extractor{
		program: program,
		args:    func(a, d string) []string { return []string{flags, a, "-C", d} },
	}
}

// extractors are tried in order; the first one on PATH is used.
var extractors = map[Format][]extractor{
	FormatZip: {
		{program: "unzip", args: func(a, d string) []string { return []string{"-o", "-q", a, "-d", d} }},
		sevenZip("7z"),
	},
	FormatTarGz:  {tarExtractor("tar", "-xzf"), tarExtractor("bsdtar", "-xf")},
	FormatTarBz2: {tarExtractor("tar", "-xjf"), tarExtractor("bsdtar", "-xf")},
	Format7z:     {sevenZip("7z"), sevenZip("7za")},
	FormatRar: {
		{program: "unrar", args: func(a, d string) []string { return []string{"x", "-o+", a, d + "/"} }},
		sevenZip("7z"),
	},
}

// Extract unpacks archive into dir with the first available extractor for
// format.
func Extract(
	ctx context.Context,
	cmd command.Executor,
	prober probe.Prober,
	format Format,
	archive string,
	dir string,
) error {
	for _, x := range extractors[format] {
		if !prober.Probe(x.program) {
			continue
		}
		log.Info().Msgf("extracting %s with %s", archive, x.program)
		if err := cmd.Run(ctx, x.program, x.args(archive, dir)...); err != nil {
			return fmt.Errorf("%s failed: %w", x.program, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNoExtractor, format)
}
