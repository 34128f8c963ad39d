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
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var timeoutTr = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ResponseHeaderTimeout: 30 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
}

// DefaultHTTPClient follows redirects, which shortened links rely on.
var DefaultHTTPClient = &http.Client{
	Transport: timeoutTr,
}

// Download fetches rawURL into dir and returns the written file path. The
// file name comes from Content-Disposition, then the final URL after
// redirects, then fallback. Data is written to a .part file and renamed when
// complete.
func Download(
	ctx context.Context,
	client *http.Client,
	fs afero.Fs,
	rawURL string,
	dir string,
	fallback string,
) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error getting url: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Error().Err(err).Msgf("closing body")
		}
	}(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("invalid status code: %d", resp.StatusCode)
	}

	finalPath := filepath.Join(dir, downloadName(resp, fallback))
	tempPath := finalPath + ".part"

	file, err := fs.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("error creating file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		discard(fs, file, tempPath)
		return "", fmt.Errorf("error downloading file: %w", err)
	}

	expected := resp.ContentLength
	if expected > 0 && written != expected {
		discard(fs, file, tempPath)
		return "", fmt.Errorf("download incomplete: expected %d bytes, got %d", expected, written)
	}

	err = file.Close()
	if err != nil {
		return "", fmt.Errorf("error closing file: %w", err)
	}

	if err := fs.Rename(tempPath, finalPath); err != nil {
		if err := fs.Remove(tempPath); err != nil {
			log.Warn().Err(err).Msgf("error removing temp file: %s", tempPath)
		}
		return "", fmt.Errorf("error renaming temp file: %w", err)
	}

	log.Info().Msgf("downloaded %s to %s (%d bytes)", rawURL, finalPath, written)
	return finalPath, nil
}

func discard(fs afero.Fs, file afero.File, tempPath string) {
	if err := file.Close(); err != nil {
		log.Warn().Err(err).Msgf("error closing file: %s", tempPath)
	}
	if err := fs.Remove(tempPath); err != nil {
		log.Warn().Err(err).Msgf("error removing partial download: %s", tempPath)
	}
}

func downloadName(resp *http.Response, fallback string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := safeName(params["filename"]); name != "" {
				return name
			}
		}
	}

	var u *url.URL
	if resp.Request != nil {
		u = resp.Request.URL
	}
	if u != nil {
		if name := safeName(path.Base(u.Path)); name != "" && strings.Contains(name, ".") {
			return name
		}
	}

	return fallback
}

func safeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
