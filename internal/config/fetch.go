// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/tee/internal/ctxlog"
	"github.com/spf13/afero"
)

// ErrFetch is returned when a config file cannot be retrieved.
var ErrFetch = errors.New("failed to fetch config file")

// FS is the filesystem local config files are read from.
var FS = afero.NewOsFs()

const (
	goGetterPathSeparator   = "//"
	goGetterRefSeparator    = "?"
	goGetterForcedSeparator = "::"
	minimumGetterParts      = 3 // Minimum parts in a go-getter URL: scheme, host, and path
)

// Load fetches the config at url and parses it according to the file name.
func Load(ctx context.Context, url string) (*Config, error) {
	b, name, err := Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	ctxlog.Debug(ctx, "config fetched", "url", url, "file", name, "bytes", len(b))

	return Parse(name, b)
}

// Fetch returns the content and base name of the config file at url.
// An existing local file is read through FS. Anything else is retrieved with
// Hashicorp's go-getter: a URL with a "//" subdirectory is fetched as a
// directory and the file read from it, any other URL as a single file.
func Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("%w: empty URL", ErrFetch)
	}

	if fi, err := FS.Stat(url); err == nil && !fi.IsDir() {
		b, err := afero.ReadFile(FS, url)
		if err != nil {
			return nil, "", errors.Join(ErrFetch, err)
		}

		return b, filepath.Base(url), nil
	}

	return fetchRemote(ctx, url)
}

func fetchRemote(ctx context.Context, url string) ([]byte, string, error) {
	tmpDir, err := os.MkdirTemp("", "tee-getter-*")
	if err != nil {
		return nil, "", errors.Join(ErrFetch, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, "", errors.Join(ErrFetch, err)
	}

	req := &getter.Request{
		Src:  url,
		Pwd:  wd,
		Copy: true,
	}

	// A file inside a repository or archive can only be reached by getting
	// the enclosing directory.
	// https://github.com/hashicorp/go-getter/issues/98
	dirURL, fileName := splitFileNameFromGetterURL(url)
	if dirURL != "" {
		req.Src = dirURL
		req.GetMode = getter.ModeDir
		req.Dst = filepath.Join(tmpDir, "dir")
	} else {
		fileName = fileNameFromGetterURL(url)
		if fileName == "" {
			return nil, "", fmt.Errorf("%w: invalid URL format: %s", ErrFetch, url)
		}

		req.GetMode = getter.ModeFile
		req.Dst = filepath.Join(tmpDir, fileName)
	}

	ctxlog.Debug(ctx, "fetching config with go-getter", "src", req.Src, "file", fileName)

	client := getter.Client{
		DisableSymlinks: true,
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, "", errors.Join(ErrFetch, err)
	}

	target := res.Dst
	if req.GetMode == getter.ModeDir {
		target = filepath.Join(res.Dst, fileName)
	}

	b, err := os.ReadFile(target)
	if err != nil {
		return nil, "", errors.Join(ErrFetch, err)
	}

	return b, fileName, nil
}

// fileNameFromGetterURL returns the base name of the path in a go-getter URL,
// without a forced getter prefix or query.
func fileNameFromGetterURL(url string) string {
	if _, rest, found := strings.Cut(url, goGetterForcedSeparator); found {
		url = rest
	}

	url, _, _ = strings.Cut(url, goGetterRefSeparator)

	name := path.Base(filepath.ToSlash(url))
	if name == "." || name == "/" || name == "" {
		return ""
	}

	return name
}

// splitFileNameFromGetterURL splits a go-getter URL into the directory URL and the file name.
// A ref query parameter is carried over to the directory URL.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]

	if path, query, found := strings.Cut(last, goGetterRefSeparator); found {
		ref = query
		last = path
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)

	if dir := filepath.Dir(last); dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = dir
	}

	dirURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		dirURL += goGetterRefSeparator + ref
	}

	return dirURL, fileName
}
