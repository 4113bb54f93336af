// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tee

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

// hookFS is a filesystem wrapper that injects errors and records file activity.
type hookFS struct {
	afero.Fs
	openErr    map[string]error
	writeErr   map[string]error
	closeErr   map[string]error
	shortWrite map[string]bool
	onWrite    func(name string, p []byte)
	open       int
}

func newHookFS() *hookFS {
	return &hookFS{
		Fs:         afero.NewMemMapFs(),
		openErr:    make(map[string]error),
		writeErr:   make(map[string]error),
		closeErr:   make(map[string]error),
		shortWrite: make(map[string]bool),
	}
}

// OpenFile implements afero.Fs.
func (h *hookFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err, ok := h.openErr[name]; ok {
		return nil, err
	}

	f, err := h.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	h.open++

	return &hookFile{File: f, fs: h, name: name}, nil
}

// hookFile is an afero.File that reports to its hookFS.
type hookFile struct {
	afero.File
	fs     *hookFS
	name   string
	closed bool
}

// Write implements afero.File.
func (f *hookFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	if err, ok := f.fs.writeErr[f.name]; ok {
		return 0, err
	}

	if f.fs.onWrite != nil {
		f.fs.onWrite(f.name, p)
	}

	if f.fs.shortWrite[f.name] && len(p) > 0 {
		return f.File.Write(p[:len(p)-1])
	}

	return f.File.Write(p)
}

// Close implements afero.File.
func (f *hookFile) Close() error {
	if f.closed {
		return os.ErrClosed
	}

	f.closed = true
	f.fs.open--

	err := f.File.Close()
	if closeErr, ok := f.fs.closeErr[f.name]; ok {
		return errors.Join(closeErr, err)
	}

	return err
}

// recordWriter records every write it receives and optionally fails.
type recordWriter struct {
	writes  []string
	err     error
	onWrite func(p []byte)
}

func (r *recordWriter) Write(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	if r.onWrite != nil {
		r.onWrite(p)
	}

	r.writes = append(r.writes, string(p))

	return len(p), nil
}

func readFile(fs afero.Fs, name string) string {
	b, err := afero.ReadFile(fs, name)
	if err != nil {
		return "<" + err.Error() + ">"
	}

	return string(b)
}
