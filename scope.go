// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tee

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// FS is the filesystem auxiliary files are opened on.
// Default is the OS filesystem, but can be replaced with a mock for testing.
var FS = afero.NewOsFs()

var (
	// ErrNilWriter is returned when a scope is opened over a nil writer.
	ErrNilWriter = errors.New("writer is nil")
	// ErrNilTarget is returned when Install is given a nil target.
	ErrNilTarget = errors.New("install target is nil")
	// ErrInvalidMode is returned when a mode string cannot be parsed.
	ErrInvalidMode = errors.New("invalid mode")
	// ErrOpenFile is returned when an auxiliary file cannot be opened.
	ErrOpenFile = errors.New("failed to open auxiliary file")
	// ErrAuxWrite is returned when a write to an auxiliary file fails.
	ErrAuxWrite = errors.New("failed to write auxiliary file")
	// ErrFilter is returned when the filter fails for a write.
	ErrFilter = errors.New("filter failed")
	// ErrClose is returned when one or more auxiliary files cannot be closed.
	ErrClose = errors.New("failed to close auxiliary files")
	// ErrClosed is returned when writing to a scope that has been closed.
	ErrClosed = errors.New("tee scope is closed")
)

var _ io.WriteCloser = (*Scope)(nil)

// auxFile is an auxiliary file opened by a scope.
type auxFile struct {
	path string
	file afero.File
}

// Scope duplicates writes to an original writer into a list of auxiliary files.
// Create one with Open or Install and always Close it, typically with defer.
type Scope struct {
	original io.Writer
	target   *io.Writer // Set by Install, restored on Close.
	paths    []string
	files    []auxFile
	filter   Filter
	flush    Flush
	mode     Mode
	fs       afero.Fs
	perm     os.FileMode
	closed   bool
}

// Open opens every path as an auxiliary file and returns a Scope writing to w
// and to those files.
// If any file cannot be opened, the files opened so far are closed and an error
// wrapping ErrOpenFile is returned.
func Open(w io.Writer, paths []string, opts ...Option) (*Scope, error) {
	if w == nil {
		return nil, ErrNilWriter
	}

	s := &Scope{
		original: w,
		paths:    slices.Clone(paths),
		fs:       FS,
		perm:     sixFourFour,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.fs == nil {
		s.fs = FS
	}

	if err := s.openFiles(); err != nil {
		return nil, err
	}

	return s, nil
}

// Install opens a Scope over the writer held in target and stores the Scope in
// target. Close puts the original writer back.
// Installing on a target that already holds a Scope nests the new one inside it.
func Install(target *io.Writer, paths []string, opts ...Option) (*Scope, error) {
	if target == nil {
		return nil, ErrNilTarget
	}

	s, err := Open(*target, paths, opts...)
	if err != nil {
		return nil, err
	}

	s.target = target
	*target = s

	return s, nil
}

// Do runs fn with a Scope over w and closes the Scope on every exit path,
// including a panic in fn. Errors from fn and Close are joined.
func Do(w io.Writer, paths []string, fn func(w io.Writer) error, opts ...Option) (err error) {
	s, err := Open(w, paths, opts...)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	return fn(s)
}

func (s *Scope) openFiles() error {
	s.files = make([]auxFile, 0, len(s.paths))

	for _, path := range s.paths {
		if path == "" {
			return s.abortOpen(fmt.Errorf("%w: empty path", ErrOpenFile))
		}

		f, err := s.fs.OpenFile(path, s.mode.flag(), s.perm)
		if err != nil {
			return s.abortOpen(fmt.Errorf("%w %s: %w", ErrOpenFile, path, err))
		}

		s.files = append(s.files, auxFile{path: path, file: f})
	}

	return nil
}

// abortOpen releases the files opened before an open failure.
func (s *Scope) abortOpen(err error) error {
	if closeErr := s.closeFiles(); closeErr != nil {
		return errors.Join(err, closeErr)
	}

	return err
}

// Write writes p to the original writer, then writes the filtered copy of p to
// every auxiliary file in order.
// The returned count is the count reported by the original writer. If that
// write fails nothing is written to the auxiliary files.
func (s *Scope) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	n, err := s.original.Write(p)
	if err != nil {
		return n, err //nolint:wrapcheck
	}

	aux := p

	if s.filter != nil {
		aux, err = s.filter(p)
		if err != nil {
			return n, errors.Join(ErrFilter, err)
		}
	}

	for _, af := range s.files {
		m, err := af.file.Write(aux)
		if err != nil {
			return n, fmt.Errorf("%w %s: %w", ErrAuxWrite, af.path, err)
		}

		if m != len(aux) {
			return n, fmt.Errorf("%w %s: %w", ErrAuxWrite, af.path, io.ErrShortWrite)
		}
	}

	return n, nil
}

// Close restores the target of an installed Scope, writes whatever the flush
// function returns to the auxiliary files and closes every auxiliary file in
// order. All files are closed even if some fail; the failures are returned
// together, wrapped in ErrClose.
// Calling Close more than once is a no-op.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	if s.target != nil {
		*s.target = s.original
		s.target = nil
	}

	flushErr := s.flushFiles()

	if err := s.closeFiles(); err != nil {
		return errors.Join(err, flushErr)
	}

	if flushErr != nil {
		return errors.Join(ErrClose, flushErr)
	}

	return nil
}

// flushFiles writes the drained filter tail to every auxiliary file.
func (s *Scope) flushFiles() error {
	if s.flush == nil {
		return nil
	}

	tail, err := s.flush()
	if err != nil {
		return errors.Join(ErrFilter, err)
	}

	if len(tail) == 0 {
		return nil
	}

	var merr error

	for _, af := range s.files {
		m, err := af.file.Write(tail)
		if err == nil && m != len(tail) {
			err = io.ErrShortWrite
		}

		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%w %s: %w", ErrAuxWrite, af.path, err))
		}
	}

	return merr
}

func (s *Scope) closeFiles() error {
	var err error

	for _, af := range s.files {
		if closeErr := af.file.Close(); closeErr != nil {
			err = multierror.Append(err, fmt.Errorf("%s: %w", af.path, closeErr))
		}
	}

	s.files = nil

	if err != nil {
		return errors.Join(ErrClose, err)
	}

	return nil
}

// Original returns the writer the Scope forwards to first.
func (s *Scope) Original() io.Writer {
	return s.original
}

// Paths returns the auxiliary file paths in fan-out order.
func (s *Scope) Paths() []string {
	return slices.Clone(s.paths)
}

// Mode returns the mode the auxiliary files were opened with.
func (s *Scope) Mode() Mode {
	return s.mode
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	return s.closed
}
