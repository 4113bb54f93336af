// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tee

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

const (
	// sixFourFour is the permission used for auxiliary files created by a scope.
	sixFourFour = 0o644
)

// Mode selects how auxiliary files are opened.
type Mode int

const (
	// ModeWrite truncates existing files and creates missing ones.
	ModeWrite Mode = iota
	// ModeAppend appends to existing files and creates missing ones.
	ModeAppend
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModeAppend:
		return "append"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// flag returns the os.OpenFile flags for the mode.
func (m Mode) flag() int {
	if m == ModeAppend {
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
}

// ParseMode converts "w", "write", "a" or "append" (case insensitive) to a Mode.
// The empty string is ModeWrite.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "w", "write":
		return ModeWrite, nil
	case "a", "append":
		return ModeAppend, nil
	default:
		return ModeWrite, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Filter transforms the data of a single Write before it is copied to the
// auxiliary files. The original writer always receives the untransformed data.
//
// A Filter may return a shorter, longer or empty slice. Returning an error
// aborts the fan-out for that Write.
type Filter func(p []byte) ([]byte, error)

// Flush returns the data a stateful filter is still holding back.
// It is called once, by Close, and the result is written to every auxiliary file.
type Flush func() ([]byte, error)

// Option implements a functional options pattern for Open and Install.
type Option func(s *Scope)

// WithMode sets the open mode of the auxiliary files. The default is ModeWrite.
func WithMode(m Mode) Option {
	return func(s *Scope) {
		s.mode = m
	}
}

// WithFilter sets the filter applied to the auxiliary copy of each write.
// A nil filter is the identity.
func WithFilter(f Filter) Option {
	return func(s *Scope) {
		s.filter = f
	}
}

// WithFlush sets the function Close uses to drain the filter.
func WithFlush(f Flush) Option {
	return func(s *Scope) {
		s.flush = f
	}
}

// WithFs sets the filesystem the auxiliary files are opened on.
// The default is the package level FS.
func WithFs(fs afero.Fs) Option {
	return func(s *Scope) {
		s.fs = fs
	}
}

// WithPerm sets the permission bits used when an auxiliary file is created.
func WithPerm(perm os.FileMode) Option {
	return func(s *Scope) {
		s.perm = perm
	}
}
