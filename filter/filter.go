// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package filter

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/matt-FFFFFF/tee"
)

// ErrUnknownFilter is returned when a filter name is not registered.
var ErrUnknownFilter = errors.New("unknown filter")

const (
	// NameStripCR is the registry name of StripCR.
	NameStripCR = "strip-cr"
	// NameStripANSI is the registry name of StripANSI.
	NameStripANSI = "strip-ansi"
	// NameCollapse is the registry name of Collapse.
	NameCollapse = "collapse"
)

// stage is one instance of a registered filter. flush is nil for stateless filters.
type stage struct {
	filter tee.Filter
	flush  func() []byte
}

type entry struct {
	ctor        func() stage
	description string
}

func stateless(f tee.Filter) func() stage {
	return func() stage { return stage{filter: f} }
}

// registry holds constructors so stateful filters are never shared.
var registry = map[string]entry{
	NameStripCR: {
		ctor:        stateless(StripCR),
		description: "Remove every carriage return.",
	},
	NameStripANSI: {
		ctor:        stateless(StripANSI),
		description: "Remove ANSI colour and cursor control sequences.",
	},
	NameCollapse: {
		ctor: func() stage {
			c := NewCollapse()
			return stage{filter: c.Filter, flush: c.Flush}
		},
		description: "Keep only the final state of carriage-return redrawn lines, emitting whole lines.",
	},
}

// ansiPattern matches CSI sequences (ESC [ ... final byte) and OSC sequences
// terminated by BEL or ESC \.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)

// StripCR removes every carriage return.
func StripCR(p []byte) ([]byte, error) {
	return bytes.ReplaceAll(p, []byte{'\r'}, []byte{}), nil
}

// StripANSI removes ANSI colour and cursor control sequences.
// A sequence split across two writes is not recognised.
func StripANSI(p []byte) ([]byte, error) {
	return ansiPattern.ReplaceAll(p, nil), nil
}

// Chain returns a filter that applies filters from left to right.
// The first error stops the chain. Nil filters are skipped.
func Chain(filters ...tee.Filter) tee.Filter {
	return func(p []byte) ([]byte, error) {
		out := bytes.Clone(p)

		for i, f := range filters {
			if f == nil {
				continue
			}

			var err error

			out, err = f(out)
			if err != nil {
				return nil, fmt.Errorf("filter %d: %w", i, err)
			}
		}

		return out, nil
	}
}

// Lookup returns a new instance of the named filter.
func Lookup(name string) (tee.Filter, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownFilter, name, Names())
	}

	return e.ctor().filter, nil
}

// Describe returns a one-line description of the named filter.
func Describe(name string) (string, error) {
	e, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %q (available: %v)", ErrUnknownFilter, name, Names())
	}

	return e.description, nil
}

// Build looks up every name and chains the filters in order.
// No names yields a nil filter, which a tee scope treats as the identity.
func Build(names ...string) (tee.Filter, error) {
	f, _, err := BuildWithFlush(names...)
	return f, err
}

// BuildWithFlush is Build, and also returns the flush function that drains
// the stateful filters in the chain. Data released by a filter is passed
// through the filters after it. The flush is nil when no filter holds state.
func BuildWithFlush(names ...string) (tee.Filter, tee.Flush, error) {
	if len(names) == 0 {
		return nil, nil, nil
	}

	stages := make([]stage, 0, len(names))
	stateful := false

	for _, name := range names {
		e, ok := registry[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownFilter, name, Names())
		}

		st := e.ctor()
		stateful = stateful || st.flush != nil
		stages = append(stages, st)
	}

	var flush tee.Flush
	if stateful {
		flush = func() ([]byte, error) {
			return flushStages(stages)
		}
	}

	if len(stages) == 1 {
		return stages[0].filter, flush, nil
	}

	filters := make([]tee.Filter, len(stages))
	for i, st := range stages {
		filters[i] = st.filter
	}

	return Chain(filters...), flush, nil
}

func flushStages(stages []stage) ([]byte, error) {
	var carry []byte

	for i, st := range stages {
		if len(carry) > 0 {
			var err error

			carry, err = st.filter(carry)
			if err != nil {
				return nil, fmt.Errorf("filter %d: %w", i, err)
			}
		}

		if st.flush != nil {
			carry = append(carry, st.flush()...)
		}
	}

	return carry, nil
}

// Names returns the registered filter names, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}
