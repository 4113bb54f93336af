// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tee duplicates the writes made to an io.Writer into one or more files
// for the duration of a scope.
//
// A Scope is a composite writer: every Write goes to the original writer first,
// then (optionally passed through a Filter) to each auxiliary file in the order
// the paths were given. Closing the Scope closes the files. Install is the
// rebinding form, which swaps the Scope into an io.Writer variable and puts the
// original back on Close.
//
//	s, err := tee.Open(os.Stdout, []string{"out.log"}, tee.WithMode(tee.ModeAppend))
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	fmt.Fprintln(s, "goes to stdout and out.log")
//
// A Scope is not safe for concurrent use. Callers with several writers must
// serialize them.
package tee
