// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI colour codes and decides whether a given
// file should receive colour, honouring the NO_COLOR and FORCE_COLOR environment
// variables before falling back to terminal detection with golang.org/x/term.
package color
