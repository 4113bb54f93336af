// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package filter provides ready-made tee.Filter functions and a registry that
// maps their names to constructors, for use from configuration and the command line.
//
// Filters never return a slice that aliases their input.
package filter
