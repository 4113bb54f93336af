// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger uses a pretty console handler writing to standard error,
// so that diagnostic output never ends up in a teed standard output.
// The level comes from <EXECUTABLE>_LOG_LEVEL, then TEE_LOG_LEVEL, and defaults to WARN.
package ctxlog
