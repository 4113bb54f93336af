// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the tee command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/tee"
	"github.com/matt-FFFFFF/tee/cmd/tee/filters"
	"github.com/matt-FFFFFF/tee/cmd/tee/pipe"
	"github.com/matt-FFFFFF/tee/cmd/tee/run"
	"github.com/matt-FFFFFF/tee/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

func newRootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			pipe.NewCommand(),
			run.NewCommand(),
			filters.NewCommand(),
		},
		Reader:    os.Stdin,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "tee",
		Description: `tee duplicates output into files. Everything still reaches the terminal
unchanged, while each file receives a copy that can be filtered, for example to
strip colour codes or collapse progress bars.`,
		Usage:     "tee run -o build.log -- make build",
		Version:   fmt.Sprintf("%s (commit: %s)", tee.Version, tee.Commit),
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	err := newRootCmd().Run(ctx, os.Args) // exit codes are handled by the cli framework

	cancel()

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
