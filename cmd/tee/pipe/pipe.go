// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pipe implements the pipe subcommand, the classic tee: standard input
// is copied to standard output and to every named file.
package pipe

import (
	"context"
	"errors"
	"io"

	"github.com/matt-FFFFFF/tee"
	"github.com/matt-FFFFFF/tee/cmd/tee/flags"
	"github.com/matt-FFFFFF/tee/internal/config"
	"github.com/matt-FFFFFF/tee/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const cliExitStr = ""

// ErrCopyInput is returned when standard input cannot be copied to every output.
var ErrCopyInput = errors.New("failed to copy input")

// NewCommand returns the pipe subcommand.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "pipe",
		Usage:     "Copy standard input to standard output and to files",
		ArgsUsage: "[FILE...]",
		Description: `Copy standard input to standard output, and a copy, optionally filtered,
to every FILE. Files named in a config file's stdout list are written as well.`,
		Flags:  flags.Common(),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) (err error) {
	ctx = flags.Setup(ctx, cmd)
	logger := ctxlog.Logger(ctx)
	logger.Debug("Running pipe command")

	cfg, err := flags.Resolve(ctx, cmd, &config.Config{Stdout: cmd.Args().Slice()})
	if err != nil {
		logger.Error("Failed to resolve configuration", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	if len(cfg.Stderr) > 0 {
		logger.Warn("pipe only copies standard input, stderr files are ignored", "files", cfg.Stderr)
	}

	opts, err := cfg.Options()
	if err != nil {
		logger.Error("Failed to build scope options", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	root := cmd.Root()

	s, err := tee.Open(root.Writer, cfg.Stdout, opts...)
	if err != nil {
		logger.Error("Failed to open output files", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			logger.Error("Failed to close output files", "error", closeErr)

			if err == nil {
				err = cli.Exit(cliExitStr, 1)
			}
		}
	}()

	n, err := io.Copy(s, root.Reader)
	if err != nil {
		logger.Error("Failed to copy input", "error", errors.Join(ErrCopyInput, err), "bytes", n)
		return cli.Exit(cliExitStr, 1)
	}

	logger.Debug("input copied", "bytes", n, "files", s.Paths())

	return nil
}
