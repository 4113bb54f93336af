// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run subcommand, which runs a command and copies
// its standard output and standard error into files.
package run

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"syscall"

	"github.com/creack/pty"
	"github.com/matt-FFFFFF/tee"
	"github.com/matt-FFFFFF/tee/cmd/tee/flags"
	"github.com/matt-FFFFFF/tee/internal/config"
	"github.com/matt-FFFFFF/tee/internal/ctxlog"
	"github.com/matt-FFFFFF/tee/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const (
	stdoutFlag = "stdout"
	stderrFlag = "stderr"
	ptyFlag    = "pty"
	cliExitStr = ""
)

var (
	// ErrNoCommand is returned when no command is given after the flags.
	ErrNoCommand = errors.New("no command given")
	// ErrStartCommand is returned when the command cannot be started.
	ErrStartCommand = errors.New("failed to start command")
	// ErrCopyPty is returned when the pseudo-terminal output cannot be read.
	ErrCopyPty = errors.New("failed to copy pseudo-terminal output")
)

// NewCommand returns the run subcommand.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a command, copying its stdout and stderr into files",
		ArgsUsage: "-- COMMAND [ARGS...]",
		Description: `Run COMMAND with its standard output and standard error each passed through
an independent tee scope. Everything the command writes still reaches the terminal;
a copy, optionally filtered, is written to every --stdout and --stderr file.

With --pty the command runs in a pseudo-terminal, so programs that draw progress bars
keep doing so. A pseudo-terminal has a single output, so stderr is merged into stdout
and the --stderr files are not written. Standard input is not forwarded in this mode.

The exit code of the command becomes the exit code of tee.
`,
		Flags: append(flags.Common(),
			&cli.StringSliceFlag{
				Name:      stdoutFlag,
				Aliases:   []string{"o"},
				Usage:     "File that receives a copy of stdout. Specify multiple times for multiple files.",
				TakesFile: true,
			},
			&cli.StringSliceFlag{
				Name:      stderrFlag,
				Aliases:   []string{"e"},
				Usage:     "File that receives a copy of stderr. Specify multiple times for multiple files.",
				TakesFile: true,
			},
			&cli.BoolFlag{
				Name:        ptyFlag,
				Aliases:     []string{"t"},
				Usage:       "Run the command in a pseudo-terminal",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
		),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) (err error) {
	ctx = flags.Setup(ctx, cmd)
	logger := ctxlog.Logger(ctx)
	logger.Debug("Running run command")

	argv := cmd.Args().Slice()
	if len(argv) == 0 {
		logger.Error("Please specify the command to run, e.g. tee run -o out.log -- make build")
		return cli.Exit(ErrNoCommand.Error(), 1)
	}

	cfg, err := flags.Resolve(ctx, cmd, &config.Config{
		Stdout: cmd.StringSlice(stdoutFlag),
		Stderr: cmd.StringSlice(stderrFlag),
		Pty:    cmd.Bool(ptyFlag),
	})
	if err != nil {
		logger.Error("Failed to resolve configuration", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	root := cmd.Root()

	outScope, err := openScope(cfg, root.Writer, cfg.Stdout)
	if err != nil {
		logger.Error("Failed to open stdout files", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	defer closeScope(ctx, outScope, &err)

	var errFiles []string
	if !cfg.Pty {
		errFiles = cfg.Stderr
	} else if len(cfg.Stderr) > 0 {
		logger.Warn("stderr is merged into stdout in pty mode, stderr files are not written", "files", cfg.Stderr)
	}

	errScope, err := openScope(cfg, root.ErrWriter, errFiles)
	if err != nil {
		logger.Error("Failed to open stderr files", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	defer closeScope(ctx, errScope, &err)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	child := exec.CommandContext(runCtx, argv[0], argv[1:]...)

	logger.Debug("command info", "argv", argv, "stdout_files", cfg.Stdout, "stderr_files", errFiles, "pty", cfg.Pty)

	var runErr error

	if cfg.Pty {
		runErr = runPty(runCtx, cancel, child, outScope)
	} else {
		child.Stdin = root.Reader
		child.Stdout = outScope
		child.Stderr = errScope
		runErr = runPiped(runCtx, cancel, child)
	}

	return exitStatus(ctx, runErr)
}

// openScope opens a scope with its own filter instances.
func openScope(cfg *config.Config, w io.Writer, paths []string) (*tee.Scope, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	return tee.Open(w, slices.Clone(paths), opts...)
}

// closeScope closes s and turns a failure into the command error, unless there already is one.
func closeScope(ctx context.Context, s *tee.Scope, err *error) {
	if closeErr := s.Close(); closeErr != nil {
		ctxlog.Error(ctx, "Failed to close output files", "error", closeErr, "files", s.Paths())

		if *err == nil {
			*err = cli.Exit(cliExitStr, 1)
		}
	}
}

func runPiped(ctx context.Context, cancel context.CancelFunc, child *exec.Cmd) error {
	if err := child.Start(); err != nil {
		return errors.Join(ErrStartCommand, err)
	}

	ctxlog.Debug(ctx, "process started", "pid", child.Process.Pid)

	stop := relaySignals(ctx, cancel, child.Process)
	defer stop()

	return child.Wait() //nolint:wrapcheck
}

func runPty(ctx context.Context, cancel context.CancelFunc, child *exec.Cmd, w io.Writer) error {
	ptmx, err := pty.Start(child)
	if err != nil {
		return errors.Join(ErrStartCommand, err)
	}

	defer ptmx.Close() //nolint:errcheck

	ctxlog.Debug(ctx, "process started in pseudo-terminal", "pid", child.Process.Pid)

	stop := relaySignals(ctx, cancel, child.Process)
	defer stop()

	_, copyErr := io.Copy(w, ptmx)
	waitErr := child.Wait()

	// Reading the master side fails with EIO once the child has closed the terminal.
	if copyErr != nil && !errors.Is(copyErr, syscall.EIO) {
		return errors.Join(ErrCopyPty, copyErr, waitErr)
	}

	return waitErr //nolint:wrapcheck
}

// relaySignals passes termination signals on to p until the returned function is called.
// A second signal of the same type cancels ctx, which kills p.
func relaySignals(ctx context.Context, cancel context.CancelFunc, p *os.Process) func() {
	sigCh := signalbroker.New(ctx)
	watchCtx, stopWatch := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		signalbroker.Watch(watchCtx, sigCh, func(s os.Signal) {
			if err := p.Signal(s); err != nil {
				ctxlog.Info(ctx, "failed to send signal", "signal", s.String(), "error", err)
			}
		}, cancel)
	}()

	return func() {
		signalbroker.Stop(sigCh)
		stopWatch()
		<-done
	}
}

// exitStatus maps the result of the child to a cli exit error carrying the child's exit code.
func exitStatus(ctx context.Context, err error) error {
	if err == nil {
		ctxlog.Info(ctx, "command completed successfully")
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Terminated by a signal.
			code = 1
		}

		ctxlog.Info(ctx, "command exited with non-zero status", "exit_code", code)

		return cli.Exit(cliExitStr, code)
	}

	ctxlog.Error(ctx, "command failed", "error", err)

	return cli.Exit(cliExitStr, 1)
}
