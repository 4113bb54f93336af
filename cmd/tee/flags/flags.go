// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package flags holds the command-line flags shared by the tee subcommands and
// turns them, together with an optional config file, into a config.Config.
package flags

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matt-FFFFFF/tee/filter"
	"github.com/matt-FFFFFF/tee/internal/config"
	"github.com/matt-FFFFFF/tee/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	ConfigFlag                  = "config"
	ConfigTimeoutFlag           = "config-timeout"
	AppendFlag                  = "append"
	FilterFlag                  = "filter"
	LogLevelFlag                = "log-level"
	LogJSONFlag                 = "log-json"
	configTimeoutSecondsDefault = 30
)

// ErrResolveConfig is returned when the config file cannot be loaded or the result is invalid.
var ErrResolveConfig = errors.New("failed to resolve configuration")

// Common returns the flags every subcommand accepts.
func Common() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    ConfigFlag,
			Aliases: []string{"c"},
			Usage: "URL of a YAML or HCL session file. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources.",
			TakesFile: true,
			Sources:   cli.EnvVars("TEE_CONFIG"),
			OnlyOnce:  true,
		},
		&cli.IntFlag{
			Name:  ConfigTimeoutFlag,
			Usage: "Maximum time in seconds to wait for the config file to be fetched.",
			Value: configTimeoutSecondsDefault,
		},
		&cli.BoolFlag{
			Name:        AppendFlag,
			Aliases:     []string{"a"},
			Usage:       "Append to the given files, do not overwrite",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.StringSliceFlag{
			Name:    FilterFlag,
			Usage: "Filter applied to the copies written to files, one of " + strings.Join(filter.Names(), ", ") +
				". Specify multiple times to chain filters.",
			Aliases: []string{"F"},
		},
		&cli.StringFlag{
			Name:     LogLevelFlag,
			Usage:    "Log level: DEBUG, INFO, WARN or ERROR. Logs are written to stderr.",
			Sources:  cli.EnvVars(ctxlog.EnvLogLevel),
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        LogJSONFlag,
			Usage:       "Write logs as JSON",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
	}
}

// Setup applies the logging flags and returns a context carrying the logger.
func Setup(ctx context.Context, cmd *cli.Command) context.Context {
	if lvl := cmd.String(LogLevelFlag); lvl != "" {
		ctxlog.LevelVar.Set(ctxlog.ParseLevel(lvl))
	}

	logger := ctxlog.Logger(ctx)
	if cmd.Bool(LogJSONFlag) {
		logger = ctxlog.JSONLogger
	}

	return ctxlog.New(ctx, logger.With("command", cmd.Name))
}

// Resolve loads the config file named by --config, if any, and merges the
// common flags and overrides on top of it. The result is validated.
func Resolve(ctx context.Context, cmd *cli.Command, overrides *config.Config) (*config.Config, error) {
	cfg := &config.Config{}

	if url := cmd.String(ConfigFlag); url != "" {
		fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(cmd.Int(ConfigTimeoutFlag))*time.Second)
		defer cancel()

		loaded, err := config.Load(fetchCtx, url)
		if err != nil {
			return nil, errors.Join(ErrResolveConfig, err)
		}

		ctxlog.Debug(ctx, "loaded config file", "url", url)

		cfg = loaded
	}

	cfg.Merge(FromFlags(cmd))
	cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(ErrResolveConfig, err)
	}

	return cfg, nil
}

// FromFlags returns the part of a config set by the common flags.
func FromFlags(cmd *cli.Command) *config.Config {
	cfg := &config.Config{
		Filters: cmd.StringSlice(FilterFlag),
	}

	if cmd.Bool(AppendFlag) {
		cfg.Mode = "append"
	}

	return cfg
}
