// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package flags

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/tee/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// resolveWith runs a command carrying the common flags and resolves its config.
func resolveWith(t *testing.T, overrides *config.Config, args ...string) (*config.Config, error) {
	t.Helper()

	var (
		cfg *config.Config
		err error
	)

	cmd := &cli.Command{
		Name:  "test",
		Flags: Common(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx = Setup(ctx, cmd)
			cfg, err = Resolve(ctx, cmd, overrides)

			return nil
		},
	}

	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))

	return cfg, err
}

func TestResolve_FlagsOnly(t *testing.T) {
	cfg, err := resolveWith(t, &config.Config{Stdout: []string{"out.log"}},
		"-a", "-F", "strip-cr", "--filter", "strip-ansi")
	require.NoError(t, err)

	assert.Equal(t, "append", cfg.Mode)
	assert.Equal(t, []string{"strip-cr", "strip-ansi"}, cfg.Filters)
	assert.Equal(t, []string{"out.log"}, cfg.Stdout)
}

func TestResolve_FlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "tee.yaml")
	require.NoError(t, os.WriteFile(name, []byte("mode: write\nfilters: [collapse]\nstdout: [a.log]\n"), 0o644))

	cfg, err := resolveWith(t, &config.Config{Stdout: []string{"b.log"}}, "--config", name, "--append")
	require.NoError(t, err)

	assert.Equal(t, "append", cfg.Mode)
	assert.Equal(t, []string{"collapse"}, cfg.Filters)
	assert.Equal(t, []string{"a.log", "b.log"}, cfg.Stdout)
}

func TestResolve_ConfigFromEnv(t *testing.T) {
	name := filepath.Join(t.TempDir(), "tee.yaml")
	require.NoError(t, os.WriteFile(name, []byte("stdout: [env.log]\n"), 0o644))
	t.Setenv("TEE_CONFIG", name)

	cfg, err := resolveWith(t, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"env.log"}, cfg.Stdout)
}

func TestResolve_Errors(t *testing.T) {
	_, err := resolveWith(t, nil, "--filter", "bogus")
	require.ErrorIs(t, err, ErrResolveConfig)
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = resolveWith(t, nil, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrResolveConfig)
	require.ErrorIs(t, err, config.ErrFetch)
}
