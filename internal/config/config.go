// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/matt-FFFFFF/tee"
	"github.com/matt-FFFFFF/tee/filter"
	"github.com/zclconf/go-cty/cty"
)

const hclExt = ".hcl"

var (
	// ErrParseYAML is returned when a YAML config cannot be decoded.
	ErrParseYAML = errors.New("failed to parse YAML config")
	// ErrParseHCL is returned when an HCL config cannot be decoded.
	ErrParseHCL = errors.New("failed to parse HCL config")
	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is a tee session.
type Config struct {
	Mode    string   `yaml:"mode" hcl:"mode,optional"`       // "write" (default) or "append".
	Filters []string `yaml:"filters" hcl:"filters,optional"` // Filter names, applied in order.
	Stdout  []string `yaml:"stdout" hcl:"stdout,optional"`   // Files receiving a copy of standard output.
	Stderr  []string `yaml:"stderr" hcl:"stderr,optional"`   // Files receiving a copy of standard error.
	Pty     bool     `yaml:"pty" hcl:"pty,optional"`         // Run child commands in a pseudo-terminal.
}

// Parse decodes b as HCL if filename ends in ".hcl", otherwise as YAML.
func Parse(filename string, b []byte) (*Config, error) {
	if strings.EqualFold(filepath.Ext(filename), hclExt) {
		return ParseHCL(filename, b)
	}

	return ParseYAML(b)
}

// ParseYAML decodes a YAML config. Unknown fields are rejected.
func ParseYAML(b []byte) (*Config, error) {
	cfg := &Config{}

	if err := yaml.UnmarshalWithOptions(b, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.Join(ErrParseYAML, err)
	}

	return cfg, nil
}

// ParseHCL decodes an HCL config. Expressions are evaluated with an env object
// holding the process environment.
func ParseHCL(filename string, b []byte) (*Config, error) {
	file, diags := hclsyntax.ParseConfig(b, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Join(ErrParseHCL, diags)
	}

	cfg := &Config{}

	if diags := gohcl.DecodeBody(file.Body, evalContext(), cfg); diags.HasErrors() {
		return nil, errors.Join(ErrParseHCL, diags)
	}

	return cfg, nil
}

func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		env[k] = cty.StringVal(v)
	}

	envVal := cty.EmptyObjectVal
	if len(env) > 0 {
		envVal = cty.ObjectVal(env)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envVal,
		},
	}
}

// Merge applies o on top of c.
// A non-empty Mode or Filters in o replaces the value in c, files in o are
// appended after the files in c, and Pty is set if either sets it.
func (c *Config) Merge(o *Config) {
	if o == nil {
		return
	}

	if o.Mode != "" {
		c.Mode = o.Mode
	}

	if len(o.Filters) > 0 {
		c.Filters = slices.Clone(o.Filters)
	}

	c.Stdout = append(c.Stdout, o.Stdout...)
	c.Stderr = append(c.Stderr, o.Stderr...)
	c.Pty = c.Pty || o.Pty
}

// Validate checks the mode, the filter names and the file paths.
// A path may appear only once across stdout and stderr.
// All problems are reported together.
func (c *Config) Validate() error {
	var err error

	if _, modeErr := tee.ParseMode(c.Mode); modeErr != nil {
		err = multierror.Append(err, modeErr)
	}

	if _, filterErr := filter.Build(c.Filters...); filterErr != nil {
		err = multierror.Append(err, filterErr)
	}

	// Each path gets its own descriptor and offset, so a file opened twice
	// would have its writes overwrite each other.
	seen := make(map[string]string)

	check := func(stream string, paths []string) {
		for i, p := range paths {
			if strings.TrimSpace(p) == "" {
				err = multierror.Append(err, fmt.Errorf("%s file %d is empty", stream, i))
				continue
			}

			key := filepath.Clean(p)
			if prev, dup := seen[key]; dup {
				err = multierror.Append(err, fmt.Errorf("%s file %q is already a %s file", stream, p, prev))
				continue
			}

			seen[key] = stream
		}
	}

	check("stdout", c.Stdout)

	// In pty mode the stderr files are never opened.
	if c.Pty {
		seen = make(map[string]string)
	}

	check("stderr", c.Stderr)

	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

// Options returns the tee options for one scope.
// Each call builds new filter instances, so stateful filters are never shared between scopes.
func (c *Config) Options() ([]tee.Option, error) {
	mode, err := tee.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}

	f, flush, err := filter.BuildWithFlush(c.Filters...)
	if err != nil {
		return nil, err
	}

	return []tee.Option{tee.WithMode(mode), tee.WithFilter(f), tee.WithFlush(flush)}, nil
}
