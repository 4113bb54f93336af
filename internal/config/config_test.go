// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/tee"
	"github.com/matt-FFFFFF/tee/filter"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML(t *testing.T) {
	content := `
mode: append
filters: [strip-cr]
stdout: [out.txt]
stderr: [err1.txt, err2.txt]
`
	cfg, err := ParseYAML([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Mode:    "append",
		Filters: []string{"strip-cr"},
		Stdout:  []string{"out.txt"},
		Stderr:  []string{"err1.txt", "err2.txt"},
	}, cfg)
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown field", content: "stdout: [a]\nunknown: true\n"},
		{name: "wrong type", content: "stdout: 42\n"},
		{name: "malformed", content: "stdout: [a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.content))
			require.ErrorIs(t, err, ErrParseYAML)
		})
	}
}

func TestParseHCL(t *testing.T) {
	t.Setenv("TEE_TEST_DIR", "/var/log/tee")

	content := `
mode    = "append"
filters = ["strip-ansi", "collapse"]
stdout  = ["${env.TEE_TEST_DIR}/out.log"]
stderr  = ["${env.TEE_TEST_DIR}/err.log"]
pty     = true
`
	cfg, err := ParseHCL("tee.hcl", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Mode:    "append",
		Filters: []string{"strip-ansi", "collapse"},
		Stdout:  []string{"/var/log/tee/out.log"},
		Stderr:  []string{"/var/log/tee/err.log"},
		Pty:     true,
	}, cfg)
}

func TestParseHCL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown attribute", content: `colour = true`},
		{name: "syntax error", content: `stdout = [`},
		{name: "missing env var", content: `stdout = [env.TEE_DOES_NOT_EXIST_123]`},
		{name: "wrong type", content: `pty = "maybe"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHCL("bad.hcl", []byte(tt.content))
			require.ErrorIs(t, err, ErrParseHCL)
		})
	}
}

func TestParse_DispatchesOnExtension(t *testing.T) {
	cfg, err := Parse("session.HCL", []byte(`mode = "append"`))
	require.NoError(t, err)
	assert.Equal(t, "append", cfg.Mode)

	cfg, err = Parse("session.yml", []byte("mode: append\n"))
	require.NoError(t, err)
	assert.Equal(t, "append", cfg.Mode)

	_, err = Parse("session.yaml", []byte(`mode = "append"`))
	require.ErrorIs(t, err, ErrParseYAML)
}

func TestMerge(t *testing.T) {
	base := &Config{
		Mode:    "append",
		Filters: []string{"strip-cr"},
		Stdout:  []string{"a.log"},
		Stderr:  []string{"e.log"},
	}

	base.Merge(&Config{
		Filters: []string{"collapse"},
		Stdout:  []string{"b.log"},
		Pty:     true,
	})

	assert.Equal(t, &Config{
		Mode:    "append",
		Filters: []string{"collapse"},
		Stdout:  []string{"a.log", "b.log"},
		Stderr:  []string{"e.log"},
		Pty:     true,
	}, base)

	base.Merge(&Config{Mode: "write"})
	assert.Equal(t, "write", base.Mode)

	base.Merge(nil)
	assert.Equal(t, "write", base.Mode)
}

func TestValidate(t *testing.T) {
	require.NoError(t, (&Config{}).Validate())
	require.NoError(t, (&Config{Mode: "a", Filters: filter.Names(), Stdout: []string{"x"}}).Validate())

	err := (&Config{
		Mode:    "sideways",
		Filters: []string{"nope"},
		Stdout:  []string{""},
		Stderr:  []string{"ok", " "},
	}).Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorIs(t, err, tee.ErrInvalidMode)
	require.ErrorIs(t, err, filter.ErrUnknownFilter)
	assert.Contains(t, err.Error(), "stdout file 0 is empty")
	assert.Contains(t, err.Error(), "stderr file 1 is empty")
}

func TestValidate_DuplicatePaths(t *testing.T) {
	err := (&Config{Stdout: []string{"out.log", "./out.log"}}).Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), `stdout file "./out.log" is already a stdout file`)

	err = (&Config{Stdout: []string{"all.log"}, Stderr: []string{"err.log", "all.log"}}).Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), `stderr file "all.log" is already a stdout file`)

	// Stderr files are not opened under a pty.
	require.NoError(t, (&Config{Stdout: []string{"all.log"}, Stderr: []string{"all.log"}, Pty: true}).Validate())

	err = (&Config{Stderr: []string{"e.log", "e.log"}, Pty: true}).Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestOptions(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out.log", []byte("old\n"), 0o644))

	cfg := &Config{Mode: "append", Filters: []string{"strip-cr"}}

	opts, err := cfg.Options()
	require.NoError(t, err)

	primary := &bytes.Buffer{}
	err = tee.Do(primary, []string{"/out.log"}, func(w io.Writer) error {
		_, err := io.WriteString(w, "a\rb\n")
		return err
	}, append(opts, tee.WithFs(fs))...)
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, "/out.log")
	require.NoError(t, err)
	assert.Equal(t, "old\nab\n", string(content))
	assert.Equal(t, "a\rb\n", primary.String())
}

func TestOptions_CollapseFlushedOnClose(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := &Config{Filters: []string{"collapse"}}

	opts, err := cfg.Options()
	require.NoError(t, err)

	err = tee.Do(&bytes.Buffer{}, []string{"/out.log"}, func(w io.Writer) error {
		_, err := io.WriteString(w, "line\n[10%]\r[90%]")
		return err
	}, append(opts, tee.WithFs(fs))...)
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, "/out.log")
	require.NoError(t, err)
	assert.Equal(t, "line\n[90%]", string(content))
}

func TestOptions_Invalid(t *testing.T) {
	_, err := (&Config{Mode: "x"}).Options()
	require.ErrorIs(t, err, tee.ErrInvalidMode)

	_, err = (&Config{Filters: []string{"x"}}).Options()
	require.ErrorIs(t, err, filter.ErrUnknownFilter)
}

func TestLoad_LocalFiles(t *testing.T) {
	t.Setenv("TEE_TEST_DIR", "/tmp/tee")

	cfg, err := Load(context.Background(), "./testdata/tee.yaml")
	require.NoError(t, err)
	assert.Equal(t, "append", cfg.Mode)
	assert.Equal(t, []string{"strip-ansi", "collapse"}, cfg.Filters)
	assert.Equal(t, []string{"build.log"}, cfg.Stdout)
	assert.Equal(t, []string{"build.err", "all.log"}, cfg.Stderr)

	cfg, err = Load(context.Background(), "./testdata/tee.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/tee/out.log"}, cfg.Stdout)
	assert.True(t, cfg.Pty)
}

func TestFetch_Errors(t *testing.T) {
	_, _, err := Fetch(context.Background(), "")
	require.ErrorIs(t, err, ErrFetch)

	_, _, err = Fetch(context.Background(), "./testdata/does-not-exist.yaml")
	require.ErrorIs(t, err, ErrFetch)
}

func TestFetch_LocalFileReadThroughFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/tee.yaml", []byte("stdout: [mem.log]\n"), 0o644))

	stubs := gostub.Stub(&FS, fs)
	defer stubs.Reset()

	b, name, err := Fetch(context.Background(), "/cfg/tee.yaml")
	require.NoError(t, err)
	assert.Equal(t, "tee.yaml", name)
	assert.Equal(t, "stdout: [mem.log]\n", string(b))
}

func TestFetch_GetterSingleFile(t *testing.T) {
	abs, err := filepath.Abs("./testdata/tee.yaml")
	require.NoError(t, err)

	want, err := os.ReadFile(abs)
	require.NoError(t, err)

	b, name, err := Fetch(context.Background(), "file::"+abs)
	require.NoError(t, err)
	assert.Equal(t, "tee.yaml", name)
	assert.Equal(t, want, b)
}

func TestFileNameFromGetterURL(t *testing.T) {
	tests := map[string]string{
		"https://example.com/cfg/tee.yaml?archive=false": "tee.yaml",
		"file::/abs/tee.hcl":                              "tee.hcl",
		"s3::https://bucket.s3.amazonaws.com/tee.yaml":    "tee.yaml",
		"":                                                "",
		"/":                                               "",
	}

	for url, want := range tests {
		t.Run(url, func(t *testing.T) {
			assert.Equal(t, want, fileNameFromGetterURL(url))
		})
	}
}

func TestSplitFileNameFromGetterURL(t *testing.T) {
	tests := []struct {
		url      string
		wantURL  string
		wantFile string
	}{
		{
			url:      "git::https://github.com/org/repo.git//configs/tee.yaml?ref=v1",
			wantURL:  "git::https://github.com/org/repo.git//configs?ref=v1",
			wantFile: "tee.yaml",
		},
		{
			url:      "git::https://github.com/org/repo.git//tee.hcl",
			wantURL:  "git::https://github.com/org/repo.git",
			wantFile: "tee.hcl",
		},
		{
			url: "./tee.yaml",
		},
		{
			url: "git::https://github.com/org/repo.git//",
		},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			gotURL, gotFile := splitFileNameFromGetterURL(tt.url)
			assert.Equal(t, tt.wantURL, gotURL)
			assert.Equal(t, tt.wantFile, gotFile)
		})
	}
}
