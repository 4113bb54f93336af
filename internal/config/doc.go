// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config describes a tee session declaratively: which files receive a
// copy of standard output and standard error, the open mode, and the filters.
//
// A config file is YAML, or HCL when its name ends in ".hcl". HCL files may
// reference environment variables through the env object:
//
//	mode    = "append"
//	filters = ["strip-ansi"]
//	stdout  = ["${env.HOME}/logs/build.log"]
//
// Files are retrieved with Hashicorp's go-getter, so any source it supports may be used.
package config
