// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package filters implements the filters subcommand, which lists the filters
// that --filter accepts.
package filters

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/tee/filter"
	"github.com/urfave/cli/v3"
)

const filterArg = "filter"

// NewCommand returns the filters subcommand.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:   "filters",
		Usage:  "List the available filters, or describe one",
		Action: actionFunc,
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: filterArg,
			},
		},
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer

	if name := cmd.StringArg(filterArg); name != "" {
		d, err := filter.Describe(name)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		fmt.Fprintf(w, "%s: %s\n", name, d) //nolint:errcheck

		return nil
	}

	fmt.Fprintf(w, "Available filters:\n\n") //nolint:errcheck

	for _, name := range filter.Names() {
		d, _ := filter.Describe(name)
		fmt.Fprintf(w, "- %s: %s\n", name, d) //nolint:errcheck
	}

	return nil
}
