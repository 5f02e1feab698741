// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/backend"
	"github.com/staranto/hbsctl/internal/manifest"
	"github.com/staranto/hbsctl/internal/meta"
)

// LsCommandAction lists the manifest as the next registration pass would
// load it. Nothing is compiled, touched or persisted.
func LsCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &RowsRunner[FileRow]{
		CommandName:  "ls",
		DefaultAttrs: []string{"name", "kind", "stale", "modified::h", "source", "target"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]FileRow, error) {
			store, closer, err := OpenStore(ctx, cmd)
			if err != nil {
				return nil, err
			}
			defer closer()

			opts, err := ManifestOptions(cmd)
			if err != nil {
				return nil, err
			}
			// Debug would flush.
			opts.Debug = false
			m := manifest.New(ctx, opts, backend.AsManifestStore(store), nil)
			return FileRows(m.Load(ctx)), nil
		},
	}
	return runner.Run(ctx, cmd)
}

// LsCommandBuilder constructs the cli.Command definition for "ls".
func LsCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "ls",
		Usage:     "list templates and partials with their staleness",
		UsageText: `hbsctl ls [options]`,
		Listing:   true,
		Action:    LsCommandAction,
		Meta:      meta,
	}).Build()
}
