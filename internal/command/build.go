// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/manifest"
	"github.com/staranto/hbsctl/internal/meta"
)

// BuildCommandAction runs one registration pass and lists what it did to
// every file. Templates that failed to compile make the command fail after
// the listing is printed.
func BuildCommandAction(ctx context.Context, cmd *cli.Command) error {
	var failed int

	runner := &RowsRunner[FileRow]{
		CommandName:  "build",
		DefaultAttrs: []string{"name", "kind", "state", "reason"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]FileRow, error) {
			h, closer, err := NewHandle(ctx, cmd)
			if err != nil {
				return nil, err
			}
			defer closer()

			files := h.Manifest(ctx).Files()
			for _, f := range files {
				if f.State() == manifest.Failed {
					failed++
				}
			}
			log.Debugf("build: %d files, %d failed", len(files), failed)
			return FileRows(files), nil
		},
	}

	if err := runner.Run(ctx, cmd); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d templates failed to compile", failed)
	}
	return nil
}

// BuildCommandBuilder constructs the cli.Command definition for "build".
func BuildCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "build",
		Usage:     "compile stale templates and persist the manifest",
		UsageText: `hbsctl build [options]`,
		Listing:   true,
		Action:    BuildCommandAction,
		Meta:      meta,
	}).Build()
}
