// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/meta"
	"github.com/staranto/hbsctl/internal/render"
)

// WhichCommandAction prints the source path, or with --compiled the compiled
// path, that a name resolves to. Unknown names fall back to the default
// template.
func WhichCommandAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("which requires exactly one name")
	}

	h, closer, err := NewHandle(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	m := h.Manifest(ctx)
	name := render.Name(cmd.Args().First(), m.Options().InputExt)

	resolve := m.SourcePath
	if cmd.Bool("compiled") {
		resolve = m.CompiledPath
	}

	path, err := resolve(name)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(writer(cmd), path)
	return err
}

// WhichCommandBuilder constructs the cli.Command definition for "which".
func WhichCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "which",
		Usage:     "show the file a template name resolves to",
		UsageText: `hbsctl which <name> [--compiled]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "compiled",
				Usage:       "show the compiled path instead of the source",
				HideDefault: true,
			},
		},
		Action: WhichCommandAction,
		Meta:   meta,
	}).Build()
}
