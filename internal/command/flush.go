// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/backend"
	"github.com/staranto/hbsctl/internal/cacheutil"
	"github.com/staranto/hbsctl/internal/manifest"
	"github.com/staranto/hbsctl/internal/meta"
)

// FlushCommandAction clears the manifest store and the compiled templates.
// With --older-than only compiled templates older than the given age are
// removed and the store is left alone. Failures are reported but never fail
// the command.
func FlushCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := writer(cmd)
	opts, err := ManifestOptions(cmd)
	if err != nil {
		return err
	}
	opts.Debug = false

	if age := cmd.Duration("older-than"); age > 0 {
		n, err := cacheutil.Purge(opts.CacheRoot, age)
		if err != nil {
			log.WithError(err).Warn("purge incomplete")
		}
		_, err = fmt.Fprintf(w, "purged %d files older than %s\n", n, age)
		return err
	}

	store, closer, err := OpenStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	res := manifest.New(ctx, opts, backend.AsManifestStore(store), nil).Flush(ctx)
	for _, f := range res.Failures {
		fmt.Fprintf(w, "warning: %v\n", f)
	}
	_, err = fmt.Fprintln(w, res.String())
	return err
}

// FlushCommandBuilder constructs the cli.Command definition for "flush".
func FlushCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "flush",
		Usage:     "clear the manifest store and compiled templates",
		UsageText: `hbsctl flush [--older-than 24h]`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "only remove compiled templates older than this",
			},
		},
		Action: FlushCommandAction,
		Meta:   meta,
	}).Build()
}
