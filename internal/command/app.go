// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/config"
	"github.com/staranto/hbsctl/internal/meta"
	"github.com/staranto/hbsctl/internal/version"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the hbsctl
	// subcommand and also represents the namespace key to be used when retrieving
	// config values. arg[1] could be -h/--help, so ignore it if it appears to be
	// a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// A missing config file is not an error; flags fall back to their
	// defaults.
	config.Config.Namespace = ns
	loaded, err := config.Load()
	if err != nil {
		log.Debugf("no config loaded: %v", err)
	}
	cfg = loaded

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "hbsctl",
		Usage: "Incremental handlebars compile cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "hbsctl version info (" + version.Version + ")",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		BuildCommandBuilder(meta),
		DiffCommandBuilder(meta),
		FingerprintCommandBuilder(meta),
		FlushCommandBuilder(meta),
		LsCommandBuilder(meta),
		RenderCommandBuilder(meta),
		WatchCommandBuilder(meta),
		WhichCommandBuilder(meta),
		CompletionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
