// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/meta"
	"github.com/staranto/hbsctl/internal/render"
)

// readData loads the JSON object in path, or stdin for "-". An empty path
// yields empty data.
func readData(cmd *cli.Command, path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	var raw []byte
	var err error
	if path == "-" {
		r := cmd.Root().Reader
		if r == nil {
			r = os.Stdin
		}
		raw, err = io.ReadAll(r)
	} else {
		raw, err = os.ReadFile(resolveDir(GetMeta(cmd).StartingDir, path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("data in %s is not valid JSON", path)
	}
	data, ok := gjson.ParseBytes(raw).Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("data in %s is not a JSON object", path)
	}
	return data, nil
}

// parseSets turns key=value pairs into fields, in order.
func parseSets(sets []string) (render.Fields, error) {
	fields := make(render.Fields, 0, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", s)
		}
		fields = append(fields, render.Field{Name: k, Value: v})
	}
	return fields, nil
}

// RenderCommandAction renders one template, or the default template, with
// the data of --data, the fields of --set and the queries of --query.
func RenderCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "render") {
		return nil
	}

	if cmd.Args().Len() != 1 {
		return errors.New("render requires exactly one template name")
	}
	name := cmd.Args().First()

	data, err := readData(cmd, cmd.String("data"))
	if err != nil {
		return err
	}
	fields, err := parseSets(cmd.StringSlice("set"))
	if err != nil {
		return err
	}

	h, closer, err := NewHandle(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	queries := cmd.StringSlice("query")
	log.Debugf("render %s: %d fields, queries=%v", name, len(fields), queries)

	out, err := render.Render(ctx, h, name, data, fields, queries)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(writer(cmd), out)
	return err
}

// RenderCommandBuilder constructs the cli.Command definition for "render".
func RenderCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "render",
		Usage:     "render a template",
		UsageText: `hbsctl render <name> [--data file.json] [--set key=value]... [--query a.b]...`,
		Flags: []cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("render", cfg.Source, &cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON file holding the template data, - for stdin",
				Sources: cli.NewValueSourceChain(cli.EnvVar("HBSCTL_DATA")),
			}),
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "model field as key=value, later wins",
			},
			&cli.StringSliceFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "dotted query resolved against the site, page and kirby data",
				Sources: configSources("render", "queries", "HBSCTL_QUERIES"),
			},
		},
		Action: RenderCommandAction,
		Meta:   meta,
	}).Build()
}
