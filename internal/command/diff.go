// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/hbsctl/internal/backend"
	"github.com/staranto/hbsctl/internal/manifest"
	"github.com/staranto/hbsctl/internal/meta"
)

// entriesByName keys entries by name, partials with the partial prefix so a
// template and a partial of the same name stay apart.
func entriesByName(entries []manifest.Entry) (map[string]interface{}, error) {
	keyed := make(map[string]manifest.Entry, len(entries))
	for _, e := range entries {
		k := e.Name
		if e.Partial {
			k = manifest.PartialPrefix + k
		}
		keyed[k] = e
	}

	// Round trip so the differ sees plain JSON values.
	raw, err := json.Marshal(keyed)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// persistedEntries returns the entries stored under key, or none.
func persistedEntries(ctx context.Context, store manifest.Store, key string) []manifest.Entry {
	if store == nil {
		return nil
	}
	raw, ok := store.Get(ctx, key)
	if !ok {
		return nil
	}
	var entries []manifest.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.WithError(err).Warnf("unreadable manifest %s", key)
		return nil
	}
	return entries
}

// DiffManifest compares the manifest persisted for the current fingerprint
// with a fresh scan and returns the formatted difference, or "" when there
// is none.
func DiffManifest(ctx context.Context, m *manifest.Manifest, store manifest.Store, color bool) (string, error) {
	key := m.Fingerprint()

	left, err := entriesByName(persistedEntries(ctx, store, key))
	if err != nil {
		return "", err
	}

	scanned := m.Scan()
	fresh := make([]manifest.Entry, 0, len(scanned))
	for _, f := range scanned {
		fresh = append(fresh, f.AsPersistable())
	}
	right, err := entriesByName(fresh)
	if err != nil {
		return "", err
	}

	d := gojsondiff.New().CompareObjects(left, right)
	if !d.Modified() {
		return "", nil
	}

	f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	return f.Format(d)
}

// DiffCommandAction prints how a fresh scan differs from the persisted
// manifest of the current fingerprint.
func DiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	store, closer, err := OpenStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	opts, err := ManifestOptions(cmd)
	if err != nil {
		return err
	}
	opts.Debug = false
	ms := backend.AsManifestStore(store)
	m := manifest.New(ctx, opts, ms, nil)

	out, err := DiffManifest(ctx, m, ms, cmd.Bool("color"))
	if err != nil {
		return fmt.Errorf("failed to diff manifest: %w", err)
	}

	w := writer(cmd)
	if out == "" {
		_, err = fmt.Fprintln(w, "no differences")
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

// DiffCommandBuilder constructs the cli.Command definition for "diff".
func DiffCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "diff",
		Usage:     "compare the persisted manifest with a fresh scan",
		UsageText: `hbsctl diff [options]`,
		Flags: []cli.Flag{
			&cli.BoolWithInverseFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "enable colored diff output",
				Sources: configSources("diff", "color"),
			},
		},
		Action: DiffCommandAction,
		Meta:   meta,
	}).Build()
}
