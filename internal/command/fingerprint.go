// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/manifest"
	"github.com/staranto/hbsctl/internal/meta"
)

// FingerprintCommandAction prints the key the manifest of the current source
// set is persisted under.
func FingerprintCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := ManifestOptions(cmd)
	if err != nil {
		return err
	}
	opts.Debug = false

	m := manifest.New(ctx, opts, nil, nil)
	_, err = fmt.Fprintln(writer(cmd), m.Fingerprint())
	return err
}

// FingerprintCommandBuilder constructs the cli.Command definition for
// "fingerprint".
func FingerprintCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "fingerprint",
		Usage:     "print the fingerprint of the current sources",
		UsageText: `hbsctl fingerprint [options]`,
		NoStore:   true,
		Action:    FingerprintCommandAction,
		Meta:      meta,
	}).Build()
}
