// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/attrs"
	"github.com/staranto/hbsctl/internal/backend"
	"github.com/staranto/hbsctl/internal/backend/s3"
	"github.com/staranto/hbsctl/internal/cacheutil"
	"github.com/staranto/hbsctl/internal/manifest"
	"github.com/staranto/hbsctl/internal/meta"
	"github.com/staranto/hbsctl/internal/output"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr hbsctl <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "hbsctl", subcmd)
			c.Stdout = writer(cmd)
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// EmitRows marshals rows as a JSON array and passes it to the common output
// routine.
func EmitRows(rows any, al attrs.AttrList, cmd *cli.Command) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	return output.SliceDiceSpit(raw, al, cmd, writer(cmd))
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// writer is where a command prints its results.
func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// resolveDir makes a relative dir absolute against the starting directory.
func resolveDir(start string, dir string) string {
	if dir == "" || filepath.IsAbs(dir) || start == "" {
		return dir
	}
	return filepath.Join(start, dir)
}

// ErrNoCacheRoot is returned when --cache-root is unset and no cache
// directory can be resolved.
var ErrNoCacheRoot = errors.New("no cache directory: set --cache-root or HBSCTL_CACHE_DIR")

// ManifestOptions maps the manifest flags onto manifest.Options.
func ManifestOptions(cmd *cli.Command) (manifest.Options, error) {
	m := GetMeta(cmd)

	cacheRoot := cmd.String("cache-root")
	if cacheRoot == "" {
		cacheRoot = cacheutil.Subdir("compiled")
	}
	// An empty root would put compiled templates in the working directory.
	if cacheRoot == "" {
		return manifest.Options{}, ErrNoCacheRoot
	}

	return manifest.Options{
		Debug:        cmd.Bool("debug"),
		UseManifest:  cmd.Bool("manifest"),
		Incremental:  cmd.Bool("incremental"),
		TemplatesDir: resolveDir(m.StartingDir, cmd.String("templates")),
		PartialsDir:  resolveDir(m.StartingDir, cmd.String("partials")),
		InputExt:     cmd.String("ext-in"),
		OutputExt:    cmd.String("ext-out"),
		CacheRoot:    resolveDir(m.StartingDir, cacheRoot),
	}, nil
}

// StoreSpec maps the store flags onto backend.Spec.
func StoreSpec(cmd *cli.Command) backend.Spec {
	return backend.Spec{
		Kind: cmd.String("store"),
		Path: resolveDir(GetMeta(cmd).StartingDir, cmd.String("store-path")),
		S3: s3.Config{
			Bucket:   cmd.String("s3-bucket"),
			Prefix:   cmd.String("s3-prefix"),
			Region:   cmd.String("s3-region"),
			Profile:  cmd.String("s3-profile"),
			Endpoint: cmd.String("s3-endpoint"),
		},
	}
}

// OpenStore opens the manifest store selected by the flags. The returned
// close func is always safe to call.
func OpenStore(ctx context.Context, cmd *cli.Command) (backend.Store, func(), error) {
	store, err := backend.Open(ctx, StoreSpec(cmd))
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open %s store: %w", cmd.String("store"), err)
	}
	if store == nil {
		return nil, func() {}, nil
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close store")
		}
	}, nil
}

// NewHandle opens the store and returns a Handle scoped to this invocation.
func NewHandle(ctx context.Context, cmd *cli.Command) (*manifest.Handle, func(), error) {
	opts, err := ManifestOptions(cmd)
	if err != nil {
		return nil, func() {}, err
	}
	store, closer, err := OpenStore(ctx, cmd)
	if err != nil {
		return nil, closer, err
	}
	return manifest.NewHandle(opts, backend.AsManifestStore(store), nil), closer, nil
}

// CommandBuilder assembles a subcommand with the shared metadata, validator
// and flags.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	// Listing adds the output flags.
	Listing bool
	// NoStore omits the store flags for commands that never persist.
	NoStore bool
	Action  func(context.Context, *cli.Command) error
	Meta    meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{tldrFlag}, cb.Flags...)
	flags = append(flags, NewManifestFlags(cb.Name)...)
	if !cb.NoStore {
		flags = append(flags, NewStoreFlags(cb.Name)...)
	}
	if cb.Listing {
		flags = append(flags, NewGlobalFlags(cb.Name)...)
	}

	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: cb.Action,
	}
}

// RowsRunner encapsulates the common listing action: short-circuit checks,
// BuildAttrs, fetching rows and emitting them.
type RowsRunner[T any] struct {
	CommandName  string
	DefaultAttrs []string
	FetchFn      func(context.Context, *cli.Command) ([]T, error)
}

// Run executes the listing action with the provided context and command.
func (rr *RowsRunner[T]) Run(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, rr.CommandName) {
		return nil
	}

	al := BuildAttrs(cmd, rr.DefaultAttrs...)
	log.Debugf("attrs: %v", al.String())

	rows, err := rr.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []T{}
	}

	return EmitRows(rows, al, cmd)
}

// FileRow is the listing form of a manifest file.
type FileRow struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Stale    bool   `json:"stale"`
	Reason   string `json:"reason"`
	State    string `json:"state"`
	Modified string `json:"modified"`
	Size     int64  `json:"size"`
	Source   string `json:"source"`
	Target   string `json:"target"`
}

// NewFileRow describes f. Modified is RFC3339 so the h and t transforms apply.
func NewFileRow(f *manifest.File) FileRow {
	row := FileRow{
		Name:     f.Name(),
		Kind:     "template",
		Stale:    f.NeedsUpdate(),
		Reason:   f.Reason().String(),
		State:    f.State().String(),
		Modified: time.Unix(0, f.Modified()).UTC().Format(time.RFC3339Nano),
		Source:   f.SourcePath(),
		Target:   f.TargetPath(),
	}
	if f.IsPartial() {
		row.Kind = "partial"
	}
	if info, err := os.Stat(f.SourcePath()); err == nil {
		row.Size = info.Size()
	}
	return row
}

// FileRows describes every file.
func FileRows(files []*manifest.File) []FileRow {
	rows := make([]FileRow, 0, len(files))
	for _, f := range files {
		rows = append(rows, NewFileRow(f))
	}
	return rows
}
