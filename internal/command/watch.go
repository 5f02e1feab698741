// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/hbsctl/internal/backend"
	"github.com/staranto/hbsctl/internal/manifest"
	"github.com/staranto/hbsctl/internal/meta"
	"github.com/staranto/hbsctl/internal/watch"
)

// summarize prints one line per file the pass changed.
func summarize(w io.Writer, files []*manifest.File) (changed int) {
	for _, f := range files {
		switch f.State() {
		case manifest.Compiled, manifest.Touched, manifest.Failed:
			changed++
			fmt.Fprintf(w, "%-8s %s\n", f.State(), f.SourcePath())
		}
	}
	return changed
}

// WatchLoop runs a registration pass now and again after every signal on
// events until ctx is done or events is closed. Each pass gets a fresh
// Handle so the sources are scanned again.
func WatchLoop(ctx context.Context, opts manifest.Options, store manifest.Store, events <-chan struct{}, w io.Writer) {
	pass := func() {
		h := manifest.NewHandle(opts, store, nil)
		files := h.Manifest(ctx).Files()
		if n := summarize(w, files); n == 0 {
			log.Debugf("watch: %d files, nothing to do", len(files))
		}
	}

	pass()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			pass()
		}
	}
}

// WatchCommandAction rebuilds whenever the template or partial directories
// change, until interrupted.
func WatchCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "watch") {
		return nil
	}

	store, closer, err := OpenStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	opts, err := ManifestOptions(cmd)
	if err != nil {
		return err
	}
	// Flushing on every pass would defeat the cache.
	if opts.Debug {
		manifest.New(ctx, opts, backend.AsManifestStore(store), nil)
		opts.Debug = false
	}

	watcher, err := watch.New([]string{opts.TemplatesDir, opts.PartialsDir},
		watch.WithDebounce(cmd.Duration("debounce")))
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := writer(cmd)
	fmt.Fprintf(w, "watching %s and %s\n", opts.TemplatesDir, opts.PartialsDir)
	WatchLoop(ctx, opts, backend.AsManifestStore(store), watcher.Events(), w)
	return nil
}

// WatchCommandBuilder constructs the cli.Command definition for "watch".
func WatchCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "watch",
		Usage:     "rebuild whenever templates or partials change",
		UsageText: `hbsctl watch [--debounce 100ms]`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "debounce",
				Usage:   "wait this long for more changes before rebuilding",
				Sources: configSources("watch", "debounce", "HBSCTL_DEBOUNCE"),
				Value:   watch.DefaultDebounce,
			},
		},
		Action: WatchCommandAction,
		Meta:   meta,
	}).Build()
}
