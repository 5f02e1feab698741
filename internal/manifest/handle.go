// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"sync"
)

// Handle owns one Manifest for the lifetime of a scope such as a request, a
// CLI invocation or one rebuild of the watch loop. The first call to Manifest
// creates it and runs RegisterAll; every later call returns the same instance
// without looking at the filesystem again. Discard the Handle with its scope.
type Handle struct {
	opts     Options
	store    Store
	compiler Compiler

	once sync.Once
	m    *Manifest
}

// NewHandle prepares a Handle. Nothing is scanned until Manifest is called.
func NewHandle(opts Options, store Store, compiler Compiler) *Handle {
	return &Handle{opts: opts, store: store, compiler: compiler}
}

// Manifest returns the registered Manifest, creating it on first use.
func (h *Handle) Manifest(ctx context.Context) *Manifest {
	h.once.Do(func() {
		h.m = New(ctx, h.opts, h.store, h.compiler)
		h.m.RegisterAll(ctx)
	})
	return h.m
}
