// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apex/log"
)

// FlushResult describes a best-effort flush. Failures are informational only.
type FlushResult struct {
	Removed  int
	Failures []error
}

// OK reports whether every step of the flush succeeded.
func (r FlushResult) OK() bool {
	return len(r.Failures) == 0
}

func (r FlushResult) String() string {
	if r.OK() {
		return fmt.Sprintf("flushed, %d files removed", r.Removed)
	}
	return fmt.Sprintf("partially flushed, %d files removed, %d failures", r.Removed, len(r.Failures))
}

// Flush clears the persisted manifest and removes every file directly inside
// the compiled-output cache root. It never fails; problems are logged and
// reported in the result.
func (m *Manifest) Flush(ctx context.Context) FlushResult {
	var res FlushResult

	if m.store != nil {
		if err := m.store.Flush(ctx); err != nil {
			res.Failures = append(res.Failures, fmt.Errorf("flush manifest store: %w", err))
		}
	}

	if m.opts.CacheRoot != "" {
		entries, err := os.ReadDir(m.opts.CacheRoot)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			res.Failures = append(res.Failures, fmt.Errorf("read cache root: %w", err))
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if err := os.Remove(filepath.Join(m.opts.CacheRoot, e.Name())); err != nil {
				res.Failures = append(res.Failures, err)
				continue
			}
			res.Removed++
		}
	}

	if res.OK() {
		log.Debugf("cache %s", res)
	} else {
		log.WithError(errors.Join(res.Failures...)).Warnf("cache %s", res)
	}

	return res
}
