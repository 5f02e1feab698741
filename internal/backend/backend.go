// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/hbsctl/internal/backend/s3"
	"github.com/staranto/hbsctl/internal/backend/sqlite"
	"github.com/staranto/hbsctl/internal/cacheutil"
	"github.com/staranto/hbsctl/internal/manifest"
)

// Store kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindS3     = "s3"
	KindNone   = "none"
)

// Kinds lists every accepted store kind.
var Kinds = []string{KindFile, KindSQLite, KindS3, KindNone}

// Store is a persisted manifest store that holds resources until closed.
type Store interface {
	manifest.Store
	Close() error
}

// Spec selects and locates a store.
type Spec struct {
	// Kind is one of Kinds. Empty means KindFile.
	Kind string
	// Path is the directory of a file store or the database of a sqlite store.
	// Empty means a default beneath the cache directory.
	Path string
	S3   s3.Config
}

// DefaultPath returns where a store of kind lives when Spec.Path is empty.
func DefaultPath(kind string) string {
	switch kind {
	case KindSQLite:
		return cacheutil.Subdir("manifest.db")
	case KindFile, "":
		return cacheutil.Subdir("manifest")
	default:
		return ""
	}
}

// Open returns the store spec selects. KindNone, or caching disabled through
// HBSCTL_CACHE, yields a nil Store and no error: the caller runs without a
// persisted manifest.
func Open(ctx context.Context, spec Spec) (Store, error) {
	kind := strings.ToLower(strings.TrimSpace(spec.Kind))
	if kind == "" {
		kind = KindFile
	}

	if kind == KindNone || !cacheutil.Enabled() {
		log.Debugf("persisted manifest disabled (store=%s)", kind)
		return nil, nil
	}

	path := spec.Path
	if path == "" {
		path = DefaultPath(kind)
	}

	log.Debugf("opening %s store: path=%s", kind, path)

	switch kind {
	case KindFile:
		if path == "" {
			return nil, fmt.Errorf("no directory for file store")
		}
		return cacheutil.NewFileStore(path), nil
	case KindSQLite:
		if path == "" {
			return nil, fmt.Errorf("no path for sqlite store")
		}
		st, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case KindS3:
		st, err := s3.Open(ctx, spec.S3)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store %q, want one of %s", spec.Kind, strings.Join(Kinds, "|"))
	}
}

// AsManifestStore converts a possibly nil Store into the manifest's
// interface, keeping nil as an untyped nil.
func AsManifestStore(s Store) manifest.Store {
	if s == nil {
		return nil
	}
	return s
}
