// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// Dir resolves the base cache directory.
// Precedence:
//  1. HBSCTL_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/hbsctl
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("HBSCTL_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "hbsctl"), true
	}
	return "", false
}

// Enabled returns true unless HBSCTL_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("HBSCTL_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// Subdir joins the base cache directory with name. It returns "" when no base
// can be resolved.
func Subdir(name string) string {
	base, ok := Dir()
	if !ok {
		return ""
	}
	return filepath.Join(base, name)
}

// Purge removes files beneath dir older than maxAge and returns how many were
// removed. If maxAge <= 0 or dir is empty, it is a no-op.
func Purge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 || dir == "" {
		log.Debug("cache cleaning disabled")
		return 0, nil
	}

	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				removed++
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to purge cache: %w", err)
	}
	return removed, nil
}

// FileStore keeps one file per key beneath a directory. File names are the
// MD5 of the clear-text key.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir. The directory is created on
// the first Set.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the entries.
func (s *FileStore) Dir() string {
	return s.dir
}

// EntryPath returns the path where the entry for key would live and whether
// a file currently exists there.
func (s *FileStore) EntryPath(key string) (string, bool) {
	p := filepath.Join(s.dir, encodeKey(key))
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Get reads the entry for key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool) {
	p, ok := s.EntryPath(key)
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		log.WithError(err).Debugf("failed to read cache entry %s", p)
		return nil, false
	}
	return bytes.TrimSpace(b), true
}

// Set stores value for key. Creates directories as needed.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	p := filepath.Join(s.dir, encodeKey(key))
	if err := os.WriteFile(p, value, os.FileMode(0o600)); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Flush removes every entry. A missing directory is already flushed.
func (s *FileStore) Flush(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close is a no-op; it lets FileStore stand in for the closable backends.
func (s *FileStore) Close() error {
	return nil
}

// encodeKey hashes k with MD5 and returns the hex string.
func encodeKey(k string) string {
	h := md5.New()
	_, _ = h.Write([]byte(k))
	return hex.EncodeToString(h.Sum(nil))
}
