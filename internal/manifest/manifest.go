// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/apex/log"

	"github.com/staranto/hbsctl/internal/engine"
)

const (
	// DefaultName is the template used when a requested name is unknown.
	DefaultName = "default"

	// PartialPrefix keeps partial targets apart from template targets in the
	// flat compiled-output directory.
	PartialPrefix = "@"

	// IgnorePrefix marks source files that are never scanned, such as
	// fractal.build _preview.hbs files.
	IgnorePrefix = "_"

	DefaultInputExt  = "hbs"
	DefaultOutputExt = "hbsc"
)

// Options configures a Manifest.
type Options struct {
	// Debug bypasses the persisted manifest and flushes every cache when the
	// Manifest is created.
	Debug bool
	// UseManifest persists the manifest across processes.
	UseManifest bool
	// Incremental reuses compiled output from disk instead of compiling in
	// process.
	Incremental bool

	TemplatesDir string
	PartialsDir  string
	InputExt     string
	OutputExt    string
	CacheRoot    string
}

func (o Options) withDefaults() Options {
	if o.InputExt == "" {
		o.InputExt = DefaultInputExt
	}
	if o.OutputExt == "" {
		o.OutputExt = DefaultOutputExt
	}
	return o
}

// Store persists manifest entries keyed by fingerprint. Implementations are
// treated as eventually consistent and may be written concurrently by other
// processes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Flush(ctx context.Context) error
}

// Compiler turns template sources into compiled text and compiled text into
// artifacts.
type Compiler interface {
	Compile(source string, resolvePartial func(name string) string) (string, error)
	Load(compiled string) (engine.Artifact, error)
}

// Manifest owns the current set of template and partial files.
type Manifest struct {
	opts     Options
	store    Store
	compiler Compiler
	files    []*File
}

// New creates a Manifest. A nil store disables the persisted manifest and a
// nil compiler selects engine.Engine. In debug mode every cache is flushed
// before New returns.
func New(ctx context.Context, opts Options, store Store, compiler Compiler) *Manifest {
	if compiler == nil {
		compiler = engine.Engine{}
	}

	m := &Manifest{
		opts:     opts.withDefaults(),
		store:    store,
		compiler: compiler,
	}

	if m.opts.Debug {
		m.Flush(ctx)
	}

	return m
}

// Options returns the effective options.
func (m *Manifest) Options() Options {
	return m.opts
}

// Files returns the working set stored by the last RegisterAll.
func (m *Manifest) Files() []*File {
	return m.files
}

func (m *Manifest) useManifest() bool {
	return m.opts.UseManifest && !m.opts.Debug && m.store != nil
}

func (m *Manifest) newFile(e Entry) *File {
	return NewFile(e,
		WithIncremental(m.opts.Incremental),
		WithLoader(m.compiler.Load),
	)
}

// Load returns the persisted entries for the current fingerprint when the
// persisted manifest is enabled and holds them, and a fresh Scan otherwise.
func (m *Manifest) Load(ctx context.Context) []*File {
	if m.useManifest() {
		key := m.Fingerprint()
		if raw, ok := m.store.Get(ctx, key); ok {
			var entries []Entry
			if err := json.Unmarshal(raw, &entries); err != nil {
				log.WithError(err).Warnf("discarding unreadable manifest %s", key)
			} else if !m.matches(entries) {
				log.Debugf("discarding manifest %s written with other paths", key)
			} else if len(entries) > 0 {
				files := make([]*File, 0, len(entries))
				for _, e := range entries {
					files = append(files, m.newFile(e))
				}
				log.Debugf("manifest hit %s: %d entries", key, len(files))
				return files
			}
		}
		log.Debugf("manifest miss %s", key)
	}

	return m.Scan()
}

// matches reports whether every entry has the source and target paths the
// current options give its name. The fingerprint only covers base names and
// times, so a hit may come from a run with other directories or extensions.
func (m *Manifest) matches(entries []Entry) bool {
	for _, e := range entries {
		dir := m.opts.TemplatesDir
		if e.Partial {
			dir = m.opts.PartialsDir
		}
		if e.Source != filepath.Join(dir, e.Name+"."+m.opts.InputExt) {
			return false
		}
		if e.Target != m.TargetPath(e.Name, e.Partial) {
			return false
		}
	}
	return true
}

// Persist writes the metadata of files under the current fingerprint. It
// returns false when the persisted manifest is disabled or the write fails.
func (m *Manifest) Persist(ctx context.Context, files []*File) bool {
	if !m.useManifest() {
		return false
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		entries = append(entries, f.AsPersistable())
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		log.WithError(err).Warn("failed to encode manifest")
		return false
	}

	key := m.Fingerprint()
	if err := m.store.Set(ctx, key, raw); err != nil {
		log.WithError(err).Warnf("failed to persist manifest %s", key)
		return false
	}

	log.Debugf("persisted manifest %s: %d entries", key, len(entries))
	return true
}

// RegisterAll is the registration pass. Stale partials are touched; then every
// template is recompiled when any partial was stale, and otherwise only the
// stale templates are. The manifest is persisted and the resulting files
// become the working set.
func (m *Manifest) RegisterAll(ctx context.Context) []*File {
	files := m.Load(ctx)
	// Set before compiling so the partial resolver can see the partials.
	m.files = files

	anyPartialStale := false
	for _, f := range files {
		if f.IsPartial() && f.NeedsUpdate() {
			anyPartialStale = true
			f.MarkFreshAsTouched()
			log.Debugf("touched partial %s", f.Name())
		}
	}

	for _, f := range files {
		if f.IsPartial() || !(anyPartialStale || f.NeedsUpdate()) {
			continue
		}
		_ = m.compile(f)
	}

	m.Persist(ctx, files)

	return files
}

// compile writes the compiled form of f to its target. Failures leave f stale
// so the next pass retries it.
func (m *Manifest) compile(f *File) error {
	compiled, err := m.compiler.Compile(f.Content(), m.PartialContent)
	if err != nil {
		f.markFailed()
		log.WithError(err).Warnf("failed to compile %s", f.SourcePath())
		return err
	}

	if err := writeFile(f.TargetPath(), []byte(compiled)); err != nil {
		f.markFailed()
		log.WithError(err).Warnf("failed to write %s", f.TargetPath())
		return err
	}

	f.markCompiled()
	log.Debugf("compiled %s -> %s", f.SourcePath(), f.TargetPath())
	return nil
}

// PartialContent returns the normalized content of the partial called name,
// or "" when there is none. The partial's own staleness does not matter.
func (m *Manifest) PartialContent(name string) string {
	for _, f := range m.files {
		if f.IsPartial() && f.Name() == name {
			return f.Content()
		}
	}
	return ""
}
