// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	fx := newFixture(t)
	m := New(ctx, fx.options(), nil, nil)

	files := m.Scan()
	require.Len(t, files, 5)

	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	// os.ReadDir sorts by file name; templates come before partials.
	assert.Equal(t, []string{"cake", "default", "render-unto", "banner", "piece-of-cake"}, names)

	cake := byName(files)["piece-of-cake"]
	assert.True(t, cake.IsPartial())
	assert.Equal(t, filepath.Join(fx.cache, "@piece-of-cake.hbsc"), cake.TargetPath())
	assert.Equal(t, filepath.Join(fx.partials, "piece-of-cake.hbs"), cake.SourcePath())

	def := byName(files)["default"]
	assert.False(t, def.IsPartial())
	assert.Equal(t, filepath.Join(fx.cache, "default.hbsc"), def.TargetPath())
	assert.True(t, def.NeedsUpdate())
	assert.Equal(t, TargetMissing, def.Reason())
}

func TestScanMissingDirectories(t *testing.T) {
	m := New(ctx, Options{TemplatesDir: filepath.Join(t.TempDir(), "nope")}, nil, nil)
	assert.Empty(t, m.Scan())
	assert.Empty(t, m.Candidates())
}

func TestTargetPath(t *testing.T) {
	m := New(ctx, Options{CacheRoot: "/cache", OutputExt: "php"}, nil, nil)
	assert.Equal(t, filepath.Join("/cache", "default.php"), m.TargetPath("default", false))
	assert.Equal(t, filepath.Join("/cache", "@piece-of-cake.php"), m.TargetPath("piece-of-cake", true))
}

func TestFingerprint(t *testing.T) {
	fx := newFixture(t)
	m := New(ctx, fx.options(), nil, nil)

	first := m.Fingerprint()
	assert.Equal(t, first, m.Fingerprint(), "unchanged inputs")
	assert.Len(t, first, 16)

	// Ignored files still count as candidates.
	assert.Len(t, m.Candidates(), 6)

	cake := filepath.Join(fx.partials, "piece-of-cake.hbs")
	assert.Equal(t, Fingerprint(cake), m.Fingerprint(cake))

	later := time.Now()
	require.NoError(t, os.Chtimes(cake, later, later))
	modified := m.Fingerprint()
	assert.NotEqual(t, first, modified, "modified file")

	fx.write(t, fx.templates, "new.hbs", "new")
	added := m.Fingerprint()
	assert.NotEqual(t, modified, added, "added file")

	require.NoError(t, os.Remove(filepath.Join(fx.templates, "new.hbs")))
	assert.Equal(t, modified, m.Fingerprint(), "removed file restores the previous hash")
}

func TestFingerprintOrderMatters(t *testing.T) {
	fx := newFixture(t)
	a := filepath.Join(fx.templates, "default.hbs")
	b := filepath.Join(fx.partials, "banner.hbs")
	assert.NotEqual(t, Fingerprint(a, b), Fingerprint(b, a))
}

func TestLoadPersistAndHit(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()
	m := New(ctx, fx.options(), store, nil)

	files := m.Load(ctx)
	require.Len(t, files, 5)
	assert.True(t, m.Persist(ctx, files))
	assert.Equal(t, 1, store.Len())

	// Tamper with the stored entries to prove the next Load reads them
	// instead of scanning.
	raw, ok := store.Get(ctx, m.Fingerprint())
	require.True(t, ok)
	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	entries = entries[:2]
	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, m.Fingerprint(), raw))

	loaded := New(ctx, fx.options(), store, nil).Load(ctx)
	assert.Len(t, loaded, 2)
}

func TestLoadUnreadableManifestFallsBackToScan(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()
	m := New(ctx, fx.options(), store, nil)
	require.NoError(t, store.Set(ctx, m.Fingerprint(), []byte("{not json")))

	assert.Len(t, m.Load(ctx), 5)
}

func TestPersistDisabled(t *testing.T) {
	fx := newFixture(t)

	opts := fx.options()
	opts.UseManifest = false
	store := NewMemoryStore()
	m := New(ctx, opts, store, nil)
	assert.False(t, m.Persist(ctx, m.Load(ctx)))
	assert.Equal(t, 0, store.Len())

	m = New(ctx, fx.options(), nil, nil)
	assert.False(t, m.Persist(ctx, m.Load(ctx)))
}

func TestRegisterAllFirstRun(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()
	m := New(ctx, fx.options(), store, nil)

	files := m.RegisterAll(ctx)
	require.Len(t, files, 5)
	assert.Equal(t, files, m.Files())
	assert.Equal(t, 1, store.Len())

	for _, f := range files {
		assert.False(t, f.NeedsUpdate(), f.Name())
		assert.FileExists(t, f.TargetPath())
		if f.IsPartial() {
			assert.Equal(t, Touched, f.State(), f.Name())
			raw, err := os.ReadFile(f.TargetPath())
			require.NoError(t, err)
			assert.Empty(t, raw, "partial targets are empty sentinels")
		} else {
			assert.Equal(t, Compiled, f.State(), f.Name())
		}
	}

	artifact, err := m.Executable("render-unto")
	require.NoError(t, err)
	out, err := artifact(map[string]any{"c": "Caesar"})
	require.NoError(t, err)
	assert.Equal(t, "Render unto Caesar, and a piece of cake.", out)

	artifact, err = m.Executable("cake")
	require.NoError(t, err)
	out, err = artifact(map[string]any{"title": "Cake"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Cake</h1>Cake", out)
}

func TestSecondPassIsFresh(t *testing.T) {
	for _, store := range []Store{NewMemoryStore(), nil} {
		fx := newFixture(t)
		New(ctx, fx.options(), store, nil).RegisterAll(ctx)

		files := New(ctx, fx.options(), store, nil).Load(ctx)
		require.Len(t, files, 5)
		for _, f := range files {
			assert.False(t, f.NeedsUpdate(), f.Name())
		}
	}
}

func TestRequestTwoDoesNotRewrite(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()

	// request #1 writes everything
	first := New(ctx, fx.options(), store, nil)
	first.RegisterAll(ctx)
	_ = first.Fingerprint()
	target, err := first.CompiledPath(DefaultName)
	require.NoError(t, err)

	// Date the outputs back so a rewrite would be visible.
	compiledAt := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	entries, err := os.ReadDir(fx.cache)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for _, e := range entries {
		require.NoError(t, os.Chtimes(filepath.Join(fx.cache, e.Name()), compiledAt, compiledAt))
	}

	// request #2 loads and does not write
	second := New(ctx, fx.options(), store, nil)
	for _, f := range second.RegisterAll(ctx) {
		assert.Equal(t, Scanned, f.State(), f.Name())
	}
	assert.True(t, compiledAt.Equal(mtime(t, target)))

	// request #3 sees a changed source and writes again
	fx.edit(t, filepath.Join(fx.templates, "default.hbs"))
	before := mtime(t, target)
	third := New(ctx, fx.options(), store, nil)
	third.RegisterAll(ctx)
	assert.True(t, mtime(t, target).After(before))
}

func TestManifestFromOtherPathsIsNotReused(t *testing.T) {
	tests := []struct {
		name   string
		change func(o *Options, fx fixture)
		want   func(fx fixture) string
	}{
		{
			name:   "cache root",
			change: func(o *Options, fx fixture) { o.CacheRoot = filepath.Join(fx.root, "cache", "other") },
			want:   func(fx fixture) string { return filepath.Join(fx.root, "cache", "other", "cake.hbsc") },
		},
		{
			name:   "output extension",
			change: func(o *Options, fx fixture) { o.OutputExt = "php" },
			want:   func(fx fixture) string { return filepath.Join(fx.cache, "cake.php") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			store := NewMemoryStore()
			New(ctx, fx.options(), store, nil).RegisterAll(ctx)

			opts := fx.options()
			tt.change(&opts, fx)
			m := New(ctx, opts, store, nil)
			for _, f := range m.RegisterAll(ctx) {
				if !f.IsPartial() {
					assert.Equal(t, Compiled, f.State(), f.Name())
				}
			}

			got, err := m.CompiledPath("cake")
			require.NoError(t, err)
			assert.Equal(t, tt.want(fx), got)
			assert.FileExists(t, got)
		})
	}
}

func TestManifestFromOtherSourceDirIsNotReused(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()
	first := New(ctx, fx.options(), store, nil)
	first.RegisterAll(ctx)
	key := first.Fingerprint()

	// Same base names and times under another directory give the same
	// fingerprint.
	moved := filepath.Join(fx.root, "moved")
	require.NoError(t, os.Rename(fx.templates, moved))
	opts := fx.options()
	opts.TemplatesDir = moved

	m := New(ctx, opts, store, nil)
	require.Equal(t, key, m.Fingerprint())

	m.RegisterAll(ctx)
	got, err := m.SourcePath("cake")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(moved, "cake.hbs"), got)
}

func TestTemplateEditMarksOnlyThatTemplate(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()
	New(ctx, fx.options(), store, nil).RegisterAll(ctx)

	fx.edit(t, filepath.Join(fx.templates, "cake.hbs"))

	m := New(ctx, fx.options(), store, nil)
	for _, f := range m.Load(ctx) {
		assert.Equal(t, f.Name() == "cake", f.NeedsUpdate(), f.Name())
	}

	files := byName(m.RegisterAll(ctx))
	assert.Equal(t, Compiled, files["cake"].State())
	assert.Equal(t, Scanned, files["default"].State())
	assert.Equal(t, Scanned, files["render-unto"].State())
	assert.Equal(t, Scanned, files["banner"].State())
}

func TestPartialEditRecompilesEveryTemplate(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()
	New(ctx, fx.options(), store, nil).RegisterAll(ctx)

	fx.edit(t, filepath.Join(fx.partials, "piece-of-cake.hbs"))

	m := New(ctx, fx.options(), store, nil)
	for _, f := range m.Load(ctx) {
		assert.Equal(t, f.Name() == "piece-of-cake", f.NeedsUpdate(), f.Name())
	}

	files := byName(m.RegisterAll(ctx))
	assert.Equal(t, Touched, files["piece-of-cake"].State())
	assert.Equal(t, Scanned, files["banner"].State())
	// default and cake do not use piece-of-cake and are recompiled anyway.
	for _, name := range []string{"default", "cake", "render-unto"} {
		assert.Equal(t, Compiled, files[name].State(), name)
		assert.False(t, files[name].NeedsUpdate(), name)
	}
}

func TestCompileIsByteIdenticalAcrossInstances(t *testing.T) {
	fx := newFixture(t)

	a := fx.options()
	a.CacheRoot = filepath.Join(fx.root, "a")
	b := fx.options()
	b.CacheRoot = filepath.Join(fx.root, "b")

	New(ctx, a, NewMemoryStore(), nil).RegisterAll(ctx)
	New(ctx, b, NewMemoryStore(), nil).RegisterAll(ctx)

	for _, name := range []string{"default.hbsc", "render-unto.hbsc", "cake.hbsc"} {
		left, err := os.ReadFile(filepath.Join(a.CacheRoot, name))
		require.NoError(t, err)
		right, err := os.ReadFile(filepath.Join(b.CacheRoot, name))
		require.NoError(t, err)
		assert.Equal(t, left, right, name)
	}
}

func TestCompileFailureStaysStale(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, fx.templates, "broken.hbs", "{{#if title}}never closed")

	m := New(ctx, fx.options(), NewMemoryStore(), nil)
	files := byName(m.RegisterAll(ctx))

	broken := files["broken"]
	assert.Equal(t, Failed, broken.State())
	assert.True(t, broken.NeedsUpdate())
	assert.NoFileExists(t, broken.TargetPath())
	assert.Equal(t, Compiled, files["default"].State())
}

func TestPartialContent(t *testing.T) {
	fx := newFixture(t)
	m := New(ctx, Options{TemplatesDir: fx.templates, PartialsDir: fx.partials, CacheRoot: fx.cache}, nil, nil)
	m.RegisterAll(ctx)

	raw, err := os.ReadFile(filepath.Join(fx.partials, "piece-of-cake.hbs"))
	require.NoError(t, err)
	assert.Equal(t, string(raw), m.PartialContent("piece-of-cake"))
	assert.Equal(t, "", m.PartialContent("does-not-exist"))
	assert.Equal(t, "", m.PartialContent("default"), "templates are not partials")
}

func TestResolvers(t *testing.T) {
	fx := newFixture(t)
	m := New(ctx, fx.options(), nil, nil)
	m.RegisterAll(ctx)

	p, err := m.CompiledPath("render-unto")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fx.cache, "render-unto.hbsc"), p)

	p, err = m.CompiledPath("does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fx.cache, "default.hbsc"), p)

	p, err = m.CompiledPath("piece-of-cake")
	require.NoError(t, err)
	assert.Equal(t, m.TargetPath("piece-of-cake", true), p)

	p, err = m.SourcePath("render-unto")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fx.templates, "render-unto.hbs"), p)

	p, err = m.SourcePath("does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fx.templates, "default.hbs"), p)

	_, err = m.SourcePath("Default")
	require.NoError(t, err, "case mismatch falls back to default")
}

func TestExecutableFallsBackToDefault(t *testing.T) {
	fx := newFixture(t)
	m := New(ctx, fx.options(), nil, nil)
	m.RegisterAll(ctx)

	data := map[string]any{"title": "Home", "c": "cake"}

	def, err := m.Executable(DefaultName)
	require.NoError(t, err)
	want, err := def(data)
	require.NoError(t, err)
	assert.Equal(t, "Home of <i>cake</i>.", want)

	missing, err := m.Executable("does-not-exist")
	require.NoError(t, err)
	got, err := missing(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Partials are never executable; the name falls through to default.
	partial, err := m.Executable("banner")
	require.NoError(t, err)
	got, err = partial(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMissingDefaultIsConfigError(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(fx.templates, "default.hbs")))

	m := New(ctx, fx.options(), nil, nil)
	m.RegisterAll(ctx)

	_, err := m.Executable(DefaultName)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDefault))

	_, err = m.Executable("does-not-exist")
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "does-not-exist", cfgErr.Name)

	_, err = m.SourcePath("does-not-exist")
	assert.ErrorIs(t, err, ErrNoDefault)
	_, err = m.CompiledPath("does-not-exist")
	assert.ErrorIs(t, err, ErrNoDefault)
}

func TestExecutableInProcess(t *testing.T) {
	fx := newFixture(t)
	opts := fx.options()
	opts.Incremental = false
	m := New(ctx, opts, nil, nil)
	m.RegisterAll(ctx)

	artifact, err := m.Executable("render-unto")
	require.NoError(t, err)
	out, err := artifact(map[string]any{"c": "Caesar"})
	require.NoError(t, err)
	assert.Equal(t, "Render unto Caesar, and a piece of cake.", out)

	// Served from the cached artifact even when the output is gone.
	require.NoError(t, os.RemoveAll(fx.cache))
	artifact, err = m.Executable("render-unto")
	require.NoError(t, err)
	out, err = artifact(map[string]any{"c": "Caesar"})
	require.NoError(t, err)
	assert.Equal(t, "Render unto Caesar, and a piece of cake.", out)
}

func TestExecutableBeforeCompile(t *testing.T) {
	fx := newFixture(t)
	m := New(ctx, fx.options(), nil, nil)
	m.files = m.Scan()

	artifact, err := m.Executable(DefaultName)
	require.NoError(t, err)
	out, err := artifact(map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestFlush(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()
	m := New(ctx, fx.options(), store, nil)
	m.RegisterAll(ctx)
	require.NoError(t, os.WriteFile(filepath.Join(fx.cache, "test.tmp"), []byte("test"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(fx.cache, "subdir"), 0o755))

	res := m.Flush(ctx)
	assert.True(t, res.OK())
	assert.Equal(t, 6, res.Removed)
	assert.Equal(t, 0, store.Len())

	entries, err := os.ReadDir(fx.cache)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "directories are left alone")

	// The next load is a miss and scans; every target is missing again.
	for _, f := range New(ctx, fx.options(), store, nil).Load(ctx) {
		assert.Equal(t, TargetMissing, f.Reason(), f.Name())
	}
}

func TestFlushMissingRootIsOK(t *testing.T) {
	m := New(ctx, Options{CacheRoot: filepath.Join(t.TempDir(), "missing")}, NewMemoryStore(), nil)
	res := m.Flush(ctx)
	assert.True(t, res.OK())
	assert.Equal(t, 0, res.Removed)
}

func TestDebugFlushesAndBypassesManifest(t *testing.T) {
	fx := newFixture(t)
	store := NewMemoryStore()
	New(ctx, fx.options(), store, nil).RegisterAll(ctx)
	require.Equal(t, 1, store.Len())

	opts := fx.options()
	opts.Debug = true
	m := New(ctx, opts, store, nil)
	assert.Equal(t, 0, store.Len())

	entries, err := os.ReadDir(fx.cache)
	require.NoError(t, err)
	assert.Empty(t, entries)

	m.RegisterAll(ctx)
	assert.Equal(t, 0, store.Len(), "debug never persists")
}

func TestHandleRegistersOnce(t *testing.T) {
	fx := newFixture(t)
	h := NewHandle(fx.options(), NewMemoryStore(), nil)

	first := h.Manifest(ctx)
	require.Len(t, first.Files(), 5)
	target, err := first.CompiledPath("cake")
	require.NoError(t, err)

	fx.edit(t, filepath.Join(fx.templates, "cake.hbs"))
	before := mtime(t, target)

	second := h.Manifest(ctx)
	assert.Same(t, first, second)
	assert.True(t, before.Equal(mtime(t, target)), "no second staleness pass")

	// A new scope sees the edit.
	NewHandle(fx.options(), NewMemoryStore(), nil).Manifest(ctx)
	assert.True(t, mtime(t, target).After(before))
}
