// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

// fixture lays out three templates and two partials, plus files the scan must
// ignore. All sources are dated an hour back so compiled targets written by a
// test are always newer.
type fixture struct {
	root      string
	templates string
	partials  string
	cache     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	root := t.TempDir()
	fx := fixture{
		root:      root,
		templates: filepath.Join(root, "templates"),
		partials:  filepath.Join(root, "partials"),
		cache:     filepath.Join(root, "cache", "compiled"),
	}

	fx.write(t, fx.templates, "default.hbs", "{{ title }} of <i>{{ c }}</i>.")
	fx.write(t, fx.templates, "render-unto.hbs", "Render unto {{ c }}{{> @piece-of-cake this }}")
	fx.write(t, fx.templates, "cake.hbs", "{{> banner }}{{ title }}")
	fx.write(t, fx.templates, "_preview.hbs", "never scanned")
	fx.write(t, fx.partials, "piece-of-cake.hbs", ", and a piece of cake.")
	fx.write(t, fx.partials, "banner.hbs", "<h1>{{ title }}</h1>")
	fx.write(t, fx.partials, "notes.txt", "wrong extension")

	return fx
}

func (fx fixture) write(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(p, past, past))
	return p
}

func (fx fixture) options() Options {
	return Options{
		UseManifest:  true,
		Incremental:  true,
		TemplatesDir: fx.templates,
		PartialsDir:  fx.partials,
		CacheRoot:    fx.cache,
	}
}

// edit simulates a change to a source made some time after the last compile.
// Compiled targets are dated back first so the edited source is newer.
func (fx fixture) edit(t *testing.T, path string) {
	t.Helper()

	compiledAt := time.Now().Add(-10 * time.Minute)
	entries, err := os.ReadDir(fx.cache)
	require.NoError(t, err)
	for _, e := range entries {
		p := filepath.Join(fx.cache, e.Name())
		require.NoError(t, os.Chtimes(p, compiledAt, compiledAt))
	}

	editedAt := time.Now().Add(-5 * time.Minute)
	require.NoError(t, os.Chtimes(path, editedAt, editedAt))
}

func mtime(t *testing.T, path string) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.ModTime()
}

func byName(files []*File) map[string]*File {
	out := make(map[string]*File, len(files))
	for _, f := range files {
		out[f.Name()] = f
	}
	return out
}
