// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresADirectory(t *testing.T) {
	_, err := New([]string{"", filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestEventsDebounced(t *testing.T) {
	templates := t.TempDir()
	partials := t.TempDir()

	w, err := New([]string{templates, partials, filepath.Join(templates, "missing")}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	for i, dir := range []string{templates, partials, templates} {
		name := filepath.Join(dir, "file.hbs")
		require.NoError(t, os.WriteFile(name, []byte{byte('a' + i)}, 0o644))
	}

	select {
	case _, ok := <-w.Events():
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no event after writes")
	}

	// The burst collapses into one signal.
	select {
	case <-w.Events():
		t.Fatal("unexpected second event")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestClose(t *testing.T) {
	w, err := New([]string{t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, ok := <-w.Events()
	assert.False(t, ok)
}
