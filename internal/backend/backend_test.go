// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/hbsctl/internal/backend/sqlite"
	"github.com/staranto/hbsctl/internal/cacheutil"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	t.Setenv("HBSCTL_CACHE_DIR", base)
	t.Setenv("HBSCTL_CACHE", "")

	tests := []struct {
		name    string
		spec    Spec
		wantNil bool
		wantErr bool
		check   func(t *testing.T, s Store)
	}{
		{
			name: "default is a file store under the cache dir",
			check: func(t *testing.T, s Store) {
				fs, ok := s.(*cacheutil.FileStore)
				require.True(t, ok)
				assert.Equal(t, filepath.Join(base, "manifest"), fs.Dir())
			},
		},
		{
			name: "file store with path",
			spec: Spec{Kind: "FILE", Path: filepath.Join(base, "elsewhere")},
			check: func(t *testing.T, s Store) {
				assert.Equal(t, filepath.Join(base, "elsewhere"), s.(*cacheutil.FileStore).Dir())
			},
		},
		{
			name: "sqlite",
			spec: Spec{Kind: KindSQLite},
			check: func(t *testing.T, s Store) {
				db, ok := s.(*sqlite.Store)
				require.True(t, ok)
				assert.Equal(t, filepath.Join(base, "manifest.db"), db.Path())
			},
		},
		{name: "none", spec: Spec{Kind: KindNone}, wantNil: true},
		{name: "s3 without bucket", spec: Spec{Kind: KindS3}, wantErr: true},
		{name: "unknown", spec: Spec{Kind: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, s)
				assert.Nil(t, AsManifestStore(s))
				return
			}
			require.NotNil(t, s)
			defer s.Close()

			require.NoError(t, s.Set(ctx, "k", []byte("v")))
			got, ok := s.Get(ctx, "k")
			assert.True(t, ok)
			assert.Equal(t, []byte("v"), got)
			require.NoError(t, s.Flush(ctx))
			_, ok = s.Get(ctx, "k")
			assert.False(t, ok)

			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestOpenCacheDisabled(t *testing.T) {
	t.Setenv("HBSCTL_CACHE_DIR", t.TempDir())
	t.Setenv("HBSCTL_CACHE", "false")

	s, err := Open(context.Background(), Spec{Kind: KindSQLite})
	assert.NoError(t, err)
	assert.Nil(t, s)
}
