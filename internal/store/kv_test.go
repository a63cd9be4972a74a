package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVBackends(t *testing.T) {
	ctx := context.Background()

	backends := []struct {
		name string
		open func(t *testing.T) KV
	}{
		{
			name: "memory",
			open: func(t *testing.T) KV { return NewMemoryKV() },
		},
		{
			name: "file",
			open: func(t *testing.T) KV {
				kv, err := NewFileKV(filepath.Join(t.TempDir(), "data"))
				require.NoError(t, err)
				return kv
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) KV {
				kv, err := NewSQLiteKV(ctx, filepath.Join(t.TempDir(), "kv.db"))
				require.NoError(t, err)
				return kv
			},
		},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			kv := b.open(t)
			defer kv.Close()

			_, found, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, kv.Set(ctx, "campaign_contacts", `[{"id":"1"}]`))
			v, found, err := kv.Get(ctx, "campaign_contacts")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `[{"id":"1"}]`, v)

			require.NoError(t, kv.Set(ctx, "campaign_contacts", `[]`))
			v, _, err = kv.Get(ctx, "campaign_contacts")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v)

			require.NoError(t, kv.Delete(ctx, "campaign_contacts"))
			_, found, err = kv.Get(ctx, "campaign_contacts")
			require.NoError(t, err)
			assert.False(t, found)

			// Deleting an absent key is not an error.
			require.NoError(t, kv.Delete(ctx, "campaign_contacts"))
		})
	}
}

func TestFileKVPermissionsAndKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, "gmail_access_token", `{"access_token":"x"}`))
	info, err := os.Stat(filepath.Join(dir, "gmail_access_token.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")

	assert.Error(t, kv.Set(ctx, "../escape", "x"))
	_, _, err = kv.Get(ctx, "a/b")
	assert.Error(t, err)
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	kv, err := NewSQLiteKV(ctx, path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "user_email", `"me@example.com"`))
	require.NoError(t, kv.Close())

	kv, err = NewSQLiteKV(ctx, path)
	require.NoError(t, err)
	defer kv.Close()
	v, found, err := kv.Get(ctx, "user_email")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `"me@example.com"`, v)
}

func TestOpenKV(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     KVConfig
		want    any
		wantErr bool
	}{
		{name: "memory", cfg: KVConfig{Backend: "memory"}, want: &MemoryKV{}},
		{name: "file", cfg: KVConfig{Backend: "file", DataDir: dir}, want: &FileKV{}},
		{name: "default is file", cfg: KVConfig{DataDir: dir}, want: &FileKV{}},
		{name: "sqlite", cfg: KVConfig{Backend: "SQLite", DataDir: dir}, want: &SQLiteKV{}},
		{name: "file without dir", cfg: KVConfig{Backend: "file"}, wantErr: true},
		{name: "valkey without address", cfg: KVConfig{Backend: "valkey"}, wantErr: true},
		{name: "unknown", cfg: KVConfig{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := OpenKV(ctx, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer kv.Close()
			assert.IsType(t, tt.want, kv)
		})
	}
}
