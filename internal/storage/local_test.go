package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalWriteAndExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "files")
	store, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.EnsureContainer(ctx))
	require.NoError(t, store.EnsureContainer(ctx))

	w, err := store.OpenForWrite(ctx, "a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = store.OpenForWrite(ctx, "a.txt")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalAbortRemovesFile(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	w, err := store.OpenForWrite(ctx, "partial.bin")
	require.NoError(t, err)
	_, _ = w.Write([]byte("half"))
	require.NoError(t, w.Abort())

	assert.NoFileExists(t, filepath.Join(store.Location(), "partial.bin"))

	w, err = store.OpenForWrite(ctx, "partial.bin")
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestLocalRejectsPathNames(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"", ".", "..", "a/b.txt", "../escape.txt"} {
		_, err := store.OpenForWrite(context.Background(), name)
		assert.Error(t, err, "name %q", name)
		assert.NotErrorIs(t, err, ErrAlreadyExists)
	}
}

func TestNewLocalDefaultsToFiles(t *testing.T) {
	store, err := NewLocal("")
	require.NoError(t, err)
	assert.Equal(t, "files", filepath.Base(store.Location()))
	assert.True(t, filepath.IsAbs(store.Location()))
}

func TestOpenPicksBackend(t *testing.T) {
	ctx := context.Background()

	local, err := Open(ctx, t.TempDir(), Options{})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, local)

	_, err = Open(ctx, "s3://", Options{})
	assert.Error(t, err)

	remote, err := Open(ctx, "s3://mirror/incoming/ftp/", Options{S3: S3Config{
		Region:    "us-east-1",
		AccessKey: "key",
		SecretKey: "secret",
		Endpoint:  "http://127.0.0.1:9000",
	}})
	require.NoError(t, err)
	assert.Equal(t, "s3://mirror/incoming/ftp", remote.Location())
}
