package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeheap-analysis/pkg/config"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "dumps/task-1/jeprof.heap"

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Upload(ctx, key, strings.NewReader("heap_v2/524288\n")))

	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := store.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "heap_v2/524288\n", string(data))

	require.NoError(t, store.Delete(ctx, key))

	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_FileTransfers(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	srcPath := filepath.Join(t.TempDir(), "dump.heap")
	require.NoError(t, os.WriteFile(srcPath, []byte("heap_v2/1\n"), 0o644))

	require.NoError(t, store.UploadFile(ctx, "results/dump.heap", srcPath))

	dstPath := filepath.Join(t.TempDir(), "nested", "copy.heap")
	require.NoError(t, store.DownloadFile(ctx, "results/dump.heap", dstPath))

	data, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	assert.Equal(t, "heap_v2/1\n", string(data))
}

func TestLocalStorage_MissingObject(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "no/such/key")
	assert.ErrorContains(t, err, "not found")

	// Deleting a missing object is not an error.
	assert.NoError(t, store.Delete(context.Background(), "no/such/key"))
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Upload(ctx, "k", strings.NewReader("x")), context.Canceled)
	_, err = store.Download(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStorage_KeyEscapeClamped(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	full := store.getFullPath("../../etc/passwd")
	assert.True(t, strings.HasPrefix(full, base))
}

func TestNewStorage_Local(t *testing.T) {
	cfg := &config.StorageConfig{Type: "local", LocalPath: t.TempDir()}

	store, err := NewStorage(cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)
	assert.True(t, strings.HasPrefix(store.GetURL("a/b"), "file://"))
}
