package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Store(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalBlobStore(dir)
	require.NoError(t, err)

	path, err := store.Store([]byte("fake-png-bytes"), "screenshot.png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(path, "uploads/"))
	require.True(t, strings.HasSuffix(path, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(path)))
	require.NoError(t, err)
	require.Equal(t, []byte("fake-png-bytes"), data)
}

func TestLocalBlobStore_UppercaseExtension(t *testing.T) {
	store, err := NewLocalBlobStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	path, err := store.Store([]byte("data"), "IMG_0001.JPG")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, ".jpg"))
}

func TestLocalBlobStore_RejectsNonImage(t *testing.T) {
	store, err := NewLocalBlobStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	for _, name := range []string{"report.pdf", "script.sh", "noextension"} {
		_, err := store.Store([]byte("data"), name)
		require.ErrorIs(t, err, ErrUnsupportedExtension, name)
	}
}

func TestLocalBlobStore_UniqueNames(t *testing.T) {
	store, err := NewLocalBlobStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	first, err := store.Store([]byte("a"), "same.png")
	require.NoError(t, err)
	second, err := store.Store([]byte("b"), "same.png")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
