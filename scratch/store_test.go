package scratch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvr-ai/shroomguard/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	store, err := NewStore(filepath.Join(root, "uploads"), filepath.Join(root, "results", "nested"))
	require.NoError(t, err)
	return store
}

func TestNewStore_CreatesDirectories(t *testing.T) {
	store := newTestStore(t)
	for _, dir := range []string{store.uploadDir, store.resultDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestNewStore_Error(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewStore(filepath.Join(blocker, "uploads"), filepath.Join(root, "results"))
	var storage *common.StorageError
	assert.True(t, errors.As(err, &storage))
}

func TestEntry_Paths(t *testing.T) {
	store := newTestStore(t)
	tests := []struct {
		name    string
		wantExt string
	}{
		{"photo.JPG", ".jpg"},
		{"tray.webp", ".webp"},
		{"no-extension", ""},
		{"../../etc/passwd", ""},
		{"weird.j p g", ""},
		{"archive.tar.gz", ".gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := store.Entry("tok", tt.name)
			assert.Equal(t, filepath.Join(store.uploadDir, "tok"+tt.wantExt), entry.UploadPath)
			assert.Equal(t, filepath.Join(store.resultDir, "tok.png"), entry.ResultPath)
			assert.Equal(t, tt.name, entry.Name)
		})
	}
}

func TestNewToken_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := NewToken()
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestSaveAndReadBack(t *testing.T) {
	store := newTestStore(t)
	payload := []byte("original bytes")

	entry, err := store.SaveUpload("abc", "mushrooms.jpg", bytes.NewReader(payload))
	require.NoError(t, err)

	got, err := store.ReadUpload(entry)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, store.WriteResult(entry, []byte("first")))
	require.NoError(t, store.WriteResult(entry, []byte("second")))
	result, err := store.ReadResult(entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), result)
}

func TestSameNameDoesNotCollide(t *testing.T) {
	store := newTestStore(t)

	a, err := store.SaveUpload(NewToken(), "image.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.SaveUpload(NewToken(), "image.jpg", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a.UploadPath, b.UploadPath)

	dataA, err := store.ReadUpload(a)
	require.NoError(t, err)
	assert.Equal(t, "a", string(dataA))
}

func TestReadResult_Missing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ReadResult(store.Entry("missing", "x.png"))

	var storage *common.StorageError
	require.True(t, errors.As(err, &storage))
	assert.Equal(t, "read result", storage.Op)
	assert.Equal(t, 500, common.StatusCode(err))
}
