package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreWriteReadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	rel := filepath.Join("p1", "contracts", "c1", "contract_v1.pdf")
	written, err := store.Write(rel, []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	assert.Equal(t, rel, written)

	content, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 test"), content)
	assert.True(t, store.Exists(rel))
}

func TestFileStoreWriteLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)

	_, err = store.Write("doc.pdf", []byte("x"))
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.pdf", entries[0].Name())
}

func TestFileStoreOverwriteReplacesContent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Write("doc.pdf", []byte("first"))
	require.NoError(t, err)
	_, err = store.Write("doc.pdf", []byte("second"))
	require.NoError(t, err)

	content, err := store.Read("doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), content)
}

func TestFileStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Write(filepath.Join("..", "outside.pdf"), []byte("x"))
	assert.Error(t, err)

	_, err = store.Read("/etc/passwd")
	assert.Error(t, err)
}

func TestFileStoreRemoveIsIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Write("doc.pdf", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Remove("doc.pdf"))
	assert.False(t, store.Exists("doc.pdf"))
	assert.NoError(t, store.Remove("doc.pdf"))
}
