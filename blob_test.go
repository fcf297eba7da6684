package imagestore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...OptionFunc) *Store {
	t.Helper()
	store, err := New(t.TempDir(), opts...)
	require.NoError(t, err)
	return store
}

func tempEntries(t *testing.T, s *Store) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(s.Root(), tempDirName))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestBlob_Write(t *testing.T) {
	store := newTestStore(t)

	t.Run("multiple writes", func(t *testing.T) {
		blob, err := store.NewBlob()
		require.NoError(t, err)
		defer blob.Discard()

		total := 0
		for _, s := range []string{"\xff\xd8", "\xff", "\xe0"} {
			n, err := blob.Write([]byte(s))
			require.NoError(t, err)
			total += n
		}

		assert.Equal(t, int64(total), blob.Size())
	})

	t.Run("io.Copy large payload", func(t *testing.T) {
		blob, err := store.NewBlob()
		require.NoError(t, err)
		defer blob.Discard()

		data := make([]byte, 1024*1024)
		for i := range data {
			data[i] = byte(i % 256)
		}

		n, err := io.Copy(blob, bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), n)
	})

	t.Run("write after discard", func(t *testing.T) {
		blob, err := store.NewBlob()
		require.NoError(t, err)
		require.NoError(t, blob.Discard())

		_, err = blob.Write([]byte("late"))
		assert.ErrorIs(t, err, ErrBlobClosed)
	})
}

func TestBlob_CommitAs(t *testing.T) {
	store := newTestStore(t)
	dir, err := store.EnsureCategoryDir(PNG)
	require.NoError(t, err)

	t.Run("commit moves staged bytes", func(t *testing.T) {
		target := filepath.Join(dir, "committed.png")
		blob, err := store.NewBlob()
		require.NoError(t, err)
		defer blob.Discard()

		_, err = blob.Write([]byte("png bytes"))
		require.NoError(t, err)

		_, err = os.Stat(target)
		assert.True(t, os.IsNotExist(err), "target must not exist before commit")

		require.NoError(t, blob.CommitAs(target))

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "png bytes", string(got))
		assert.True(t, blob.Closed())
		assert.Empty(t, tempEntries(t, store))
	})

	t.Run("commit twice", func(t *testing.T) {
		blob, err := store.NewBlob()
		require.NoError(t, err)

		require.NoError(t, blob.CommitAs(filepath.Join(dir, "once.png")))
		assert.ErrorIs(t, blob.CommitAs(filepath.Join(dir, "twice.png")), ErrBlobClosed)
	})

	t.Run("commit into missing directory", func(t *testing.T) {
		target := filepath.Join(store.Root(), "missing", "x.png")
		blob, err := store.NewBlob()
		require.NoError(t, err)

		_, err = blob.Write([]byte("data"))
		require.NoError(t, err)

		err = blob.CommitAs(target)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, err.Error(), target)
		assert.Empty(t, tempEntries(t, store), "failed commit must remove the staging file")
	})

	t.Run("discard is idempotent", func(t *testing.T) {
		blob, err := store.NewBlob()
		require.NoError(t, err)

		_, err = blob.Write([]byte("Test"))
		require.NoError(t, err)

		assert.NoError(t, blob.Discard())
		assert.NoError(t, blob.Discard())
		assert.NoError(t, blob.Close())
		assert.Empty(t, tempEntries(t, store))
	})
}

func TestBlob_Hash(t *testing.T) {
	store := newTestStore(t)

	blob, err := store.NewBlob()
	require.NoError(t, err)
	defer blob.Discard()

	data := []byte{0xFF, 0xD8, 0xFF}
	_, err = blob.Write(data)
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), blob.Hash())
}

func TestBlob_FileMode(t *testing.T) {
	store := newTestStore(t, WithFileMode(0600))
	dir, err := store.EnsureCategoryDir(GIF)
	require.NoError(t, err)

	target := filepath.Join(dir, "mode.gif")
	require.NoError(t, store.WriteFile(target, []byte("GIF89a")))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
