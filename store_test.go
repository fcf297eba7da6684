package imagestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type recordingObserver struct {
	mu       sync.Mutex
	uploads  []error
	catalogs []int
	catErrs  []error
}

func (o *recordingObserver) RecordUpload(_ Category, _ time.Duration, _ int64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploads = append(o.uploads, err)
}

func (o *recordingObserver) RecordCatalog(_ time.Duration, entries int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.catalogs = append(o.catalogs, entries)
	o.catErrs = append(o.catErrs, err)
}

func TestNew_EmptyRoot(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyRoot)
}

func TestNew_DoesNotTouchDisk(t *testing.T) {
	root := filepath.Join(t.TempDir(), "images")
	_, err := New(root)
	require.NoError(t, err)

	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureCategoryDir_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "transferred_images")
	store, err := New(root)
	require.NoError(t, err)

	dir, err := store.EnsureCategoryDir(JPEG)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "JPG"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureCategoryDir_Idempotent(t *testing.T) {
	store := newTestStore(t)

	first, err := store.EnsureCategoryDir(WEBP)
	require.NoError(t, err)
	second, err := store.EnsureCategoryDir(WEBP)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureCategoryDir_Concurrent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fresh")
	store, err := New(root)
	require.NoError(t, err)

	const callers = 32
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.EnsureCategoryDir(PNG)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PNG", entries[0].Name())
}

func TestEnsureCategoryDir_RootIsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0644))

	store, err := New(root)
	require.NoError(t, err)

	_, err = store.EnsureCategoryDir(GIF)
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(root, "GIF"))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	dir, err := store.EnsureCategoryDir(JPEG)
	require.NoError(t, err)

	data := []byte{0xFF, 0xD8, 0xFF, 0x00, 0x10}
	path := filepath.Join(dir, store.GenerateFileName(JPEG))
	require.NoError(t, store.WriteFile(path, data))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWriteFile_Empty(t *testing.T) {
	store := newTestStore(t)
	dir, err := store.EnsureCategoryDir(Unknown)
	require.NoError(t, err)

	path := filepath.Join(dir, "empty.bin")
	require.NoError(t, store.WriteFile(path, nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.Root(), "PNG", "a.png")

	err := store.WriteFile(path, []byte("png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}

func TestUpload(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC)
	store := newTestStore(t, WithClock(fixedClock(at)))

	stored, err := store.Upload(t.Context(), UploadRequest{
		Payload:      []byte{0xFF, 0xD8, 0xFF},
		DeclaredType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.Equal(t, "JPG/2026-10-15_09-30-05.jpg", stored.RelativePath)
	assert.Equal(t, JPEG, stored.Category)
	assert.Equal(t, int64(3), stored.Size)
	assert.Equal(t, at, stored.ModifiedAt)
	assert.Len(t, stored.Sha256, 64)

	got, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(stored.RelativePath)))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, got)
}

func TestUpload_UnknownType(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC)
	store := newTestStore(t, WithClock(fixedClock(at)))

	stored, err := store.Upload(t.Context(), UploadRequest{
		Payload:      []byte("blob"),
		DeclaredType: "application/octet-stream",
	})
	require.NoError(t, err)
	assert.Equal(t, "Undefined/2026-10-15_09-30-05.bin", stored.RelativePath)
}

func TestUpload_SameSecondOverwrites(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC)
	store := newTestStore(t, WithClock(fixedClock(at)))

	first, err := store.Upload(t.Context(), UploadRequest{Payload: []byte("first"), DeclaredType: "image/png"})
	require.NoError(t, err)
	second, err := store.Upload(t.Context(), UploadRequest{Payload: []byte("second"), DeclaredType: "image/png"})
	require.NoError(t, err)

	assert.Equal(t, first.RelativePath, second.RelativePath)

	got, err := os.ReadFile(filepath.Join(store.Root(), filepath.FromSlash(second.RelativePath)))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Join(store.Root(), "PNG"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpload_UniqueNamesKeepBoth(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC)
	store := newTestStore(t, WithClock(fixedClock(at)), WithNameFunc(UniqueFileName))

	first, err := store.Upload(t.Context(), UploadRequest{Payload: []byte("first"), DeclaredType: "image/png"})
	require.NoError(t, err)
	second, err := store.Upload(t.Context(), UploadRequest{Payload: []byte("second"), DeclaredType: "image/png"})
	require.NoError(t, err)

	assert.NotEqual(t, first.RelativePath, second.RelativePath)
}

func TestUpload_CanceledContext(t *testing.T) {
	obs := &recordingObserver{}
	store := newTestStore(t, WithObserver(obs))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := store.Upload(ctx, UploadRequest{Payload: []byte("x"), DeclaredType: "image/gif"})
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(store.Root(), "GIF"))
	assert.True(t, os.IsNotExist(statErr))
	require.Len(t, obs.uploads, 1)
	assert.ErrorIs(t, obs.uploads[0], context.Canceled)
}

func TestUpload_FailureIsObserved(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(root, nil, 0644))

	obs := &recordingObserver{}
	store, err := New(root, WithObserver(obs))
	require.NoError(t, err)

	_, err = store.Upload(t.Context(), UploadRequest{Payload: []byte("x"), DeclaredType: "image/png"})
	require.Error(t, err)
	require.Len(t, obs.uploads, 1)
	assert.Error(t, obs.uploads[0])
}

func TestUpload_Concurrent(t *testing.T) {
	store := newTestStore(t, WithNameFunc(UniqueFileName))

	types := []string{"image/jpeg", "image/png", "image/gif", "image/webp", "text/plain"}
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Upload(t.Context(), UploadRequest{
				Payload:      []byte{byte(i)},
				DeclaredType: types[i%len(types)],
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := store.Catalog(t.Context())
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}
