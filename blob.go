package imagestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrBlobClosed = errors.New("blob is closed")
)

// Blob is an image being written. Bytes go to a staging file under the
// store's temp directory and only appear at the target path once CommitAs
// renames them into place, so catalog builds never see a partial image.
//
//	blob, err := store.NewBlob()
//	if err != nil {
//		return err
//	}
//	defer blob.Discard()
//
//	if _, err := io.Copy(blob, r); err != nil {
//		return err
//	}
//	return blob.CommitAs(path)
type Blob struct {
	staged     *os.File
	stagedPath string

	digest hash.Hash
	size   int64

	mu     sync.Mutex
	closed bool
	err    error // sticky
}

// NewBlob creates a writable blob backed by a fresh staging file.
// The blob must be committed with CommitAs or released with Discard.
func (s *Store) NewBlob() (*Blob, error) {
	stagingDir := filepath.Join(s.root, tempDirName)
	if err := os.MkdirAll(stagingDir, s.opts.DirMode); err != nil {
		return nil, fmt.Errorf("creating temp directory %q: %w", stagingDir, err)
	}

	staged, err := os.OpenFile(filepath.Join(stagingDir, uuid.NewString()), os.O_RDWR|os.O_CREATE|os.O_EXCL, s.opts.FileMode)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	return &Blob{
		staged:     staged,
		stagedPath: staged.Name(),
		digest:     sha256.New(),
	}, nil
}

// Write implements io.Writer. A short write is reported as an error and
// poisons the blob so it can no longer be committed.
func (b *Blob) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrBlobClosed
	}

	if b.err != nil {
		return 0, b.err
	}

	written, err := b.staged.Write(p)
	if err == nil && written < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		b.err = err
		return written, err
	}

	_, _ = b.digest.Write(p[:written])
	b.size += int64(written)
	return written, nil
}

// Hash returns the hex SHA-256 of everything written so far.
func (b *Blob) Hash() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return hex.EncodeToString(b.digest.Sum(nil))
}

// CommitAs moves the staged bytes to path, replacing any file already
// there. The directory containing path must exist. After CommitAs the blob
// is closed whether or not the commit succeeded.
func (b *Blob) CommitAs(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBlobClosed
	}

	if b.err != nil {
		return b.err
	}

	b.closed = true

	defer func() {
		if b.err != nil {
			os.Remove(b.stagedPath)
		}
	}()

	if err := b.staged.Close(); err != nil {
		b.err = fmt.Errorf("closing temp file for %q: %w", path, err)
		return b.err
	}

	if err := os.Rename(b.stagedPath, path); err != nil {
		b.err = fmt.Errorf("committing image %q: %w", path, err)
		return b.err
	}

	return nil
}

// Discard closes the blob and removes the staging file without committing.
// Safe to call more than once and after CommitAs.
func (b *Blob) Discard() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	if err := b.staged.Close(); err != nil && b.err == nil {
		b.err = err
	}

	os.Remove(b.stagedPath)

	return b.err
}

// Close is an alias for Discard. It does NOT commit.
func (b *Blob) Close() error {
	return b.Discard()
}

// Size returns the number of bytes written so far.
func (b *Blob) Size() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Closed reports whether the blob was committed or discarded.
func (b *Blob) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
