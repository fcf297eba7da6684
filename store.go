// Package imagestore files uploaded images on the local filesystem, one
// directory per image category, and rebuilds a transportable catalog of
// everything stored on demand.
//
// # Layout
//
//	<root>/
//	    JPG/2026-10-15_09-30-00.jpg
//	    PNG/2026-10-15_09-30-02.png
//	    Undefined/2026-10-15_09-31-11.bin
//	    .tmp/            staging area for in-flight writes
//
// Category directories are created lazily on first upload. The root itself
// is created by the first upload too; a catalog request against a missing
// root fails with ErrNotInitialized instead of returning an empty list.
//
// # Naming
//
// File names carry a one-second timestamp and nothing else, so two uploads
// of the same category in the same second share a name and the later one
// wins. See WithNameFunc and UniqueFileName.
//
// # Concurrency
//
// A Store holds no mutable state; the directory tree is the only shared
// resource. Uploads stage bytes in .tmp and rename them into place, so a
// concurrent catalog build sees either the old file or the complete new one.
//
// # Usage
//
//	store, err := imagestore.New("transferred_images")
//	if err != nil {
//		return err
//	}
//
//	stored, err := store.Upload(ctx, imagestore.UploadRequest{
//		Payload:      data,
//		DeclaredType: "image/png",
//	})
//
//	entries, err := store.Catalog(ctx)
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const tempDirName = ".tmp"

var (
	ErrEmptyRoot      = errors.New("storage root cannot be empty")
	ErrNotInitialized = errors.New("image store not initialized")
)

type Store struct {
	root string
	opts *Options
}

// New returns a store rooted at root. Nothing is created on disk until the
// first upload.
func New(root string, opts ...OptionFunc) (*Store, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.CatalogWorkers < 1 {
		options.CatalogWorkers = 1
	}
	if options.Logger == nil {
		options.Logger = defaultOptions().Logger
	}
	if options.Observer == nil {
		options.Observer = nopObserver{}
	}

	return &Store{
		root: filepath.Clean(root),
		opts: options,
	}, nil
}

// Root returns the cleaned storage root.
func (s *Store) Root() string {
	return s.root
}

// EnsureCategoryDir creates the directory for c, along with the root if
// needed, and returns its path. It succeeds when the directory already
// exists, including when a concurrent call created it first.
func (s *Store) EnsureCategoryDir(c Category) (string, error) {
	dir := filepath.Join(s.root, c.Dir())
	if err := os.MkdirAll(dir, s.opts.DirMode); err != nil {
		return "", fmt.Errorf("creating category directory %q: %w", dir, err)
	}
	return dir, nil
}

// GenerateFileName names a new upload of category c using the store's
// clock and name function.
func (s *Store) GenerateFileName(c Category) string {
	return s.opts.NameFunc(c, s.opts.Clock())
}

// WriteFile stores data at path, replacing any existing file. Either the
// whole payload lands or an error naming path is returned. WriteFile never
// retries.
func (s *Store) WriteFile(path string, data []byte) error {
	_, err := s.writeBlob(path, data)
	return err
}

func (s *Store) writeBlob(path string, data []byte) (*Blob, error) {
	blob, err := s.NewBlob()
	if err != nil {
		return nil, fmt.Errorf("writing image %q: %w", path, err)
	}
	defer blob.Discard()

	if _, err := blob.Write(data); err != nil {
		return nil, fmt.Errorf("writing image %q: %w", path, err)
	}

	if err := blob.CommitAs(path); err != nil {
		return nil, err
	}

	return blob, nil
}

// Upload classifies req, makes sure its category directory exists, names
// the file and writes it. Declared types the store does not recognise are
// filed under Undefined with a .bin extension.
func (s *Store) Upload(ctx context.Context, req UploadRequest) (stored *StoredFile, err error) {
	category := Classify(req.DeclaredType)

	start := time.Now()
	defer func() {
		s.opts.Observer.RecordUpload(category, time.Since(start), int64(len(req.Payload)), err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.opts.Logger.Info("image upload",
		"declared_type", req.DeclaredType,
		"category", category.String(),
		"bytes", len(req.Payload))

	dir, err := s.EnsureCategoryDir(category)
	if err != nil {
		return nil, err
	}

	modifiedAt := s.opts.Clock()
	name := s.opts.NameFunc(category, modifiedAt)
	path := filepath.Join(dir, name)

	blob, err := s.writeBlob(path, req.Payload)
	if err != nil {
		s.opts.Logger.Error("image upload failed", "path", path, "error", err)
		return nil, err
	}

	s.opts.Logger.Info("image saved", "path", path, "bytes", blob.Size())

	return &StoredFile{
		RelativePath: filepath.ToSlash(filepath.Join(category.Dir(), name)),
		Category:     category,
		Size:         blob.Size(),
		Sha256:       blob.Hash(),
		ModifiedAt:   modifiedAt,
	}, nil
}
