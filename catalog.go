package imagestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type catalogFile struct {
	path string
	name string
	ext  string
}

// Catalog reads every stored image and returns it base64 encoded.
//
// The walk is exactly two levels deep: root, category directory, file.
// Files without an extension are skipped. Any read failure aborts the whole
// build; a partial catalog is never returned. Entry order follows the
// directory listing and callers should not rely on it.
func (s *Store) Catalog(ctx context.Context) (entries []CatalogEntry, err error) {
	start := time.Now()
	defer func() {
		s.opts.Observer.RecordCatalog(time.Since(start), len(entries), err)
	}()

	entries, err = buildCatalog(ctx, s.root, s.opts.CatalogWorkers)
	if err != nil {
		s.opts.Logger.Error("catalog build failed", "root", s.root, "error", err)
		return nil, err
	}

	s.opts.Logger.Debug("catalog built", "root", s.root, "entries", len(entries))
	return entries, nil
}

// BuildCatalog is Catalog for a root without a configured Store.
func BuildCatalog(ctx context.Context, root string) ([]CatalogEntry, error) {
	return buildCatalog(ctx, filepath.Clean(root), defaultOptions().CatalogWorkers)
}

func buildCatalog(ctx context.Context, root string, workers int) ([]CatalogEntry, error) {
	files, err := listCatalogFiles(root)
	if err != nil {
		return nil, err
	}
	return encodeCatalog(ctx, files, workers)
}

// encodeCatalog reads and encodes files with at most workers reads in
// flight. Entries keep the order of files. The first failure cancels the
// remaining reads and discards everything already encoded.
func encodeCatalog(ctx context.Context, files []catalogFile, workers int) ([]CatalogEntry, error) {
	entries := make([]CatalogEntry, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(f.path)
			if err != nil {
				return fmt.Errorf("reading image %q: %w", f.path, err)
			}

			entries[i] = CatalogEntry{
				FileName:       f.name,
				Extension:      f.ext,
				EncodedPayload: base64.StdEncoding.EncodeToString(data),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}

// listCatalogFiles collects the regular files one level below each category
// directory of root. Dot directories, such as the staging area, are not
// categories.
func listCatalogFiles(root string) ([]catalogFile, error) {
	categories, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotInitialized, root)
		}
		return nil, fmt.Errorf("listing storage root %q: %w", root, err)
	}

	var files []catalogFile
	for _, category := range categories {
		if !category.IsDir() || strings.HasPrefix(category.Name(), ".") {
			continue
		}

		dir := filepath.Join(root, category.Name())
		children, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("listing category directory %q: %w", dir, err)
		}

		for _, child := range children {
			if !child.Type().IsRegular() {
				continue
			}

			name, ext, ok := splitExtension(child.Name())
			if !ok {
				continue
			}

			files = append(files, catalogFile{
				path: filepath.Join(dir, child.Name()),
				name: name,
				ext:  ext,
			})
		}
	}

	return files, nil
}

// splitExtension reports the file name and its extension without the dot.
// Names with no extension, a trailing dot, or nothing before the dot
// (".hidden") have no usable extension.
func splitExtension(name string) (string, string, bool) {
	ext := filepath.Ext(name)
	if len(ext) <= 1 || len(ext) == len(name) {
		return "", "", false
	}
	return name, ext[1:], true
}
