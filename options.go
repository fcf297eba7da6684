package imagestore

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// NameFunc produces the stored file name for an upload of category c
// received at t. The result must carry the category extension so the
// catalog walker can report it.
type NameFunc func(c Category, t time.Time) string

// Options configures Store behavior.
type Options struct {
	FileMode       os.FileMode      // Permission bits for stored images
	DirMode        os.FileMode      // Permission bits for root and category directories
	NameFunc       NameFunc         // Storage key generator
	Clock          func() time.Time // Source of upload timestamps
	CatalogWorkers int              // Concurrent file reads during a catalog build
	Logger         *slog.Logger
	Observer       Observer
}

// OptionFunc is a functional option for configuring Store.
type OptionFunc func(opts *Options)

// WithFileMode sets the permission mode for stored image files.
// Default is 0644.
func WithFileMode(mode os.FileMode) OptionFunc {
	return func(opts *Options) {
		opts.FileMode = mode
	}
}

// WithDirMode sets the permission mode for the root and category directories.
// Default is 0755.
func WithDirMode(mode os.FileMode) OptionFunc {
	return func(opts *Options) {
		opts.DirMode = mode
	}
}

// WithNameFunc replaces the file name generator.
//
// The default, FileName, has one-second resolution: two uploads of the same
// category within one second get the same name and the second replaces the
// first. Pass UniqueFileName to keep both.
func WithNameFunc(fn NameFunc) OptionFunc {
	return func(opts *Options) {
		opts.NameFunc = fn
	}
}

// WithClock sets the time source used for file names.
func WithClock(now func() time.Time) OptionFunc {
	return func(opts *Options) {
		opts.Clock = now
	}
}

// WithCatalogWorkers bounds how many files a catalog build reads at once.
// Values below 1 are treated as 1.
func WithCatalogWorkers(n int) OptionFunc {
	return func(opts *Options) {
		opts.CatalogWorkers = n
	}
}

// WithLogger sets the logger for upload and catalog events.
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithObserver installs a telemetry hook.
func WithObserver(o Observer) OptionFunc {
	return func(opts *Options) {
		opts.Observer = o
	}
}

func defaultOptions() *Options {
	return &Options{
		FileMode:       0644,
		DirMode:        0755,
		NameFunc:       FileName,
		Clock:          time.Now,
		CatalogWorkers: 4,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer:       nopObserver{},
	}
}
