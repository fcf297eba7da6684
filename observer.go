package imagestore

import "time"

// Observer captures telemetry for store operations.
type Observer interface {
	RecordUpload(c Category, duration time.Duration, sizeBytes int64, err error)
	RecordCatalog(duration time.Duration, entries int, err error)
}

type nopObserver struct{}

func (nopObserver) RecordUpload(Category, time.Duration, int64, error) {}

func (nopObserver) RecordCatalog(time.Duration, int, error) {}
