package imagestore

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the one-second resolution stamp used in file names.
const TimestampLayout = "2006-01-02_15-04-05"

// FileName returns "<timestamp>.<ext>" for an upload of category c at t,
// stamped in UTC.
//
// Names are not unique. Uploads of the same category within the same second
// collide and the later write replaces the earlier file.
func FileName(c Category, t time.Time) string {
	return t.UTC().Format(TimestampLayout) + "." + c.Extension()
}

// UniqueFileName is a NameFunc that appends a random suffix to the
// timestamp so uploads in the same second do not overwrite each other:
// "2006-01-02_15-04-05_1b4e28ba.jpg".
func UniqueFileName(c Category, t time.Time) string {
	suffix := uuid.NewString()[:8]
	return t.UTC().Format(TimestampLayout) + "_" + suffix + "." + c.Extension()
}
