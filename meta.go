package imagestore

import (
	"encoding/json"
	"time"
)

// UploadRequest is a single image submitted for storage.
type UploadRequest struct {
	Payload      []byte
	DeclaredType string
}

// StoredFile describes an image after a successful upload.
type StoredFile struct {
	RelativePath string    `json:"relativePath"` // Path below the store root, slash separated
	Category     Category  `json:"-"`
	Size         int64     `json:"size"`
	Sha256       string    `json:"sha256"`
	ModifiedAt   time.Time `json:"modifiedAt"`
}

// CatalogEntry is the transport form of a stored image.
type CatalogEntry struct {
	FileName       string // Base name including the extension
	Extension      string // Without the leading dot
	EncodedPayload string // Standard base64, no line wrapping
}

// MarshalJSON encodes the entry as [fileName, extension, payload].
func (e CatalogEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{e.FileName, e.Extension, e.EncodedPayload})
}

// UnmarshalJSON decodes the three-element array form.
func (e *CatalogEntry) UnmarshalJSON(data []byte) error {
	var parts [3]string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	e.FileName, e.Extension, e.EncodedPayload = parts[0], parts[1], parts[2]
	return nil
}
