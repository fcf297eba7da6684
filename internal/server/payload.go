package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/alexjoedt/imagestore"
)

// ImageBytes accepts an image payload either as a JSON array of byte
// values or as a standard base64 string.
type ImageBytes []byte

func (b *ImageBytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("image_bytes: invalid base64: %w", err)
		}
		*b = decoded
		return nil
	}

	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("image_bytes: expected byte array or base64 string: %w", err)
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("image_bytes[%d]: %d is not a byte", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

type uploadRequest struct {
	ImageBytes ImageBytes `json:"image_bytes"`
	ImageType  *string    `json:"image_type"`
}

type catalogResponse struct {
	Body []imagestore.CatalogEntry `json:"body"`
}

type errorResponse struct {
	Error string `json:"error"`
}
