package imagestore

// Category is the storage bucket an upload is filed under. It is derived
// from the declared MIME type and decides both the subdirectory and the
// file extension.
type Category int

const (
	Unknown Category = iota
	JPEG
	PNG
	GIF
	WEBP
)

// Categories lists every category, the catch-all last.
var Categories = []Category{JPEG, PNG, GIF, WEBP, Unknown}

// Classify maps a declared MIME type to its category. Only exact matches
// are recognised; anything else, including the empty string, is Unknown.
func Classify(declaredType string) Category {
	switch declaredType {
	case "image/jpeg":
		return JPEG
	case "image/png":
		return PNG
	case "image/gif":
		return GIF
	case "image/webp":
		return WEBP
	default:
		return Unknown
	}
}

// Dir returns the name of the category's subdirectory under the store root.
func (c Category) Dir() string {
	switch c {
	case JPEG:
		return "JPG"
	case PNG:
		return "PNG"
	case GIF:
		return "GIF"
	case WEBP:
		return "WEBP"
	default:
		return "Undefined"
	}
}

// Extension returns the lowercase file extension, without the dot.
func (c Category) Extension() string {
	switch c {
	case JPEG:
		return "jpg"
	case PNG:
		return "png"
	case GIF:
		return "gif"
	case WEBP:
		return "webp"
	default:
		return "bin"
	}
}

func (c Category) String() string {
	switch c {
	case JPEG:
		return "JPEG"
	case PNG:
		return "PNG"
	case GIF:
		return "GIF"
	case WEBP:
		return "WEBP"
	default:
		return "UNKNOWN"
	}
}
