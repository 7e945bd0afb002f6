package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload is a raw image body received by the upload endpoint.
type Upload struct {
	Data        []byte
	ContentType string
}

// UploadStore persists uploaded images.
//
// Implementations must be safe for concurrent use.
type UploadStore interface {
	// Save stores the upload under a fresh name and returns that name.
	Save(ctx context.Context, u Upload) (string, error)

	// Get returns the bytes stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
}

// ExtensionForContentType maps an image content type to a file extension
// by substring: png, jpg (jpeg or jpg), gif, and bin for everything else.
// Loose headers such as "png" or "image/x-png" still map to png.
func ExtensionForContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	case strings.Contains(ct, "gif"):
		return "gif"
	default:
		return "bin"
	}
}

// NewUploadName builds upload_<unixmillis>_<short-id>.<ext>. The random
// suffix keeps names unique when two uploads land in the same millisecond.
func NewUploadName(now time.Time, contentType string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("upload_%d_%s.%s", now.UnixMilli(), id, ExtensionForContentType(contentType))
}

// ValidateName rejects names that could escape the upload directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
