// Package media stores product images in blob storage.
package media

import (
	"context"
	"io"
	"strings"
)

const MaxImageBytes = 5 << 20

// extensions maps the accepted image types to their key suffix.
var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Extension reports the key suffix for contentType and whether the type is accepted.
func Extension(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := extensions[ct]
	return ext, ok
}

// ContentType is the canonical type stored for an extension returned by Extension.
func ContentType(ext string) string {
	for ct, e := range extensions {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

const keyPrefix = "products/"

// ValidKey accepts only keys this package could have produced.
func ValidKey(key string) bool {
	if !strings.HasPrefix(key, keyPrefix) || strings.Contains(key, "..") || strings.Contains(key, "//") {
		return false
	}
	parts := strings.Split(strings.TrimPrefix(key, keyPrefix), "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

type UploadInput struct {
	ProductID   string
	Filename    string
	ContentType string
	Body        io.Reader
}

type Upload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

type UseCase interface {
	Upload(ctx context.Context, input *UploadInput) (*Upload, error)
	Delete(ctx context.Context, key string) error
}
