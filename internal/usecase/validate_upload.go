package usecase

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Harsh-BH/chroma/internal/domain"
)

const DefaultMaxUploadBytes = 10 << 20 // 10 MB

// DefaultAllowedExtensions mirrors what the colorization model accepts.
var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"}

// UploadPolicy validates uploads before they are submitted.
type UploadPolicy struct {
	MaxBytes          int64
	AllowedExtensions []string
}

// DefaultUploadPolicy returns the 10 MB image policy.
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxBytes:          DefaultMaxUploadBytes,
		AllowedExtensions: DefaultAllowedExtensions,
	}
}

// Validate returns an error wrapping domain.ErrValidation if meta is not acceptable.
func (p UploadPolicy) Validate(meta domain.FileMeta) error {
	if meta.Size <= 0 {
		return domain.ErrEmptyFile
	}
	if !strings.HasPrefix(strings.ToLower(meta.ContentType), "image/") {
		return fmt.Errorf("%w (got %q)", domain.ErrNotAnImage, meta.ContentType)
	}
	if p.MaxBytes > 0 && meta.Size > p.MaxBytes {
		return fmt.Errorf("%w (max %d bytes)", domain.ErrPayloadTooLarge, p.MaxBytes)
	}
	if len(p.AllowedExtensions) > 0 {
		ext := strings.ToLower(filepath.Ext(meta.Filename))
		for _, allowed := range p.AllowedExtensions {
			if ext == strings.ToLower(allowed) {
				return nil
			}
		}
		return fmt.Errorf("%w %q", domain.ErrUnsupportedExtension, ext)
	}
	return nil
}
