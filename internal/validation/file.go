package validation

import (
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultMaxImageSize is the upload limit when none is configured.
const DefaultMaxImageSize int64 = 10 << 20

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// ImageConstraints returns the rules for claim images with the given size limit.
func ImageConstraints(maxSize int64) FileConstraints {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	return FileConstraints{
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
		},
		MaxSize: maxSize,
	}
}

// ValidateFile checks the declared filename's extension and the payload size.
// Content is not inspected; undecodable images are the model's concern.
func ValidateFile(filename string, size int64, c FileConstraints) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !c.AllowedExtensions[ext] {
		if ext == "" {
			return fieldError("images", "file %q has no extension", filename)
		}
		return fieldError("images", "invalid file extension: %s", ext)
	}

	if size > c.MaxSize {
		return fieldError("images", "file %q too large: maximum size is %s", filename, humanize.IBytes(uint64(c.MaxSize)))
	}

	return nil
}
