package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/templui/claimguard/internal/storage"
	"github.com/templui/claimguard/internal/validation"
)

// Upload is one submitted file held in memory.
type Upload struct {
	Filename string
	Data     []byte
}

func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

type FileService struct {
	storage     storage.Storage
	constraints validation.FileConstraints
}

func NewFileService(storage storage.Storage, maxUploadSize int64) *FileService {
	return &FileService{
		storage:     storage,
		constraints: validation.ImageConstraints(maxUploadSize),
	}
}

// Validate checks every upload before anything is written.
func (s *FileService) Validate(uploads []Upload) error {
	for _, u := range uploads {
		err := validation.ValidateFile(u.Filename, u.Size(), s.constraints)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveImages writes uploads under folder as <uuid><ext> and returns their
// storage paths in submission order. On failure the files already written
// are removed.
func (s *FileService) SaveImages(ctx context.Context, folder string, uploads []Upload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, u := range uploads {
		ext := strings.ToLower(filepath.Ext(u.Filename))
		storagePath := path.Join(folder, uuid.New().String()+ext)

		err := s.storage.Save(ctx, storagePath, bytes.NewReader(u.Data))
		if err != nil {
			s.DeleteAll(context.WithoutCancel(ctx), paths)
			return nil, fmt.Errorf("failed to save file: %w", err)
		}
		paths = append(paths, storagePath)
	}
	return paths, nil
}

// DeleteAll removes files best effort. Failures are logged.
func (s *FileService) DeleteAll(ctx context.Context, paths []string) {
	for _, p := range paths {
		err := s.storage.Delete(ctx, p)
		if err != nil {
			slog.Warn("failed to delete file from storage", "storage_path", p, "error", err)
		}
	}
}

func (s *FileService) URL(storagePath string) string {
	return s.storage.URL(storagePath)
}
