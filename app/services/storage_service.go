// Package services provides external service integrations and technical concerns like tokens and delivery channels
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mercat-labs/loyalty-platform/config"
)

// Upload validation errors
var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrFileTooLarge         = errors.New("file exceeds maximum size")
	ErrEmptyFile            = errors.New("file is empty")
)

// StorageService persists uploaded ticket images under content-addressed
// paths and validates extension and size ceilings.
type StorageService interface {
	Validate(filename string, size int64) error
	Store(filename string, data []byte) (ref string, storedName string, err error)
	Read(ref string) ([]byte, error)
}

// StorageServiceImpl implements StorageService on the local filesystem
type StorageServiceImpl struct {
	config *config.UploadConfig
}

// NewStorageService creates a new storage service instance
func NewStorageService(cfg *config.UploadConfig) StorageService {
	return &StorageServiceImpl{config: cfg}
}

// Validate checks the file extension and size against the configured limits
func (s *StorageServiceImpl) Validate(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, candidate := range s.config.AllowedExtensions {
		if ext == candidate {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	if size <= 0 {
		return ErrEmptyFile
	}
	if size > s.config.MaxFileSize {
		return fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.config.MaxFileSize)
	}

	return nil
}

// Store writes the bytes under a content-addressed path derived from their
// digest. Re-uploading identical bytes lands on the same path.
func (s *StorageServiceImpl) Store(filename string, data []byte) (string, string, error) {
	digest := sha256.Sum256(data)
	sum := hex.EncodeToString(digest[:])
	ext := strings.ToLower(filepath.Ext(filename))

	dir := filepath.Join(s.config.Dir, sum[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	storedName := sum + ext
	ref := filepath.Join(dir, storedName)
	if _, err := os.Stat(ref); err == nil {
		return ref, storedName, nil
	}

	if err := os.WriteFile(ref, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write uploaded file: %w", err)
	}

	return ref, storedName, nil
}

// Read loads the bytes of a stored file
func (s *StorageServiceImpl) Read(ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}

	return data, nil
}
