package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Revixit-Net/discord-bot/internal/core/domain"
	"github.com/Revixit-Net/discord-bot/internal/core/port"
)

// FilesystemStore writes cosmetic assets into the directories the launcher
// web tier serves. Files land in a temp location first and are renamed into
// place so readers never observe a partial write.
type FilesystemStore struct {
	dirs    map[domain.AssetKind]string
	tempDir string
	logger  *zap.Logger
}

// NewFilesystemStore constructs a store rooted at the per-kind directories.
// When tempDir is empty, each kind's own directory hosts the temp file so
// the final rename stays on one filesystem.
func NewFilesystemStore(skinsDir, cloaksDir, tempDir string, logger *zap.Logger) (*FilesystemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dirs := map[domain.AssetKind]string{
		domain.AssetSkin:  skinsDir,
		domain.AssetCloak: cloaksDir,
	}
	for kind, dir := range dirs {
		if dir == "" {
			return nil, fmt.Errorf("no directory configured for %s assets", kind)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", kind, err)
		}
	}
	if tempDir != "" {
		if err := os.MkdirAll(tempDir, 0o755); err != nil {
			return nil, fmt.Errorf("create temp directory: %w", err)
		}
	}

	return &FilesystemStore{dirs: dirs, tempDir: tempDir, logger: logger}, nil
}

// Put writes the asset file atomically into the kind's directory.
func (s *FilesystemStore) Put(_ context.Context, kind domain.AssetKind, filename string, data []byte) error {
	dir, ok := s.dirs[kind]
	if !ok {
		return fmt.Errorf("unknown asset kind %q", kind)
	}

	// The usecase derives the filename from the account username; reject
	// anything that would escape the target directory anyway.
	if filepath.Base(filename) != filename {
		return fmt.Errorf("invalid asset filename %q", filename)
	}

	tempDir := s.tempDir
	if tempDir == "" {
		tempDir = dir
	}

	tempFile, err := os.CreateTemp(tempDir, filename+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	target := filepath.Join(dir, filename)
	if err := os.Rename(tempPath, target); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("move asset into place: %w", err)
	}

	s.logger.Debug("asset file stored",
		zap.String("kind", string(kind)),
		zap.String("path", target),
	)

	return nil
}

var _ port.AssetStore = (*FilesystemStore)(nil)
