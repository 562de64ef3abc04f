package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"faceswapd/internal/domain"
	"faceswapd/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.ArtifactStore = (*FileStore)(nil)

// allowedExts is the ingestion allow-list: the image types the transformer
// accepts plus the video containers it can frame-process.
var allowedExts = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "webp": {}, "gif": {},
	"mp4": {}, "mov": {}, "webm": {},
}

// FileStore persists artifacts on the local filesystem under date-partitioned
// directories: <root>/<YYYY-MM-DD>/<uuid>.<ext>. Files are immutable; results
// are always written under a new name, never over an input.
type FileStore struct {
	root string
	now  func() time.Time
}

func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure root: %w", err)
	}
	return &FileStore{root: root, now: time.Now}, nil
}

// WithClock replaces the time source, for tests.
func (s *FileStore) WithClock(now func() time.Time) *FileStore {
	s.now = now
	return s
}

func (s *FileStore) Root() string { return s.root }

func (s *FileStore) Put(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if _, ok := allowedExts[ext]; !ok {
		return "", fmt.Errorf("%w: .%s", domain.ErrUnsupportedType, ext)
	}
	day := s.now().UTC().Format("2006-01-02")
	dir := filepath.Join(s.root, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure partition: %w", err)
	}
	name := fmt.Sprintf("%s.%s", uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write artifact: %w", err)
	}
	return day + "/" + name, nil
}

func (s *FileStore) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.Path(ref)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read artifact: %w", err)
	}
	return b, nil
}

func (s *FileStore) Stat(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.Path(ref)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("storage: stat artifact: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("storage: delete artifact: %w", err)
	}
	return nil
}

// Path resolves a ref to an absolute path, rejecting keys that would escape
// the storage root.
func (s *FileStore) Path(ref string) (string, error) {
	clean, err := sanitizeRef(ref)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *FileStore) Partitions() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list partitions: %w", err)
	}
	var days []string
	for _, e := range entries {
		if e.IsDir() {
			days = append(days, e.Name())
		}
	}
	return days, nil
}

func (s *FileStore) RemovePartition(day string) error {
	clean, err := sanitizeRef(day)
	if err != nil {
		return err
	}
	if strings.Contains(clean, "/") {
		return fmt.Errorf("%w: partition name %q", domain.ErrInvalidRequest, day)
	}
	if err := os.RemoveAll(filepath.Join(s.root, clean)); err != nil {
		return fmt.Errorf("storage: remove partition: %w", err)
	}
	return nil
}

// sanitizeRef normalizes a ref and prevents escaping the storage root.
func sanitizeRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty artifact ref", domain.ErrInvalidRequest)
	}
	ref = strings.ReplaceAll(ref, "\\", "/")
	ref = strings.TrimPrefix(ref, "./")
	ref = strings.TrimLeft(ref, "/")
	cleaned := filepath.ToSlash(filepath.Clean(ref))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: artifact ref %q", domain.ErrInvalidRequest, ref)
	}
	return cleaned, nil
}
