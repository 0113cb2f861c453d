package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/welzyne/courier-system/internal/core/domain"
	"github.com/welzyne/courier-system/internal/core/ports"
)

// URLPrefix is the public path the upload directory is served under.
const URLPrefix = "/uploads/"

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// DiskPhotoStore implements ports.PhotoStore on a local directory.
type DiskPhotoStore struct {
	dir     string
	maxSize int64
}

// NewDiskPhotoStore creates dir when missing. maxSize bounds a single upload.
func NewDiskPhotoStore(dir string, maxSize int64) (*DiskPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskPhotoStore{dir: dir, maxSize: maxSize}, nil
}

// Save writes the photo under a random name and returns its public path.
func (s *DiskPhotoStore) Save(_ context.Context, photo ports.Photo) (string, error) {
	ext := strings.ToLower(filepath.Ext(photo.Filename))
	if !allowedExtensions[ext] {
		return "", domain.NewValidationError("unsupported image type %q", ext)
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create photo: %w", err)
	}

	src := photo.Content
	if s.maxSize > 0 {
		src = io.LimitReader(photo.Content, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = domain.NewValidationError("photo exceeds %d bytes", s.maxSize)
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", err
	}
	return URLPrefix + name, nil
}

// Remove deletes the file behind a URL previously returned by Save. URLs
// outside the upload prefix are ignored.
func (s *DiskPhotoStore) Remove(_ context.Context, rawURL string) error {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if !strings.HasPrefix(p, URLPrefix) {
		return nil
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
