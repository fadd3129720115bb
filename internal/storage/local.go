package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Domenick1991/partnerbooking/internal/domain"
)

// FileStore keeps uploaded proofs, credential files and generated invoices.
type FileStore interface {
	Save(ctx context.Context, dir, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	URL(ref string) string
	// Remove deletes a stored file. Removing a missing file is not an error.
	Remove(ctx context.Context, ref string) error
}

// LocalStore writes files below a root directory. References are slash separated paths relative to root.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	ref, err := cleanRef(path.Join(dir, name))
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("store file: %w", err)
	}
	return ref, nil
}

func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	clean, err := cleanRef(ref)
	if err != nil {
		return nil, domain.ErrFileNotFound
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Remove(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanRef(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(ref string) string {
	return s.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func cleanRef(ref string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(ref, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.HasPrefix(ref, "/") || strings.Contains(ref, "..") {
		return "", domain.NewValidationError("file", "invalid file reference")
	}
	return clean, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ FileStore = (*LocalStore)(nil)
