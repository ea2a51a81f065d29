package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider writes files below a base directory. Files are published
// under baseURL by the API's static file route.
type LocalProvider struct {
	basePath string
	baseURL  string
}

func NewLocalProvider(basePath, baseURL string) (*LocalProvider, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalProvider{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (p *LocalProvider) path(key string) string {
	return filepath.Join(p.basePath, filepath.FromSlash(key))
}

// Put writes through a temp file and renames it so readers never see a
// partial report.
func (p *LocalProvider) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key = cleanKey(key)
	if key == "" {
		return nil, errors.New("empty key")
	}

	dst := p.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to move file into place: %w", err)
	}

	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	return &Object{Key: key, URL: p.URL(key), Size: written, ContentType: contentType}, nil
}

func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	if err := os.Remove(p.path(cleanKey(key))); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file not found: %s", key)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (p *LocalProvider) URL(key string) string {
	return p.baseURL + "/" + cleanKey(key)
}

func (p *LocalProvider) Name() string {
	return "local"
}
