// Package export defines where finished composites go.
//
// A Sink only ever receives fully encoded output; callers render and encode
// first and hand over the bytes once nothing can fail any more.
package export

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/menta2k/photo-frame/internal/utils"
)

// Sink stores encoded bytes and returns a URL for them.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// FileSink writes composites into a local directory.
type FileSink struct {
	Dir string
}

// NewFileSink returns a FileSink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Put writes data to Dir/name and returns a file:// URL. The file is written
// to a temporary name first and renamed, so readers never see a partial file.
func (s *FileSink) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = utils.SanitizeFilename(filepath.Base(name))
	if name == "" {
		return "", fmt.Errorf("empty output name")
	}
	if err := utils.EnsureDir(s.Dir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.Dir, name)
	tmp, err := os.CreateTemp(s.Dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move output file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
