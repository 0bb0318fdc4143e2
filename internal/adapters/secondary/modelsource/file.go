package modelsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"dropout-risk-service/internal/core/domain"
)

// File reads the model artifact from local disk on every fetch.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", domain.ErrModelSourceUnavailable, f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return data, nil
}

func (f *File) Describe() string {
	return "file:" + f.path
}
