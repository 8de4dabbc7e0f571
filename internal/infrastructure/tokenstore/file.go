// Package tokenstore provides the local ports.TokenStore implementations and
// selects one from configuration.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dataflow/console/internal/core/ports"
)

// File keeps the token in a small JSON document on disk, keyed by
// ports.TokenKey. Writes go through a temp file and rename so a crash never
// leaves a half-written session behind.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", false, err
	}
	token, ok := doc[ports.TokenKey]
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (f *File) Set(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		doc = map[string]string{}
	}
	doc[ports.TokenKey] = token
	return f.write(doc)
}

func (f *File) Remove(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		// An unreadable session file holds no usable token; drop it.
		if rmErr := os.Remove(f.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("token remove: %w", rmErr)
		}
		return nil
	}
	if _, ok := doc[ports.TokenKey]; !ok {
		return nil
	}
	delete(doc, ports.TokenKey)
	if len(doc) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("token remove: %w", err)
		}
		return nil
	}
	return f.write(doc)
}

func (f *File) read() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("token read: %w", err)
	}
	doc := map[string]string{}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("token decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *File) write(doc map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("token dir: %w", err)
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("token encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("token temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("token chmod: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("token write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("token close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("token rename: %w", err)
	}
	return nil
}
