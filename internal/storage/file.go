package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileBackend persists all keys as one JSON object on disk
type FileBackend struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// NewFileBackend loads path if it exists; a missing file starts empty
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("file backend requires storage.path")
	}
	b := &FileBackend{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return b, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &b.values); err != nil {
			return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
		}
	}
	return b, nil
}

func (b *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *FileBackend) Set(ctx context.Context, key, value string) error {
	return b.SetMany(ctx, map[string]string{key: value})
}

func (b *FileBackend) SetMany(_ context.Context, entries map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make(map[string]string, len(b.values)+len(entries))
	for k, v := range b.values {
		next[k] = v
	}
	for k, v := range entries {
		next[k] = v
	}
	if err := b.flush(next); err != nil {
		return err
	}
	b.values = next
	return nil
}

func (b *FileBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.values[key]; !ok {
		return nil
	}
	next := make(map[string]string, len(b.values))
	for k, v := range b.values {
		if k != key {
			next[k] = v
		}
	}
	if err := b.flush(next); err != nil {
		return err
	}
	b.values = next
	return nil
}

func (b *FileBackend) Keys(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *FileBackend) Close() error { return nil }

// flush writes via a temp file and rename so a crash never leaves half a file
func (b *FileBackend) flush(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store file: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
