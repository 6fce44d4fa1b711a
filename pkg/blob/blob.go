// Package blob stores uploaded files. S3 (or any S3-compatible service)
// backs production; Memory serves tests and local development.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob: not found")

// Object describes a stored blob.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Store is implemented by every backend.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey returns a fresh key under prefix that keeps name's extension.
func NewKey(prefix, name string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(name, `\`, "/"))))
	if len(ext) > 8 || strings.ContainsAny(ext, " /?#%") {
		ext = ""
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return uuid.NewString() + ext
	}
	return prefix + "/" + uuid.NewString() + ext
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("blob: invalid key %q", key)
	}
	return nil
}

// publicURL joins base and key; an empty base serves through the app.
func publicURL(base, key string) string {
	if base == "" {
		return "/blob/" + key
	}
	return strings.TrimRight(base, "/") + "/" + key
}

// ---------- memory ----------

// Memory keeps blobs in process memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
	base    string
}

type memObject struct {
	data        []byte
	contentType string
}

// NewMemory returns an empty store whose URLs are rooted at base.
func NewMemory(base string) *Memory {
	return &Memory{objects: make(map[string]memObject), base: base}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (Object, error) {
	if err := validKey(key); err != nil {
		return Object{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("blob: read %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return Object{}, fmt.Errorf("blob: %s: got %d bytes, want %d", key, len(data), size)
	}
	m.mu.Lock()
	m.objects[key] = memObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return Object{Key: key, URL: m.URL(key), ContentType: contentType, Size: int64(len(data))}, nil
}

func (m *Memory) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	m.mu.RLock()
	o, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, Object{}, ErrNotFound
	}
	obj := Object{Key: key, URL: m.URL(key), ContentType: o.contentType, Size: int64(len(o.data))}
	return io.NopCloser(bytes.NewReader(o.data)), obj, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) URL(key string) string { return publicURL(m.base, key) }

// Len reports how many blobs are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
