package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	apperrors "github.com/connectspace/connectspace-api/internal/errors"
)

var errStoreFull = apperrors.New("memory store write limit reached")

// MemoryStore keeps objects in a map. It is used by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	objects   map[string]Object
	urlPrefix string

	// FailAfter makes Put fail once this many objects have been stored; zero disables it
	FailAfter int
	puts      int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(urlPrefix string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object), urlPrefix: urlPrefix}
}

func (m *MemoryStore) Put(ctx context.Context, obj Object) (Reference, error) {
	if err := ctx.Err(); err != nil {
		return Reference{}, err
	}
	key, err := newKey(obj.Field, obj.Filename)
	if err != nil {
		return Reference{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAfter > 0 && m.puts >= m.FailAfter {
		return Reference{}, errStoreFull
	}
	m.puts++

	data := bytes.Clone(obj.Data)
	m.objects[key] = Object{Field: obj.Field, Filename: obj.Filename, ContentType: obj.ContentType, Data: data}
	return Reference{
		Key:         key,
		URL:         m.urlPrefix + "/" + key,
		Field:       obj.Field,
		Filename:    obj.Filename,
		ContentType: obj.ContentType,
		Size:        int64(len(data)),
	}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, notFound(key)
	}
	return io.NopCloser(bytes.NewReader(obj.Data)), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return notFound(key)
	}
	delete(m.objects, key)
	return nil
}

// Len returns the number of stored objects
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
