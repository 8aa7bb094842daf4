package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/connectspace/connectspace-api/internal/errors"
)

// DiskStore writes objects under a root folder, one sub folder per field
type DiskStore struct {
	root      string
	urlPrefix string
}

var _ Store = (*DiskStore)(nil)

// NewDiskStore creates root if needed. urlPrefix is the public path objects are served under, e.g. /uploads.
func NewDiskStore(root, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperrors.Wrapf(err, "[storage NewDiskStore] create %s", root)
	}
	return &DiskStore{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (d *DiskStore) Put(ctx context.Context, obj Object) (Reference, error) {
	if err := ctx.Err(); err != nil {
		return Reference{}, err
	}

	key, err := newKey(obj.Field, obj.Filename)
	if err != nil {
		return Reference{}, err
	}

	dir := filepath.Join(d.root, obj.Field)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Reference{}, apperrors.Wrapf(err, "[DiskStore Put] create %s", dir)
	}

	// write to a temp file first so a half written object is never visible under its key
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return Reference{}, apperrors.Wrapf(err, "[DiskStore Put] create temp file")
	}
	if _, err := tmp.Write(obj.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Reference{}, apperrors.Wrapf(err, "[DiskStore Put] write %s", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Reference{}, apperrors.Wrapf(err, "[DiskStore Put] close %s", key)
	}
	if err := os.Rename(tmp.Name(), d.path(key)); err != nil {
		os.Remove(tmp.Name())
		return Reference{}, apperrors.Wrapf(err, "[DiskStore Put] rename %s", key)
	}

	return Reference{
		Key:         key,
		URL:         d.urlPrefix + "/" + key,
		Field:       obj.Field,
		Filename:    obj.Filename,
		ContentType: obj.ContentType,
		Size:        int64(len(obj.Data)),
	}, nil
}

func (d *DiskStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, notFound(key)
	}
	f, err := os.Open(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[DiskStore Get] open %s", key)
	}
	return f, nil
}

func (d *DiskStore) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return notFound(key)
	}
	err := os.Remove(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(key)
	}
	if err != nil {
		return apperrors.Wrapf(err, "[DiskStore Delete] remove %s", key)
	}
	return nil
}

func (d *DiskStore) path(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}
