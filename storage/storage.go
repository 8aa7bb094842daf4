// Package storage keeps accepted upload bytes and hands back references to them.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/connectspace/connectspace-api/internal/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Object is one accepted file on its way into a store
type Object struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Reference points at a stored object
type Reference struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Field       string `json:"field"`
	Filename    string `json:"originalName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Store is the storage collaborator behind the upload routes.
// Get and Delete return errors.ErrNotFound for unknown keys.
type Store interface {
	Put(ctx context.Context, obj Object) (Reference, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// PutAll stores objects in order. If any Put fails, the objects already stored are deleted
// so a batch is kept whole or not at all.
func PutAll(ctx context.Context, store Store, objects []Object) ([]Reference, error) {
	refs := make([]Reference, 0, len(objects))
	for _, obj := range objects {
		ref, err := store.Put(ctx, obj)
		if err != nil {
			for _, stored := range refs {
				// ctx may already be cancelled, the cleanup must still run
				if delErr := store.Delete(context.WithoutCancel(ctx), stored.Key); delErr != nil {
					log.Err(delErr).Str("key", stored.Key).Msg("Failed to remove stored object after batch failure")
				}
			}
			return nil, apperrors.Wrapf(err, "[storage PutAll] store %q", obj.Filename)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// newKey names an object <field>/<uuid><ext>, keeping only the lower-cased extension of the client's filename
func newKey(field, filename string) (string, error) {
	if !validSegment(field) {
		return "", apperrors.NewValidationError("field", "invalid storage field")
	}
	return field + "/" + uuid.New().String() + strings.ToLower(filepath.Ext(filepath.Base(filename))), nil
}

// validKey accepts only keys of the form <field>/<name> produced by newKey
func validKey(key string) bool {
	field, name, ok := strings.Cut(key, "/")
	return ok && validSegment(field) && validSegment(name)
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && filepath.IsLocal(s)
}

func notFound(key string) error {
	return apperrors.Wrapf(apperrors.ErrNotFound, "object %q", key)
}
