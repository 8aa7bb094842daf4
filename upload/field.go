// Package upload validates multipart file uploads before anything reaches storage.
package upload

import (
	"mime"
	"path/filepath"
	"slices"
	"strings"
)

// Field is the closed set of multipart field names that may carry files
type Field int

const (
	FieldImages Field = iota + 1
	FieldDocuments
)

const (
	ReasonImages          = "Only image files (JPEG, JPG, PNG, GIF, WebP) are allowed for images"
	ReasonDocuments       = "Only image files (JPEG, JPG, PNG) and PDF files are allowed for documents"
	ReasonUnexpectedField = "Unexpected field name"
)

var (
	imagesPolicy = Policy{
		Extensions: []string{"jpeg", "jpg", "png", "gif", "webp"},
		MIMETypes:  []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"},
		Reason:     ReasonImages,
	}
	documentsPolicy = Policy{
		Extensions: []string{"jpeg", "jpg", "png", "pdf"},
		MIMETypes:  []string{"image/jpeg", "image/jpg", "image/png", "application/pdf"},
		Reason:     ReasonDocuments,
	}
)

// AllFields lists every field in declaration order
var AllFields = []Field{FieldImages, FieldDocuments}

// ParseField maps a multipart field name onto a Field. Names are matched exactly.
func ParseField(name string) (Field, error) {
	switch name {
	case "images":
		return FieldImages, nil
	case "documents":
		return FieldDocuments, nil
	default:
		return 0, &RejectionError{Kind: UnexpectedField, Reason: ReasonUnexpectedField}
	}
}

func (f Field) String() string {
	switch f {
	case FieldImages:
		return "images"
	case FieldDocuments:
		return "documents"
	default:
		return "unknown"
	}
}

// Policy returns the allow-lists for the field
func (f Field) Policy() Policy {
	switch f {
	case FieldImages:
		return imagesPolicy
	case FieldDocuments:
		return documentsPolicy
	default:
		return Policy{Reason: ReasonUnexpectedField}
	}
}

// Policy pairs an extension allow-list with a MIME allow-list. A file must pass both.
type Policy struct {
	Extensions []string
	MIMETypes  []string
	Reason     string
}

// Allows reports whether filename and declared mimeType both fall inside the policy
func (p Policy) Allows(filename, mimeType string) bool {
	ext := Extension(filename)
	if ext == "" || !slices.Contains(p.Extensions, ext) {
		return false
	}
	return slices.Contains(p.MIMETypes, NormalizeMIME(mimeType))
}

// Extension returns the lower-cased extension of filename without the dot
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// NormalizeMIME strips parameters and lower-cases a declared content type
func NormalizeMIME(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType, _, _ = strings.Cut(mimeType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
