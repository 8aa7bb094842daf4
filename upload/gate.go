package upload

import (
	"fmt"
	"math"
)

const (
	DefaultMaxFiles    = 10
	DefaultMaxFileSize = 5 << 20

	// multipart headers and boundaries on top of the file payloads
	multipartOverhead = 1 << 20
)

// File is one file part of an upload request
type File struct {
	FieldName string
	Filename  string
	MIMEType  string
	Size      int64
	Data      []byte
}

// Decision is the verdict for a single file
type Decision struct {
	Accept bool
	Reason string
}

type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

func DefaultLimits() Limits {
	return Limits{MaxFiles: DefaultMaxFiles, MaxFileSize: DefaultMaxFileSize}
}

func (l Limits) withDefaults() Limits {
	if l.MaxFiles <= 0 {
		l.MaxFiles = DefaultMaxFiles
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = DefaultMaxFileSize
	}
	return l
}

// RequestCeiling is the largest request body a batch within the limits can need.
// Limits too large to multiply out are capped at math.MaxInt64.
func (l Limits) RequestCeiling() int64 {
	l = l.withDefaults()
	if l.MaxFileSize > (math.MaxInt64-multipartOverhead)/int64(l.MaxFiles) {
		return math.MaxInt64
	}
	return int64(l.MaxFiles)*l.MaxFileSize + multipartOverhead
}

// RequestTooLarge is the rejection for a request body that cannot fit under RequestCeiling
func (l Limits) RequestTooLarge() error {
	return l.withDefaults().fileTooLarge("")
}

func (l Limits) tooManyFiles() *RejectionError {
	return &RejectionError{
		Kind:   TooManyFiles,
		Reason: fmt.Sprintf("Too many files. Maximum is %d files.", l.MaxFiles),
	}
}

func (l Limits) fileTooLarge(filename string) *RejectionError {
	return &RejectionError{
		Kind:     FileTooLarge,
		Reason:   fmt.Sprintf("File too large. Maximum size is %s.", formatSize(l.MaxFileSize)),
		Filename: filename,
	}
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// Classify decides a single file on its field name, extension and declared MIME type
func Classify(file File) Decision {
	field, err := ParseField(file.FieldName)
	if err != nil {
		return Decision{Reason: ReasonUnexpectedField}
	}
	policy := field.Policy()
	if !policy.Allows(file.Filename, file.MIMEType) {
		return Decision{Reason: policy.Reason}
	}
	return Decision{Accept: true}
}

// Gate applies batch limits and per-file classification.
// A Gate is immutable and safe for concurrent use.
type Gate struct {
	limits  Limits
	allowed map[Field]bool
}

// NewGate creates a gate accepting every field. Zero limits fall back to the defaults.
func NewGate(limits Limits) *Gate {
	g := &Gate{limits: limits.withDefaults(), allowed: make(map[Field]bool, len(AllFields))}
	for _, f := range AllFields {
		g.allowed[f] = true
	}
	return g
}

// Allow returns a copy of the gate that only accepts the given fields
func (g *Gate) Allow(fields ...Field) *Gate {
	restricted := &Gate{limits: g.limits, allowed: make(map[Field]bool, len(fields))}
	for _, f := range fields {
		restricted.allowed[f] = true
	}
	return restricted
}

func (g *Gate) Limits() Limits {
	return g.limits
}

// Fields lists the fields this gate accepts
func (g *Gate) Fields() []Field {
	fields := make([]Field, 0, len(g.allowed))
	for _, f := range AllFields {
		if g.allowed[f] {
			fields = append(fields, f)
		}
	}
	return fields
}

// CheckLimits rejects the whole batch when it has too many files or any file is too large.
// The file count is checked first.
func (g *Gate) CheckLimits(files []File) error {
	if len(files) > g.limits.MaxFiles {
		return g.limits.tooManyFiles()
	}
	for _, f := range files {
		if f.size() > g.limits.MaxFileSize {
			return g.limits.fileTooLarge(f.Filename)
		}
	}
	return nil
}

// Validate checks the batch limits and then every file. The first rejection rejects the batch.
func (g *Gate) Validate(files []File) error {
	if err := g.CheckLimits(files); err != nil {
		return err
	}

	for _, f := range files {
		field, err := ParseField(f.FieldName)
		if err != nil || !g.allowed[field] {
			return &RejectionError{Kind: UnexpectedField, Reason: ReasonUnexpectedField, Filename: f.Filename}
		}
		if decision := Classify(f); !decision.Accept {
			return &RejectionError{Kind: UnsupportedFileType, Reason: decision.Reason, Filename: f.Filename}
		}
	}
	return nil
}

func (f File) size() int64 {
	if f.Data != nil && int64(len(f.Data)) > f.Size {
		return int64(len(f.Data))
	}
	return f.Size
}
