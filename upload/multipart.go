package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// maxValueSize bounds a non-file form value
const maxValueSize = 64 << 10

// Batch is the decoded content of one multipart upload request
type Batch struct {
	Files  []File
	Values map[string][]string
}

// ReadMultipart streams the parts of r into a Batch.
// Each file read stops at MaxFileSize+1 bytes so an oversized file is never held in memory,
// and reading stops as soon as the file count exceeds MaxFiles. Limit violations are reported
// in the same order Gate.CheckLimits uses: file count first, then file size.
func ReadMultipart(r *multipart.Reader, limits Limits) (*Batch, error) {
	limits = limits.withDefaults()
	batch := &Batch{Values: map[string][]string{}}

	var (
		fileCount int
		oversized *RejectionError
	)

	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err, limits)
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}

		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxValueSize))
			part.Close()
			if err != nil {
				return nil, readError(err, limits)
			}
			batch.Values[name] = append(batch.Values[name], string(value))
			continue
		}

		fileCount++
		if fileCount > limits.MaxFiles {
			part.Close()
			return nil, limits.tooManyFiles()
		}

		data, err := io.ReadAll(io.LimitReader(part, limits.MaxFileSize+1))
		if err != nil {
			part.Close()
			return nil, readError(err, limits)
		}
		if int64(len(data)) > limits.MaxFileSize {
			if oversized == nil {
				oversized = limits.fileTooLarge(part.FileName())
			}
			// drain so the next part can be counted
			if _, err := io.Copy(io.Discard, part); err != nil {
				part.Close()
				return nil, readError(err, limits)
			}
			part.Close()
			continue
		}
		part.Close()

		if oversized != nil {
			continue
		}
		batch.Files = append(batch.Files, File{
			FieldName: name,
			Filename:  part.FileName(),
			MIMEType:  part.Header.Get("Content-Type"),
			Size:      int64(len(data)),
			Data:      data,
		})
	}

	if oversized != nil {
		return nil, oversized
	}
	return batch, nil
}

// ReadRequest reads a multipart/form-data request body
func ReadRequest(r *http.Request, limits Limits) (*Batch, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("[upload ReadRequest] %w", err)
	}
	return ReadMultipart(reader, limits)
}

// readError turns a request body that blew the server's size ceiling into a size rejection
func readError(err error, limits Limits) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return limits.fileTooLarge("")
	}
	return fmt.Errorf("[upload ReadMultipart] %w", err)
}
