package upload

import (
	"errors"
	"net/http"
)

// Kind identifies why a batch was rejected
type Kind int

const (
	FileTooLarge Kind = iota + 1
	TooManyFiles
	UnexpectedField
	UnsupportedFileType
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrTooManyFiles        = errors.New("too many files")
	ErrUnexpectedField     = errors.New("unexpected field")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

func (k Kind) String() string {
	switch k {
	case FileTooLarge:
		return "LIMIT_FILE_SIZE"
	case TooManyFiles:
		return "LIMIT_FILE_COUNT"
	case UnexpectedField:
		return "LIMIT_UNEXPECTED_FILE"
	case UnsupportedFileType:
		return "UNSUPPORTED_FILE_TYPE"
	default:
		return "UNKNOWN"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case FileTooLarge:
		return ErrFileTooLarge
	case TooManyFiles:
		return ErrTooManyFiles
	case UnexpectedField:
		return ErrUnexpectedField
	case UnsupportedFileType:
		return ErrUnsupportedFileType
	default:
		return nil
	}
}

// RejectionError rejects a whole upload batch. Reason is safe to show to clients.
type RejectionError struct {
	Kind     Kind
	Reason   string
	Filename string
}

func (e *RejectionError) Error() string {
	if e.Filename == "" {
		return e.Reason
	}
	return e.Reason + " (" + e.Filename + ")"
}

func (e *RejectionError) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// Response is the client-facing body for a rejected upload
type Response struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

// HandleUploadError converts upload rejections into 400 responses.
// It returns false for any other error so the caller can fall through to its generic handler.
func HandleUploadError(err error) (Response, bool) {
	var rejection *RejectionError
	if err == nil || !errors.As(err, &rejection) || rejection.Kind.sentinel() == nil {
		return Response{}, false
	}
	return Response{Status: http.StatusBadRequest, Message: rejection.Reason}, true
}
