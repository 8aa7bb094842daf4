package upload_test

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"

	"github.com/connectspace/connectspace-api/upload"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		file   upload.File
		accept bool
		reason string
	}{
		{
			name:   "png image",
			file:   upload.File{FieldName: "images", Filename: "photo.png", MIMEType: "image/png"},
			accept: true,
		},
		{
			name:   "executable on images",
			file:   upload.File{FieldName: "images", Filename: "photo.exe", MIMEType: "application/octet-stream"},
			reason: upload.ReasonImages,
		},
		{
			name:   "pdf document",
			file:   upload.File{FieldName: "documents", Filename: "contract.pdf", MIMEType: "application/pdf"},
			accept: true,
		},
		{
			name:   "webp image",
			file:   upload.File{FieldName: "images", Filename: "living-room.webp", MIMEType: "image/webp"},
			accept: true,
		},
		{
			name:   "upper case extension",
			file:   upload.File{FieldName: "images", Filename: "KITCHEN.JPG", MIMEType: "image/jpeg"},
			accept: true,
		},
		{
			name:   "mime with parameters",
			file:   upload.File{FieldName: "documents", Filename: "lease.pdf", MIMEType: "Application/PDF; name=lease.pdf"},
			accept: true,
		},
		{
			name:   "renamed file with mismatched mime",
			file:   upload.File{FieldName: "images", Filename: "photo.png", MIMEType: "application/pdf"},
			reason: upload.ReasonImages,
		},
		{
			name:   "image mime with wrong extension",
			file:   upload.File{FieldName: "images", Filename: "script.js", MIMEType: "image/png"},
			reason: upload.ReasonImages,
		},
		{
			name:   "no extension",
			file:   upload.File{FieldName: "images", Filename: "photo", MIMEType: "image/png"},
			reason: upload.ReasonImages,
		},
		{
			name:   "pdf on images",
			file:   upload.File{FieldName: "images", Filename: "contract.pdf", MIMEType: "application/pdf"},
			reason: upload.ReasonImages,
		},
		{
			name:   "gif on documents",
			file:   upload.File{FieldName: "documents", Filename: "floorplan.gif", MIMEType: "image/gif"},
			reason: upload.ReasonDocuments,
		},
		{
			name:   "unknown field",
			file:   upload.File{FieldName: "avatar", Filename: "photo.png", MIMEType: "image/png"},
			reason: upload.ReasonUnexpectedField,
		},
		{
			name:   "field names are exact",
			file:   upload.File{FieldName: "Images", Filename: "photo.png", MIMEType: "image/png"},
			reason: upload.ReasonUnexpectedField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := upload.Classify(tt.file)
			require.Equal(t, tt.accept, d.Accept)
			require.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestParseField(t *testing.T) {
	f, err := upload.ParseField("images")
	require.NoError(t, err)
	require.Equal(t, upload.FieldImages, f)
	require.Equal(t, "images", f.String())

	f, err = upload.ParseField("documents")
	require.NoError(t, err)
	require.Equal(t, upload.FieldDocuments, f)

	_, err = upload.ParseField("files")
	require.ErrorIs(t, err, upload.ErrUnexpectedField)
}

func pngFiles(n int) []upload.File {
	files := make([]upload.File, n)
	for i := range files {
		files[i] = upload.File{FieldName: "images", Filename: fmt.Sprintf("photo-%d.png", i), MIMEType: "image/png", Size: 1024}
	}
	return files
}

func TestGate_Validate(t *testing.T) {
	gate := upload.NewGate(upload.DefaultLimits())

	t.Run("ten files accepted", func(t *testing.T) {
		require.NoError(t, gate.Validate(pngFiles(10)))
	})

	t.Run("eleventh file rejects the batch", func(t *testing.T) {
		err := gate.Validate(pngFiles(11))
		require.ErrorIs(t, err, upload.ErrTooManyFiles)
		require.EqualError(t, err, "Too many files. Maximum is 10 files.")
	})

	t.Run("file count wins over invalid files", func(t *testing.T) {
		files := pngFiles(11)
		files[0] = upload.File{FieldName: "images", Filename: "photo.exe", MIMEType: "application/octet-stream"}
		files[1] = upload.File{FieldName: "avatar", Filename: "me.png", MIMEType: "image/png"}
		err := gate.Validate(files)
		require.ErrorIs(t, err, upload.ErrTooManyFiles)
	})

	t.Run("file too large", func(t *testing.T) {
		files := pngFiles(2)
		files[1].Size = 5<<20 + 1
		err := gate.Validate(files)
		require.ErrorIs(t, err, upload.ErrFileTooLarge)

		var rejection *upload.RejectionError
		require.True(t, errors.As(err, &rejection))
		require.Equal(t, "File too large. Maximum size is 5MB.", rejection.Reason)
		require.Equal(t, "photo-1.png", rejection.Filename)
	})

	t.Run("exactly the maximum size", func(t *testing.T) {
		files := pngFiles(1)
		files[0].Size = 5 << 20
		require.NoError(t, gate.Validate(files))
	})

	t.Run("unsupported type", func(t *testing.T) {
		files := append(pngFiles(2), upload.File{FieldName: "images", Filename: "photo.exe", MIMEType: "application/octet-stream"})
		err := gate.Validate(files)
		require.ErrorIs(t, err, upload.ErrUnsupportedFileType)
		require.ErrorContains(t, err, upload.ReasonImages)
	})

	t.Run("unexpected field", func(t *testing.T) {
		err := gate.Validate([]upload.File{{FieldName: "avatar", Filename: "me.png", MIMEType: "image/png"}})
		require.ErrorIs(t, err, upload.ErrUnexpectedField)
	})
}

func TestGate_Allow(t *testing.T) {
	images := upload.NewGate(upload.DefaultLimits()).Allow(upload.FieldImages)
	require.Equal(t, []upload.Field{upload.FieldImages}, images.Fields())

	err := images.Validate([]upload.File{{FieldName: "documents", Filename: "contract.pdf", MIMEType: "application/pdf"}})
	require.ErrorIs(t, err, upload.ErrUnexpectedField)

	require.NoError(t, images.Validate(pngFiles(1)))
}

func TestGate_CustomLimits(t *testing.T) {
	gate := upload.NewGate(upload.Limits{MaxFiles: 2, MaxFileSize: 512 << 10})
	require.Equal(t, int64(2*(512<<10)+(1<<20)), gate.Limits().RequestCeiling())

	err := gate.Validate(pngFiles(3))
	require.EqualError(t, err, "Too many files. Maximum is 2 files.")

	files := pngFiles(1)
	files[0].Size = 512<<10 + 1
	err = gate.Validate(files)
	var rejection *upload.RejectionError
	require.True(t, errors.As(err, &rejection))
	require.Equal(t, "File too large. Maximum size is 512KB.", rejection.Reason)
}

func TestHandleUploadError(t *testing.T) {
	gate := upload.NewGate(upload.DefaultLimits())

	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "count", err: gate.Validate(pngFiles(11)), message: "Too many files. Maximum is 10 files."},
		{name: "size", err: gate.Validate([]upload.File{{FieldName: "images", Filename: "big.png", MIMEType: "image/png", Size: 6 << 20}}), message: "File too large. Maximum size is 5MB."},
		{name: "field", err: gate.Validate([]upload.File{{FieldName: "avatar", Filename: "me.png", MIMEType: "image/png"}}), message: upload.ReasonUnexpectedField},
		{name: "type", err: gate.Validate([]upload.File{{FieldName: "documents", Filename: "notes.txt", MIMEType: "text/plain"}}), message: upload.ReasonDocuments},
		{name: "wrapped", err: fmt.Errorf("handler: %w", gate.Validate(pngFiles(12))), message: "Too many files. Maximum is 10 files."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, handled := upload.HandleUploadError(tt.err)
			require.True(t, handled)
			require.Equal(t, http.StatusBadRequest, resp.Status)
			require.Equal(t, tt.message, resp.Message)
		})
	}

	t.Run("other errors fall through", func(t *testing.T) {
		_, handled := upload.HandleUploadError(errors.New("disk full"))
		require.False(t, handled)

		_, handled = upload.HandleUploadError(nil)
		require.False(t, handled)
	})
}

func TestLimits_RequestCeiling(t *testing.T) {
	require.Equal(t, int64(10*(5<<20)+(1<<20)), upload.DefaultLimits().RequestCeiling())
	require.Equal(t, int64(2*1024+(1<<20)), upload.Limits{MaxFiles: 2, MaxFileSize: 1024}.RequestCeiling())

	huge := upload.Limits{MaxFiles: 10, MaxFileSize: math.MaxInt64 / 4}
	require.Equal(t, int64(math.MaxInt64), huge.RequestCeiling())
}

func TestLimits_RequestTooLarge(t *testing.T) {
	err := upload.Limits{MaxFiles: 1, MaxFileSize: 1024}.RequestTooLarge()
	require.ErrorIs(t, err, upload.ErrFileTooLarge)

	resp, ok := upload.HandleUploadError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, resp.Status)
	require.Equal(t, "File too large. Maximum size is 1KB.", resp.Message)
}
