package upload_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/connectspace/connectspace-api/upload"
	"github.com/stretchr/testify/require"
)

type part struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func buildMultipart(t *testing.T, parts []part, values map[string]string) *multipart.Reader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return multipart.NewReader(&body, w.Boundary())
}

func TestReadMultipart(t *testing.T) {
	r := buildMultipart(t, []part{
		{field: "images", filename: "photo.png", contentType: "image/png", data: []byte("png-bytes")},
		{field: "documents", filename: "contract.pdf", contentType: "application/pdf", data: []byte("%PDF-1.7")},
	}, map[string]string{"propertyId": "prop-7"})

	batch, err := upload.ReadMultipart(r, upload.DefaultLimits())
	require.NoError(t, err)
	require.Len(t, batch.Files, 2)
	require.Equal(t, []string{"prop-7"}, batch.Values["propertyId"])

	f := batch.Files[0]
	require.Equal(t, "images", f.FieldName)
	require.Equal(t, "photo.png", f.Filename)
	require.Equal(t, "image/png", f.MIMEType)
	require.Equal(t, int64(len("png-bytes")), f.Size)
	require.Equal(t, []byte("png-bytes"), f.Data)

	require.NoError(t, upload.NewGate(upload.DefaultLimits()).Validate(batch.Files))
}

func TestReadMultipart_TooManyFiles(t *testing.T) {
	parts := make([]part, 11)
	for i := range parts {
		parts[i] = part{field: "images", filename: fmt.Sprintf("p%d.png", i), contentType: "image/png", data: []byte("x")}
	}

	_, err := upload.ReadMultipart(buildMultipart(t, parts, nil), upload.DefaultLimits())
	require.ErrorIs(t, err, upload.ErrTooManyFiles)
}

func TestReadMultipart_FileTooLarge(t *testing.T) {
	limits := upload.Limits{MaxFiles: 3, MaxFileSize: 1 << 10}
	r := buildMultipart(t, []part{
		{field: "images", filename: "small.png", contentType: "image/png", data: []byte("ok")},
		{field: "images", filename: "big.png", contentType: "image/png", data: bytes.Repeat([]byte("a"), 1<<10+1)},
	}, nil)

	_, err := upload.ReadMultipart(r, limits)
	require.ErrorIs(t, err, upload.ErrFileTooLarge)
	require.ErrorContains(t, err, "big.png")
}

func TestReadMultipart_CountCheckedBeforeSize(t *testing.T) {
	limits := upload.Limits{MaxFiles: 2, MaxFileSize: 1 << 10}
	r := buildMultipart(t, []part{
		{field: "images", filename: "big.png", contentType: "image/png", data: bytes.Repeat([]byte("a"), 2<<10)},
		{field: "images", filename: "a.png", contentType: "image/png", data: []byte("a")},
		{field: "images", filename: "b.png", contentType: "image/png", data: []byte("b")},
	}, nil)

	_, err := upload.ReadMultipart(r, limits)
	require.ErrorIs(t, err, upload.ErrTooManyFiles)
}
