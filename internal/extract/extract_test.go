package extract_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "chatrelay/backend/internal/errors"
	"chatrelay/backend/internal/extract"
)

// tinyPNG renders a real 1x1 PNG so the decode check passes.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	t.Run("Oversized file is rejected before parsing", func(t *testing.T) {
		data := make([]byte, extract.MaxFileSize+1)
		_, err := extract.Validate(data, "text/plain")
		assert.ErrorIs(t, err, app_errors.ErrValidation)
		assert.Contains(t, err.Error(), "10MB")
	})

	t.Run("Disallowed MIME type is rejected", func(t *testing.T) {
		_, err := extract.Validate([]byte("#!/bin/sh"), "application/x-sh")
		assert.ErrorIs(t, err, app_errors.ErrValidation)
		assert.Contains(t, err.Error(), "application/x-sh")
	})

	t.Run("Allowed types map to file type tags", func(t *testing.T) {
		fileType, err := extract.Validate([]byte("hello"), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "txt", fileType)

		fileType, err = extract.Validate([]byte{}, "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, "pdf", fileType)
	})
}

func TestProcess_PlainText(t *testing.T) {
	artifact, err := extract.Process([]byte("  some notes\nline two  \n"), "notes.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", artifact.Filename)
	assert.Equal(t, "txt", artifact.FileType)
	assert.False(t, artifact.IsImage)
	assert.Equal(t, "some notes\nline two", artifact.Text)
}

func TestProcess_Image(t *testing.T) {
	data := tinyPNG(t)

	artifact, err := extract.Process(data, "pixel.png", "image/png")
	require.NoError(t, err)
	assert.True(t, artifact.IsImage)
	assert.Equal(t, "image/png", artifact.MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), artifact.Data)
	assert.Empty(t, artifact.Text)
}

func TestProcess_MislabelledImage(t *testing.T) {
	// text/plain bytes claiming to be a PNG must fail the decode check.
	_, err := extract.Process([]byte("definitely not an image"), "fake.png", "image/png")
	assert.ErrorIs(t, err, app_errors.ErrExtraction)
}

func TestProcess_JpgMediaTypeNormalized(t *testing.T) {
	// image/jpg is accepted as an alias but normalized for providers. The
	// payload is a PNG, which the stdlib decoder still recognizes.
	artifact, err := extract.Process(tinyPNG(t), "photo.jpg", "image/jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", artifact.MediaType)
	assert.Equal(t, "jpg", artifact.FileType)
}

func TestProcess_CorruptDocuments(t *testing.T) {
	t.Run("Broken PDF", func(t *testing.T) {
		_, err := extract.Process([]byte("%PDF-1.7 truncated garbage"), "doc.pdf", "application/pdf")
		assert.ErrorIs(t, err, app_errors.ErrExtraction)
	})

	t.Run("Broken DOCX", func(t *testing.T) {
		_, err := extract.Process([]byte("not a zip archive"), "doc.docx",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		assert.ErrorIs(t, err, app_errors.ErrExtraction)
	})
}
