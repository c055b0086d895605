// Package extract turns an uploaded file's raw bytes into model input:
// extracted plain text for documents, a base64 payload for images.
package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	app_errors "chatrelay/backend/internal/errors"
)

// MaxFileSize is the upload size limit.
const MaxFileSize = 10 * 1024 * 1024 // 10 MiB

// allowedTypes maps accepted MIME types to a short file-type tag.
var allowedTypes = map[string]string{
	"application/pdf": "pdf",
	"text/plain":      "txt",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/webp": "webp",
}

// mediaTypes normalizes image MIME types for provider payloads.
var mediaTypes = map[string]string{
	"image/png":  "image/png",
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/webp": "image/webp",
}

// Artifact is the transient result of processing one uploaded file. It exists
// only for the duration of one request; its content is folded into a turn
// before anything is persisted.
type Artifact struct {
	Filename  string
	FileType  string
	IsImage   bool
	Text      string
	MediaType string
	Data      string // base64-encoded image bytes
}

// Validate checks size and MIME type before any format-specific parsing.
// Violations fail with ErrValidation naming the offending constraint.
func Validate(data []byte, mimeType string) (string, error) {
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("%w: file size exceeds %dMB limit", app_errors.ErrValidation, MaxFileSize/1024/1024)
	}
	fileType, ok := allowedTypes[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: file type %s not allowed", app_errors.ErrValidation, mimeType)
	}
	return fileType, nil
}

// Process validates the file and extracts its content. Extraction failures
// wrap ErrExtraction; the caller treats them as "skip this file, continue".
func Process(data []byte, filename, mimeType string) (*Artifact, error) {
	fileType, err := Validate(data, mimeType)
	if err != nil {
		return nil, err
	}

	switch fileType {
	case "png", "jpg", "webp":
		return encodeImage(data, filename, fileType, mimeType)
	case "pdf":
		text, err := pdfText(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", app_errors.ErrExtraction, filename, err)
		}
		return &Artifact{Filename: filename, FileType: fileType, Text: text}, nil
	case "docx":
		text, err := docxText(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", app_errors.ErrExtraction, filename, err)
		}
		return &Artifact{Filename: filename, FileType: fileType, Text: text}, nil
	default: // txt
		return &Artifact{Filename: filename, FileType: fileType, Text: strings.TrimSpace(string(data))}, nil
	}
}

// encodeImage verifies the bytes decode as an image before encoding, so a
// mislabelled upload fails here rather than at the provider.
func encodeImage(data []byte, filename, fileType, mimeType string) (*Artifact, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", app_errors.ErrExtraction, filename, err)
	}
	mediaType, ok := mediaTypes[mimeType]
	if !ok {
		mediaType = "image/jpeg"
	}
	return &Artifact{
		Filename:  filename,
		FileType:  fileType,
		IsImage:   true,
		MediaType: mediaType,
		Data:      base64.StdEncoding.EncodeToString(data),
	}, nil
}

// pdfText concatenates the plain text of every page, separated by page markers.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "\n--- Page %d ---\n%s", i, text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// docxText joins the non-empty paragraphs of the document body.
func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			line := strings.TrimSpace(para.String())
			if line != "" {
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
