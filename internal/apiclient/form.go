package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// FormData is a multipart payload of text fields and file parts, written in
// the order they were added.
type FormData struct {
	parts []formPart
}

type formPart struct {
	field    string
	value    string
	filename string
	content  io.Reader
}

// NewFormData creates an empty form.
func NewFormData() *FormData {
	return &FormData{}
}

// AddField appends a text field.
func (f *FormData) AddField(name, value string) *FormData {
	f.parts = append(f.parts, formPart{field: name, value: value})
	return f
}

// AddFile appends a file part read from content.
func (f *FormData) AddFile(field, filename string, content io.Reader) *FormData {
	f.parts = append(f.parts, formPart{field: field, filename: filename, content: content})
	return f
}

func (f *FormData) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, part := range f.parts {
		if part.content == nil {
			if err := w.WriteField(part.field, part.value); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", part.field, err)
			}
			continue
		}

		fw, err := w.CreateFormFile(part.field, part.filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part %s: %w", part.field, err)
		}
		if _, err := io.Copy(fw, part.content); err != nil {
			return nil, "", fmt.Errorf("failed to copy file %s: %w", part.filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
