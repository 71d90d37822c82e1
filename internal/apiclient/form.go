package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

type formPart struct {
	name        string
	value       string
	filename    string
	contentType string
	data        []byte
	isFile      bool
}

// Form is an ordered multipart/form-data payload.
type Form struct {
	parts []formPart
}

func NewForm() *Form {
	return &Form{}
}

func (f *Form) Add(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

func (f *Form) AddFile(name, filename, contentType string, data []byte) *Form {
	f.parts = append(f.parts, formPart{
		name:        name,
		filename:    filename,
		contentType: contentType,
		data:        data,
		isFile:      true,
	})
	return f
}

// Has reports whether a part with the given name was added.
func (f *Form) Has(name string) bool {
	for _, p := range f.parts {
		if p.name == name {
			return true
		}
	}
	return false
}

// Encode renders the payload and returns it with its Content-Type header value,
// which carries the multipart boundary.
func (f *Form) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.parts {
		if !p.isFile {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", p.name, err)
			}
			continue
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.name, p.filename))
		ct := p.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %s: %w", p.name, err)
		}
		if _, err := pw.Write(p.data); err != nil {
			return nil, "", fmt.Errorf("write file part %s: %w", p.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
