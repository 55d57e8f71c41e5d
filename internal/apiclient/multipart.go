package apiclient

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
)

// Multipart builds a multipart/form-data body in memory so it can be replayed
// after a token refresh. The first error is kept and reported by PostMultipart.
type Multipart struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
	closed bool
}

// NewMultipart starts an empty form.
func NewMultipart() *Multipart {
	m := &Multipart{}
	m.writer = multipart.NewWriter(&m.buf)
	return m
}

// Field adds a plain text field.
func (m *Multipart) Field(name, value string) *Multipart {
	if m.err != nil {
		return m
	}
	m.err = m.writer.WriteField(name, value)
	return m
}

// JSONField adds a field holding the JSON encoding of v.
func (m *Multipart) JSONField(name string, v any) *Multipart {
	if m.err != nil {
		return m
	}
	data, err := json.Marshal(v)
	if err != nil {
		m.err = err
		return m
	}
	return m.Field(name, string(data))
}

// File adds a file part read fully from r.
func (m *Multipart) File(field, filename string, r io.Reader) *Multipart {
	if m.err != nil {
		return m
	}
	part, err := m.writer.CreateFormFile(field, filename)
	if err != nil {
		m.err = err
		return m
	}
	_, m.err = io.Copy(part, r)
	return m
}

// Err returns the first error hit while building the form.
func (m *Multipart) Err() error {
	return m.err
}

func (m *Multipart) finish() ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	if !m.closed {
		if err := m.writer.Close(); err != nil {
			return nil, "", err
		}
		m.closed = true
	}
	return m.buf.Bytes(), m.writer.FormDataContentType(), nil
}
