package transport

import (
	"errors"
	"io"
	"mime/multipart"
	"sort"
)

// Multipart describes a form upload with at most one file part.
type Multipart struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      io.Reader
}

// reader streams the encoded form through a pipe so the file is never held
// in memory.
func (m *Multipart) reader() (io.Reader, string, error) {
	if m.File != nil && (m.FileField == "" || m.FileName == "") {
		return nil, "", errors.New("multipart file requires field and file name")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(m.write(mw))
	}()
	return pr, mw.FormDataContentType(), nil
}

func (m *Multipart) write(mw *multipart.Writer) error {
	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, m.Fields[k]); err != nil {
			return err
		}
	}
	if m.File != nil {
		part, err := mw.CreateFormFile(m.FileField, m.FileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, m.File); err != nil {
			return err
		}
	}
	return mw.Close()
}
