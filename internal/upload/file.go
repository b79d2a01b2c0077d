package upload

import (
	"fmt"
	"io"
	"mime/multipart"
)

// File is an in-memory upload, either as selected by the user or re-encoded.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// FromMultipart reads a submitted form file into memory.
func FromMultipart(fh *multipart.FileHeader) (File, error) {
	src, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// FromMultipartAll reads every file of a form field, skipping empty selections.
func FromMultipartAll(fhs []*multipart.FileHeader) ([]File, error) {
	out := make([]File, 0, len(fhs))
	for _, fh := range fhs {
		if fh == nil || fh.Filename == "" {
			continue
		}
		f, err := FromMultipart(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
