package backend

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	field string
	src   model.FileSource
}

// multipartForm is a form whose encoded body can be produced more than once,
// which the refresh stage needs to re-send an upload.
type multipartForm struct {
	fields []formField
	files  []formFile
}

type multipartBody struct {
	contentType string
	length      int64 // -1 when a file size is unknown
	open        func() (io.ReadCloser, error)
}

// encode prepares the body. Every call to open streams a fresh copy through a
// pipe with the same boundary, so the Content-Length computed up front holds
// for every copy.
func (f multipartForm) encode(progress model.ProgressFunc) (*multipartBody, error) {
	boundary := multipart.NewWriter(io.Discard).Boundary()

	length, err := f.length(boundary)
	if err != nil {
		return nil, err
	}

	open := func() (io.ReadCloser, error) {
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(f.write(&countingWriter{w: pw, total: length, progress: progress}, boundary))
		}()
		return pr, nil
	}

	return &multipartBody{
		contentType: "multipart/form-data; boundary=" + boundary,
		length:      length,
		open:        open,
	}, nil
}

func (f multipartForm) write(w io.Writer, boundary string) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return fmt.Errorf("setting boundary: %w", err)
	}

	for _, field := range f.fields {
		if err := mw.WriteField(field.name, field.value); err != nil {
			return fmt.Errorf("writing field %s: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		part, err := createFilePart(mw, file.field, file.src.Name)
		if err != nil {
			return err
		}
		if err := copyFile(part, file.src); err != nil {
			return fmt.Errorf("writing file %s: %w", file.field, err)
		}
	}
	return mw.Close()
}

// length computes the encoded size by writing everything except file
// contents and adding the declared file sizes.
func (f multipartForm) length(boundary string) (int64, error) {
	var files int64
	for _, file := range f.files {
		if file.src.Size < 0 {
			return -1, nil
		}
		files += file.src.Size
	}

	counter := &countingWriter{w: io.Discard}
	mw := multipart.NewWriter(counter)
	if err := mw.SetBoundary(boundary); err != nil {
		return 0, fmt.Errorf("setting boundary: %w", err)
	}
	for _, field := range f.fields {
		if err := mw.WriteField(field.name, field.value); err != nil {
			return 0, err
		}
	}
	for _, file := range f.files {
		if _, err := createFilePart(mw, file.field, file.src.Name); err != nil {
			return 0, err
		}
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}
	return counter.sent + files, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// videoTypes covers the upload formats the backend accepts; the system MIME
// table does not always know them.
var videoTypes = map[string]string{
	".mp4": "video/mp4",
	".avi": "video/x-msvideo",
	".mov": "video/quicktime",
	".mkv": "video/x-matroska",
}

func createFilePart(mw *multipart.Writer, field, name string) (io.Writer, error) {
	filename := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := videoTypes[ext]
	if !ok {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("creating part %s: %w", field, err)
	}
	return part, nil
}

func copyFile(dst io.Writer, src model.FileSource) error {
	if src.Open == nil {
		return fmt.Errorf("file %q has no content", src.Name)
	}
	rc, err := src.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	n, err := io.Copy(dst, rc)
	if err != nil {
		return err
	}
	if src.Size >= 0 && n != src.Size {
		return fmt.Errorf("file %q: read %d bytes, expected %d", src.Name, n, src.Size)
	}
	return nil
}

// countingWriter counts bytes and reports progress after each write.
type countingWriter struct {
	w        io.Writer
	sent     int64
	total    int64
	progress model.ProgressFunc
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.sent += int64(n)
	if c.progress != nil && n > 0 {
		c.progress(c.sent, c.total)
	}
	return n, err
}
