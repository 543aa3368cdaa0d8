package validator

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxFileBytes is the per-file ceiling applied when none is configured
const DefaultMaxFileBytes int64 = 5 * 1024 * 1024

// allowedTypes maps accepted MIME types to the extension stored files get
var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// FileUpload is one uploaded file, independent of the transport it came from
type FileUpload struct {
	Field    string
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// FromMultipart adapts a multipart file header
func FromMultipart(field string, fh *multipart.FileHeader) *FileUpload {
	return &FileUpload{
		Field:    field,
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// NewMemoryUpload wraps an in-memory payload
func NewMemoryUpload(field, filename string, data []byte) *FileUpload {
	return &FileUpload{
		Field:    field,
		Filename: filename,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Requirements describes the files one workflow action takes
type Requirements struct {
	Required []string
	Optional []string
}

// AcceptedFile is an upload that passed intake
type AcceptedFile struct {
	*FileUpload
	MIME      string
	Extension string
}

// RejectionError lists every offending field; intake never partially accepts
type RejectionError struct {
	Fields   []string
	Problems []string
}

func (e *RejectionError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// FileIntake validates uploads against an allow-list of types and a size ceiling
type FileIntake struct {
	maxBytes int64
}

// NewFileIntake creates a validator with the given per-file ceiling
func NewFileIntake(maxBytes int64) *FileIntake {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	return &FileIntake{maxBytes: maxBytes}
}

// MaxBytes returns the per-file ceiling
func (v *FileIntake) MaxBytes() int64 {
	return v.maxBytes
}

// Validate checks every required and supplied optional file. Fields not named
// in req are ignored. On any problem nothing is accepted.
func (v *FileIntake) Validate(files map[string]*FileUpload, req Requirements) (map[string]*AcceptedFile, error) {
	rejection := &RejectionError{}
	accepted := make(map[string]*AcceptedFile)

	check := func(field string, required bool) {
		upload, ok := files[field]
		if !ok || upload == nil {
			if required {
				rejection.add(field, fmt.Sprintf("%s is required", field))
			}
			return
		}
		file, problem := v.inspect(upload)
		if problem != "" {
			rejection.add(field, fmt.Sprintf("%s %s", field, problem))
			return
		}
		accepted[field] = file
	}

	for _, field := range req.Required {
		check(field, true)
	}
	for _, field := range req.Optional {
		check(field, false)
	}

	if len(rejection.Problems) > 0 {
		return nil, rejection
	}
	return accepted, nil
}

func (v *FileIntake) inspect(upload *FileUpload) (*AcceptedFile, string) {
	if upload.Size == 0 {
		return nil, "is empty"
	}
	if upload.Size > v.maxBytes {
		return nil, fmt.Sprintf("exceeds the %s size limit", humanBytes(v.maxBytes))
	}

	r, err := upload.Open()
	if err != nil {
		return nil, "could not be read"
	}
	defer r.Close()

	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, "could not be read"
	}

	for allowed, ext := range allowedTypes {
		if mtype.Is(allowed) {
			return &AcceptedFile{FileUpload: upload, MIME: allowed, Extension: ext}, ""
		}
	}
	return nil, fmt.Sprintf("has unsupported type %s (allowed: %s)", mtype.String(), allowedList())
}

func (e *RejectionError) add(field, problem string) {
	e.Fields = append(e.Fields, field)
	e.Problems = append(e.Problems, problem)
}

func allowedList() string {
	names := make([]string, 0, len(allowedTypes))
	for mime := range allowedTypes {
		names = append(names, mime)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func humanBytes(n int64) string {
	if n%(1024*1024) == 0 {
		return fmt.Sprintf("%d MB", n/(1024*1024))
	}
	if n%1024 == 0 {
		return fmt.Sprintf("%d KB", n/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
