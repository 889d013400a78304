package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/templui/claimguard/internal/service"
	"github.com/templui/claimguard/internal/validation"
)

// multipartMemory is how much of a form is held in memory before spilling to disk.
const multipartMemory = 32 << 20

// parseMultipart limits the body to maxBody bytes and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBody int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	err := r.ParseMultipartForm(multipartMemory)
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &maxBytes):
		return errPayloadTooLarge
	default:
		return &validation.Error{Field: "body", Message: "invalid multipart form"}
	}
}

// formUploads reads every file under field into memory, in submission order.
func formUploads(r *http.Request, field string) ([]service.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	return io.ReadAll(file)
}
