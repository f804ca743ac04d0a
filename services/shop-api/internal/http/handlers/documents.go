package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/service"
	"ecommerce-shop/shared/pkg/apperr"
)

const (
	maxUploadMemory = 32 << 20
	maxUploadBody   = 64 << 20
)

type DocumentsHandler struct {
	Documents *service.DocumentService
	Log       zerolog.Logger
}

// Upload expects multipart form data: a "kind" field and one or more
// "documents" files.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, r, h.Log, apperr.Validation("invalid multipart form", err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["documents"]
	files := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, h.Log, fmt.Errorf("open upload %s: %w", fh.Filename, err))
			return
		}
		defer f.Close()
		files = append(files, service.Upload{
			Filename:    fh.Filename,
			ContentType: contentType(fh),
			Size:        fh.Size,
			Body:        f,
		})
	}

	docs, err := h.Documents.Upload(r.Context(), chi.URLParam(r, "id"), r.FormValue("kind"), files)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, "documents uploaded", docs)
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
