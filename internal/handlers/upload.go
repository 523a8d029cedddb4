package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/crucial707/quill/internal/middleware"
	"github.com/google/uuid"
)

// ImageStore persists an uploaded object and returns its public URL.
// *objects.Store satisfies it.
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

type UploadHandler struct {
	Store ImageStore
}

//
// ==========================
// Upload Cover Image (protected)
// ==========================
//

func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserFromContext(r.Context()); !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(middleware.MaxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			JSONError(w, "image must be at most 5 MiB", http.StatusRequestEntityTooLarge)
			return
		}
		JSONError(w, "expected multipart form with an image field", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		JSONError(w, "image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > middleware.MaxImageBytes {
		JSONError(w, "image must be at most 5 MiB", http.StatusRequestEntityTooLarge)
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		JSONError(w, "could not read image", http.StatusBadRequest)
		return
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		JSONError(w, "file must be a PNG, JPEG, GIF, WebP or BMP image", http.StatusBadRequest)
		return
	}

	key := "covers/" + uuid.NewString() + ext
	url, err := h.Store.Put(r.Context(), key, io.MultiReader(bytes.NewReader(head), file), header.Size, contentType)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"imageURL": url})
}
