package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"maintdesk/middleware"
	"maintdesk/storage"
)

// maxImageSize bounds a single uploaded image.
const maxImageSize = 10 << 20 // 10 MiB

type UploadHandler struct {
	blobs *storage.BlobStore
}

func NewUploadHandler(blobs *storage.BlobStore) *UploadHandler {
	return &UploadHandler{
		blobs: blobs,
	}
}

// UploadImage accepts a multipart image, stores it under a generated path in
// Cloud Storage, and returns the download URL. The URL is attached to a
// service request by the client on submit.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, "Image too large or invalid form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, "Image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	var ext string
	switch contentType {
	case "image/jpeg":
		ext = "jpg"
	case "image/png":
		ext = "png"
	default:
		writeError(w, "Only JPEG and PNG images are accepted", http.StatusBadRequest)
		return
	}

	path := fmt.Sprintf("serviceRequests/%s.%s", uuid.NewString(), ext)
	url, err := h.blobs.Upload(r.Context(), path, contentType, file)
	if err != nil {
		log.Printf("❌ Failed to upload image for %s: %v", user.Email, err)
		writeError(w, "Failed to upload image", http.StatusInternalServerError)
		return
	}

	log.Printf("🖼️  Image uploaded by %s: %s", user.Email, path)
	writeJSON(w, map[string]string{"url": url})
}
