package handlers

import (
	"net/http"
	"path"
	"time"

	"github.com/ugcstudio/backend/internal/logging"
	"github.com/ugcstudio/backend/internal/storage"
)

const (
	maxImageUploadBytes = 5 << 20
	maxVideoUploadBytes = 50 << 20
)

var allowedUploadTypes = map[string]map[string]bool{
	"image": {
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	},
	"video": {
		"video/mp4":       true,
		"video/webm":      true,
		"video/quicktime": true,
	},
}

// UploadHandler accepts client media uploads (avatars, product images, raw
// footage) ahead of request submission.
type UploadHandler struct {
	Media     MediaSaver
	Sessions  SessionManager
	JWTSecret string
	NowFunc   func() time.Time
}

func (h UploadHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now()
}

// Upload handles POST /api/v1/uploads.
func (h UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if _, ok := identityFromRequest(r, h.Sessions, h.JWTSecret); !ok {
		respondUnauthorized(ctx, w)
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		category = "image"
	}
	allowed, ok := allowedUploadTypes[category]
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return
	}

	limit := int64(maxImageUploadBytes)
	if category == "video" {
		limit = maxVideoUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer file.Close()

	if contentType := header.Header.Get("Content-Type"); !allowed[contentType] {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "Unsupported file type"})
		return
	}

	key := path.Join(category, storage.TimestampedName(h.now(), header.Filename))
	url, err := h.Media.Save(ctx, key, file)
	if err != nil {
		logging.FromContext(ctx).Error("store upload", "category", category, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"url": url})
}
