package admin

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/storage"
)

// RequestStore captures the persistence operations the fulfillment workflow
// requires. The workflow trusts the caller identity established at the HTTP
// boundary; it performs no role checks of its own.
type RequestStore interface {
	ListAll(ctx context.Context, kind models.RequestKind) ([]models.Request, error)
	FindByID(ctx context.Context, kind models.RequestKind, id string) (models.Request, error)
	Complete(ctx context.Context, kind models.RequestKind, id, fileURL string) (models.Request, error)
	Stats(ctx context.Context) (models.Stats, error)
	UserRollups(ctx context.Context) ([]models.UserRollup, error)
}

// UploadRecorder persists the audit record written for every raw upload.
type UploadRecorder interface {
	Create(ctx context.Context, upload models.FileUpload) error
}

// Workflow implements the operator-facing fulfillment operations: inspecting
// outstanding requests, browsing candidate files, and attaching final output.
type Workflow struct {
	store   RequestStore
	uploads UploadRecorder
	files   storage.Store
	baseURL string

	NowFunc func() time.Time
}

// NewWorkflow constructs the fulfillment workflow. baseURL is the public
// prefix under which stored files are served (typically "/uploads").
func NewWorkflow(store RequestStore, uploads UploadRecorder, files storage.Store, baseURL string) *Workflow {
	if store == nil {
		panic("admin: request store must not be nil")
	}
	return &Workflow{
		store:   store,
		uploads: uploads,
		files:   files,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// ListOutstanding returns every request of the given kind with the owner's
// email denormalized for display, newest first.
func (w *Workflow) ListOutstanding(ctx context.Context, kind models.RequestKind) ([]models.Request, error) {
	return w.store.ListAll(ctx, kind)
}

// Stats returns aggregate request counts across both kinds.
func (w *Workflow) Stats(ctx context.Context) (models.Stats, error) {
	return w.store.Stats(ctx)
}

// UserRollups returns per-user request activity summaries.
func (w *Workflow) UserRollups(ctx context.Context) ([]models.UserRollup, error) {
	return w.store.UserRollups(ctx)
}

// ListCandidateFiles returns the filenames previously uploaded under the
// request's storage path, for operator selection.
func (w *Workflow) ListCandidateFiles(ctx context.Context, kind models.RequestKind, requestID string) ([]string, error) {
	if w.files == nil {
		return nil, storage.ErrUnavailable
	}
	prefix := path.Join(kind.StorageSegment(), requestID)
	files, err := w.files.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list candidate files: %w", err)
	}
	return files, nil
}

// CompleteWithSelection marks the request COMPLETED with a previously
// uploaded candidate file. The resulting URL is a pure function of the
// request id and filename, so repeat selections are idempotent.
func (w *Workflow) CompleteWithSelection(ctx context.Context, kind models.RequestKind, requestID, filename string) (models.Request, error) {
	clean := storage.SanitizeFilename(path.Base(filename))
	if clean == "" || clean == "." {
		return models.Request{}, fmt.Errorf("invalid filename %q", filename)
	}

	if _, err := w.store.FindByID(ctx, kind, requestID); err != nil {
		return models.Request{}, err
	}

	url := fmt.Sprintf("%s/%s/%s/%s", w.baseURL, kind.StorageSegment(), requestID, clean)
	return w.store.Complete(ctx, kind, requestID, url)
}

// FinalizeUpload stores a brand-new final file, renamed deterministically to
// "{requestID}.{ext}", and marks the request COMPLETED with its URL.
func (w *Workflow) FinalizeUpload(ctx context.Context, kind models.RequestKind, requestID, filename string, content io.Reader) (models.Request, error) {
	if w.files == nil {
		return models.Request{}, storage.ErrUnavailable
	}

	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		return models.Request{}, fmt.Errorf("filename %q has no extension", filename)
	}

	if _, err := w.store.FindByID(ctx, kind, requestID); err != nil {
		return models.Request{}, err
	}

	key := fmt.Sprintf("%s/%s.%s", kind.StorageSegment(), requestID, ext)
	url, err := w.files.Save(ctx, key, content)
	if err != nil {
		return models.Request{}, fmt.Errorf("store final file: %w", err)
	}

	return w.store.Complete(ctx, kind, requestID, url)
}

// RecordUpload stores an in-progress upload under the request's storage path
// and writes the additive audit row. It returns the stored filename.
func (w *Workflow) RecordUpload(ctx context.Context, kind models.RequestKind, requestID, userID, filename string, content io.Reader) (string, error) {
	if w.files == nil {
		return "", storage.ErrUnavailable
	}

	stored := storage.TimestampedName(w.now(), filename)
	key := path.Join(kind.StorageSegment(), requestID, stored)

	savedPath, err := w.files.Save(ctx, key, content)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	if w.uploads != nil {
		upload := models.FileUpload{
			ID:        uuid.NewString(),
			Filename:  stored,
			Path:      savedPath,
			RequestID: requestID,
			UserID:    userID,
			Kind:      kind,
			CreatedAt: w.now(),
		}
		if err := w.uploads.Create(ctx, upload); err != nil {
			return "", fmt.Errorf("record upload: %w", err)
		}
	}

	return stored, nil
}

func (w *Workflow) now() time.Time {
	if w.NowFunc != nil {
		return w.NowFunc()
	}
	return time.Now().UTC()
}
