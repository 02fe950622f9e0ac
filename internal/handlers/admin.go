package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ugcstudio/backend/internal/logging"
	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/repositories"
)

const maxFinalUploadBytes = 200 << 20

// AdminHandler serves the operator fulfillment endpoints. Role enforcement
// happens at the boundary (basic auth middleware); the workflow trusts it.
type AdminHandler struct {
	Workflow FulfillmentWorkflow
}

// ListAds handles GET /api/v1/admin/ads.
func (h AdminHandler) ListAds(w http.ResponseWriter, r *http.Request) {
	h.listOutstanding(w, r, models.KindAd)
}

// ListEditing handles GET /api/v1/admin/editing.
func (h AdminHandler) ListEditing(w http.ResponseWriter, r *http.Request) {
	h.listOutstanding(w, r, models.KindEditing)
}

func (h AdminHandler) listOutstanding(w http.ResponseWriter, r *http.Request, kind models.RequestKind) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	rows, err := h.Workflow.ListOutstanding(ctx, kind)
	if err != nil {
		logging.FromContext(ctx).Error("list outstanding requests", "kind", kind, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, toRequestResponses(rows))
}

// Stats handles GET /api/v1/admin/stats.
func (h AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	stats, err := h.Workflow.Stats(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("fetch stats", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]int{
		"totalRequests":     stats.TotalRequests,
		"completedRequests": stats.CompletedRequests,
		"pendingRequests":   stats.PendingRequests,
	})
}

type userRollupResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	TotalRequests     int        `json:"totalRequests"`
	CompletedRequests int        `json:"completedRequests"`
	LastRequest       *time.Time `json:"lastRequest"`
}

// Users handles GET /api/v1/admin/users.
func (h AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	rollups, err := h.Workflow.UserRollups(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("fetch user rollups", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	responses := make([]userRollupResponse, 0, len(rollups))
	for _, rollup := range rollups {
		responses = append(responses, userRollupResponse{
			ID:                rollup.ID,
			Name:              rollup.Name,
			Email:             rollup.Email,
			TotalRequests:     rollup.TotalRequests,
			CompletedRequests: rollup.CompletedRequests,
			LastRequest:       rollup.LastRequest,
		})
	}

	respondJSON(ctx, w, http.StatusOK, responses)
}

// CandidateFiles handles GET /api/v1/admin/requests/{kind}/{id}/files.
func (h AdminHandler) CandidateFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	kind, ok := kindFromPath(r)
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown request type"})
		return
	}

	files, err := h.Workflow.ListCandidateFiles(ctx, kind, r.PathValue("id"))
	if err != nil {
		logging.FromContext(ctx).Error("list candidate files", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	if files == nil {
		files = []string{}
	}
	respondJSON(ctx, w, http.StatusOK, map[string][]string{"files": files})
}

type completeRequest struct {
	SelectedFile string `json:"selectedFile"`
}

// Complete handles POST /api/v1/admin/requests/{kind}/{id}/complete, the
// selection path of fulfillment.
func (h AdminHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	kind, ok := kindFromPath(r)
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown request type"})
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SelectedFile == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "selectedFile is required"})
		return
	}

	completed, err := h.Workflow.CompleteWithSelection(ctx, kind, r.PathValue("id"), req.SelectedFile)
	if err != nil {
		h.respondWorkflowError(w, r, err, "complete request with selection")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toRequestResponse(completed))
}

// UploadFinal handles POST /api/v1/admin/upload-final, the upload path of
// fulfillment: a brand-new final file stored deterministically by request id.
func (h AdminHandler) UploadFinal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxFinalUploadBytes)

	file, header, requestID, kind, ok := parseUploadForm(w, r)
	if !ok {
		return
	}
	defer file.Close()

	completed, err := h.Workflow.FinalizeUpload(ctx, kind, requestID, header.Filename, file)
	if err != nil {
		h.respondWorkflowError(w, r, err, "finalize upload")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"url":     completed.CompletedFileURL,
	})
}

// Upload handles POST /api/v1/admin/upload, recording an in-progress upload
// under the request's storage path together with its audit row.
func (h AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxFinalUploadBytes)

	file, header, requestID, kind, ok := parseUploadForm(w, r)
	if !ok {
		return
	}
	defer file.Close()

	stored, err := h.Workflow.RecordUpload(ctx, kind, requestID, r.FormValue("userId"), header.Filename, file)
	if err != nil {
		h.respondWorkflowError(w, r, err, "record upload")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": stored,
	})
}

func (h AdminHandler) respondWorkflowError(w http.ResponseWriter, r *http.Request, err error, op string) {
	ctx := r.Context()
	if errors.Is(err, repositories.ErrNotFound) {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "request not found"})
		return
	}
	logging.FromContext(ctx).Error(op, "error", err)
	respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func kindFromPath(r *http.Request) (models.RequestKind, bool) {
	kind := models.RequestKind(r.PathValue("kind"))
	return kind, kind.Valid()
}

func parseUploadForm(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, string, models.RequestKind, bool) {
	ctx := r.Context()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return nil, nil, "", "", false
	}

	requestID := r.FormValue("requestId")
	kind := models.RequestKind(r.FormValue("type"))
	if requestID == "" || !kind.Valid() {
		file.Close()
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return nil, nil, "", "", false
	}

	return file, header, requestID, kind, true
}
