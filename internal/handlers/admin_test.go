package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/repositories"
)

type fakeWorkflow struct {
	outstanding map[models.RequestKind][]models.Request
	stats       models.Stats
	rollups     []models.UserRollup
	files       []string

	completedWith []string
	finalized     []string
	recorded      []string
	findErr       error
}

func (f *fakeWorkflow) ListOutstanding(_ context.Context, kind models.RequestKind) ([]models.Request, error) {
	return f.outstanding[kind], nil
}

func (f *fakeWorkflow) Stats(context.Context) (models.Stats, error) { return f.stats, nil }

func (f *fakeWorkflow) UserRollups(context.Context) ([]models.UserRollup, error) {
	return f.rollups, nil
}

func (f *fakeWorkflow) ListCandidateFiles(_ context.Context, _ models.RequestKind, _ string) ([]string, error) {
	return f.files, nil
}

func (f *fakeWorkflow) CompleteWithSelection(_ context.Context, kind models.RequestKind, requestID, filename string) (models.Request, error) {
	if f.findErr != nil {
		return models.Request{}, f.findErr
	}
	url := "/uploads/" + kind.StorageSegment() + "/" + requestID + "/" + filename
	f.completedWith = append(f.completedWith, url)
	return models.Request{ID: requestID, Kind: kind, Status: models.StatusCompleted, Progress: 100, CompletedFileURL: &url}, nil
}

func (f *fakeWorkflow) FinalizeUpload(_ context.Context, kind models.RequestKind, requestID, filename string, content io.Reader) (models.Request, error) {
	if f.findErr != nil {
		return models.Request{}, f.findErr
	}
	if _, err := io.ReadAll(content); err != nil {
		return models.Request{}, err
	}
	url := "/uploads/" + kind.StorageSegment() + "/" + requestID + ".mp4"
	f.finalized = append(f.finalized, filename)
	return models.Request{ID: requestID, Kind: kind, Status: models.StatusCompleted, Progress: 100, CompletedFileURL: &url}, nil
}

func (f *fakeWorkflow) RecordUpload(_ context.Context, _ models.RequestKind, _, _, filename string, content io.Reader) (string, error) {
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	stored := "1714569600000-" + filename
	f.recorded = append(f.recorded, stored)
	return stored, nil
}

func TestAdminListAds(t *testing.T) {
	workflow := &fakeWorkflow{outstanding: map[models.RequestKind][]models.Request{
		models.KindAd: {{ID: "r1", Kind: models.KindAd, OwnerEmail: "creator@example.com",
			Ad: &models.AdDetails{BrandName: "Acme"}}},
	}}
	handler := AdminHandler{Workflow: workflow}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ads", nil)
	rec := httptest.NewRecorder()

	handler.ListAds(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 1 || rows[0]["userEmail"] != "creator@example.com" {
		t.Fatalf("expected owner email in listing, got %v", rows)
	}
}

func TestAdminStats(t *testing.T) {
	workflow := &fakeWorkflow{stats: models.Stats{TotalRequests: 5, CompletedRequests: 2, PendingRequests: 3}}
	handler := AdminHandler{Workflow: workflow}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	rec := httptest.NewRecorder()

	handler.Stats(rec, req)

	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["totalRequests"] != 5 || resp["completedRequests"] != 2 || resp["pendingRequests"] != 3 {
		t.Fatalf("unexpected stats: %v", resp)
	}
}

func TestAdminCandidateFiles(t *testing.T) {
	workflow := &fakeWorkflow{files: []string{"100-a.mp4", "200-b.mp4"}}
	handler := AdminHandler{Workflow: workflow}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/requests/ad/r1/files", nil)
	req.SetPathValue("kind", "ad")
	req.SetPathValue("id", "r1")
	rec := httptest.NewRecorder()

	handler.CandidateFiles(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp["files"]) != 2 {
		t.Fatalf("unexpected files: %v", resp)
	}
}

func TestAdminCandidateFilesRejectsUnknownKind(t *testing.T) {
	handler := AdminHandler{Workflow: &fakeWorkflow{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/requests/bogus/r1/files", nil)
	req.SetPathValue("kind", "bogus")
	req.SetPathValue("id", "r1")
	rec := httptest.NewRecorder()

	handler.CandidateFiles(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminCompleteWithSelection(t *testing.T) {
	workflow := &fakeWorkflow{}
	handler := AdminHandler{Workflow: workflow}

	body := `{"selectedFile":"100-final.mp4"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/requests/ad/r1/complete", strings.NewReader(body))
	req.SetPathValue("kind", "ad")
	req.SetPathValue("id", "r1")
	rec := httptest.NewRecorder()

	handler.Complete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(workflow.completedWith) != 1 || workflow.completedWith[0] != "/uploads/ads/r1/100-final.mp4" {
		t.Fatalf("unexpected completion: %v", workflow.completedWith)
	}
}

func TestAdminCompleteMissingSelection(t *testing.T) {
	handler := AdminHandler{Workflow: &fakeWorkflow{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/requests/ad/r1/complete", strings.NewReader(`{}`))
	req.SetPathValue("kind", "ad")
	req.SetPathValue("id", "r1")
	rec := httptest.NewRecorder()

	handler.Complete(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminCompleteUnknownRequest(t *testing.T) {
	handler := AdminHandler{Workflow: &fakeWorkflow{findErr: repositories.ErrNotFound}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/requests/ad/missing/complete", strings.NewReader(`{"selectedFile":"a.mp4"}`))
	req.SetPathValue("kind", "ad")
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	handler.Complete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("video-bytes")); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestAdminUploadFinal(t *testing.T) {
	workflow := &fakeWorkflow{}
	handler := AdminHandler{Workflow: workflow}

	body, contentType := multipartBody(t, map[string]string{"requestId": "r1", "type": "ad"}, "final.mp4")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/upload-final", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.UploadFinal(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(workflow.finalized) != 1 || workflow.finalized[0] != "final.mp4" {
		t.Fatalf("unexpected finalize calls: %v", workflow.finalized)
	}

	var resp struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.URL != "/uploads/ads/r1.mp4" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAdminUploadFinalMissingFields(t *testing.T) {
	handler := AdminHandler{Workflow: &fakeWorkflow{}}

	body, contentType := multipartBody(t, map[string]string{"type": "ad"}, "final.mp4")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/upload-final", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.UploadFinal(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminUploadRecordsFile(t *testing.T) {
	workflow := &fakeWorkflow{}
	handler := AdminHandler{Workflow: workflow}

	body, contentType := multipartBody(t, map[string]string{"requestId": "r1", "type": "editing", "userId": "u1"}, "draft.mp4")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success  bool   `json:"success"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Filename != "1714569600000-draft.mp4" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
