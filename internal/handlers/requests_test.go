package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ugcstudio/backend/internal/auth"
	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/requests"
)

type fakeEngine struct {
	created   []requests.Payload
	listed    []models.RequestKind
	createOut models.Request
	createErr error
	getOut    models.Request
	listOut   []models.Request
}

func (f *fakeEngine) Create(_ context.Context, identity models.Identity, payload requests.Payload) (models.Request, error) {
	if identity.UserID == "" {
		return models.Request{}, requests.ErrUnauthenticated
	}
	if f.createErr != nil {
		return models.Request{}, f.createErr
	}
	f.created = append(f.created, payload)
	return f.createOut, nil
}

func (f *fakeEngine) Get(_ context.Context, identity models.Identity, kind models.RequestKind, id string) (models.Request, error) {
	if identity.UserID == "" {
		return models.Request{}, requests.ErrUnauthenticated
	}
	if f.getOut.ID != id || f.getOut.Kind != kind {
		return models.Request{}, requests.ErrNotFound
	}
	if f.getOut.UserID != identity.UserID && !identity.IsAdmin() {
		return models.Request{}, requests.ErrUnauthorized
	}
	return f.getOut, nil
}

func (f *fakeEngine) ListForUser(_ context.Context, identity models.Identity, kind models.RequestKind) ([]models.Request, error) {
	if identity.UserID == "" {
		return nil, requests.ErrUnauthenticated
	}
	f.listed = append(f.listed, kind)
	return f.listOut, nil
}

func authedSessions() *fakeSessions {
	return &fakeSessions{identities: map[string]models.Identity{
		"tok-1": {UserID: "u1", Email: "creator@example.com", Role: models.RoleUser},
	}}
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok-1"})
	return req
}

func TestAdsRequiresSession(t *testing.T) {
	handler := RequestHandler{Engine: &fakeEngine{}, Sessions: &fakeSessions{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/ads", nil)
	rec := httptest.NewRecorder()

	handler.Ads(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "Unauthorized" {
		t.Fatalf("unexpected error body: %v", resp)
	}
}

func TestCreateAdMapsPayload(t *testing.T) {
	engine := &fakeEngine{createOut: models.Request{ID: "r1", Kind: models.KindAd, Status: models.StatusPending, CreditsUsed: 30}}
	handler := RequestHandler{Engine: engine, Sessions: authedSessions()}

	body := `{
        "serviceType": "ugc-video-ads",
        "selectedScript": "Okay so I tried this thing",
        "formData": {
            "brandName": "Acme",
            "productName": "Widget",
            "productDescription": "A widget",
            "selectedTones": ["Funny", "Energetic", "Authentic"]
        }
    }`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/requests/ads", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	handler.Ads(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(engine.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(engine.created))
	}
	payload, ok := engine.created[0].(requests.AdPayload)
	if !ok {
		t.Fatalf("expected AdPayload, got %T", engine.created[0])
	}
	if payload.BrandName != "Acme" || payload.Script != "Okay so I tried this thing" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(payload.SelectedTones) != 3 {
		t.Fatalf("expected 3 tones, got %v", payload.SelectedTones)
	}
}

func TestCreateAdValidationErrorsSurfaceFieldDetail(t *testing.T) {
	engine := &fakeEngine{createErr: &requests.ValidationError{Fields: map[string]string{
		"selectedTones": "exactly 3 tones must be selected",
	}}}
	handler := RequestHandler{Engine: engine, Sessions: authedSessions()}

	body := `{"serviceType":"ugc-video-ads","selectedScript":"s","formData":{"brandName":"Acme","productName":"Widget","selectedTones":["Funny"]}}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/requests/ads", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	handler.Ads(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "selectedTones") {
		t.Fatalf("expected field detail in body: %s", rec.Body.String())
	}
}

func TestCreateAdInsufficientCredits(t *testing.T) {
	engine := &fakeEngine{createErr: requests.ErrInsufficientCredits}
	handler := RequestHandler{Engine: engine, Sessions: authedSessions()}

	body := `{"serviceType":"ugc-video-ads","selectedScript":"s","formData":{"brandName":"Acme","productName":"Widget","selectedTones":["a","b","c"]}}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/requests/ads", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	handler.Ads(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
}

func TestCreateEditingMapsPayload(t *testing.T) {
	engine := &fakeEngine{createOut: models.Request{ID: "r2", Kind: models.KindEditing, Status: models.StatusPending, CreditsUsed: 40}}
	handler := RequestHandler{Engine: engine, Sessions: authedSessions()}

	body := `{
        "formData": {
            "projectName": "Launch teaser",
            "rawFootage": "https://example.com/raw.mp4",
            "editingStyle": "fast-cuts",
            "desiredLength": "custom",
            "customLength": "45s"
        }
    }`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/requests/editing", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	handler.Editing(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	payload, ok := engine.created[0].(requests.EditingPayload)
	if !ok {
		t.Fatalf("expected EditingPayload, got %T", engine.created[0])
	}
	if payload.RawFootageURL != "https://example.com/raw.mp4" || payload.DesiredLength != "custom" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.CustomLength == nil || *payload.CustomLength != "45s" {
		t.Fatalf("expected custom length mapped, got %v", payload.CustomLength)
	}
}

func TestListAdsReturnsRows(t *testing.T) {
	engine := &fakeEngine{listOut: []models.Request{
		{ID: "r1", Kind: models.KindAd, Status: models.StatusProcessing, Progress: 40,
			Ad: &models.AdDetails{BrandName: "Acme", SelectedTones: []string{"a", "b", "c"}}},
	}}
	handler := RequestHandler{Engine: engine, Sessions: authedSessions()}

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/v1/requests/ads", nil))
	rec := httptest.NewRecorder()

	handler.Ads(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 1 || rows[0]["id"] != "r1" || rows[0]["brandName"] != "Acme" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if len(engine.listed) != 1 || engine.listed[0] != models.KindAd {
		t.Fatalf("expected ad listing, got %v", engine.listed)
	}
}

func detailRequest(kind, id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/"+kind+"/"+id, nil)
	req.SetPathValue("kind", kind)
	req.SetPathValue("id", id)
	return req
}

func TestDetailReturnsOwnRequest(t *testing.T) {
	engine := &fakeEngine{getOut: models.Request{
		ID: "r1", Kind: models.KindAd, UserID: "u1", Status: models.StatusProcessing,
		Ad: &models.AdDetails{BrandName: "Acme"},
	}}
	handler := RequestHandler{Engine: engine, Sessions: authedSessions()}

	rec := httptest.NewRecorder()
	handler.Detail(rec, withSession(detailRequest("ad", "r1")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] != "r1" || resp["brandName"] != "Acme" {
		t.Fatalf("unexpected body: %v", resp)
	}
}

func TestDetailForeignRequestForbidden(t *testing.T) {
	engine := &fakeEngine{getOut: models.Request{ID: "r1", Kind: models.KindAd, UserID: "someone-else"}}
	handler := RequestHandler{Engine: engine, Sessions: authedSessions()}

	rec := httptest.NewRecorder()
	handler.Detail(rec, withSession(detailRequest("ad", "r1")))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign request, got %d", rec.Code)
	}
}

func TestDetailRejectsUnknownKind(t *testing.T) {
	handler := RequestHandler{Engine: &fakeEngine{}, Sessions: authedSessions()}

	rec := httptest.NewRecorder()
	handler.Detail(rec, withSession(detailRequest("movies", "r1")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestDetailAcceptsBearerToken(t *testing.T) {
	engine := &fakeEngine{getOut: models.Request{ID: "r1", Kind: models.KindAd, UserID: "u1"}}
	handler := RequestHandler{Engine: engine, Sessions: &fakeSessions{}, JWTSecret: "test-secret"}

	token, err := auth.IssueJWT("test-secret", models.User{ID: "u1", Email: "creator@example.com", Role: models.RoleUser}, time.Hour)
	if err != nil {
		t.Fatalf("issue jwt: %v", err)
	}

	req := detailRequest("ad", "r1")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.Detail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 via bearer token, got %d: %s", rec.Code, rec.Body.String())
	}

	// A token signed with a different secret must not authenticate.
	forged, err := auth.IssueJWT("other-secret", models.User{ID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("issue jwt: %v", err)
	}
	req = detailRequest("ad", "r1")
	req.Header.Set("Authorization", "Bearer "+forged)
	rec = httptest.NewRecorder()

	handler.Detail(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token, got %d", rec.Code)
	}
}

func TestRequestsRejectUnknownMethods(t *testing.T) {
	handler := RequestHandler{Engine: &fakeEngine{}, Sessions: authedSessions()}

	req := withSession(httptest.NewRequest(http.MethodDelete, "/api/v1/requests/ads", nil))
	rec := httptest.NewRecorder()

	handler.Ads(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
