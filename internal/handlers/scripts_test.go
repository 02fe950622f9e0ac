package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ugcstudio/backend/internal/scripts"
)

type fakeGenerator struct {
	params scripts.Params
	out    []scripts.Script
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, params scripts.Params) ([]scripts.Script, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func TestGenerateScriptRequiresSession(t *testing.T) {
	handler := ScriptHandler{Generator: &fakeGenerator{}, Sessions: &fakeSessions{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-script", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGenerateScriptSuccess(t *testing.T) {
	generator := &fakeGenerator{out: []scripts.Script{{Script: "Take one"}, {Script: "Take two"}, {Script: "Take three"}}}
	handler := ScriptHandler{Generator: generator, Sessions: authedSessions()}

	body := `{"product_name":"Widget","product_description":"A widget","time_in_seconds":30,"selected_tones":["Funny","Energetic","Authentic"]}`
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/generate-script", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if generator.params.TimeInSeconds != 30 || len(generator.params.SelectedTones) != 3 {
		t.Fatalf("unexpected params: %+v", generator.params)
	}

	var resp struct {
		Scripts []scripts.Script `json:"scripts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Scripts) != 3 || resp.Scripts[0].Script != "Take one" {
		t.Fatalf("unexpected scripts: %+v", resp.Scripts)
	}
}

func TestGenerateScriptInvalidParams(t *testing.T) {
	generator := &fakeGenerator{err: scripts.ErrInvalidParams}
	handler := ScriptHandler{Generator: generator, Sessions: authedSessions()}

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/generate-script", strings.NewReader(`{"product_name":"Widget"}`)))
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateScriptUpstreamFailure(t *testing.T) {
	generator := &fakeGenerator{err: scripts.ErrUpstream}
	handler := ScriptHandler{Generator: generator, Sessions: authedSessions()}

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/generate-script", strings.NewReader(`{"product_name":"Widget"}`)))
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGenerateScriptRateLimited(t *testing.T) {
	handler := ScriptHandler{Generator: &fakeGenerator{}, Sessions: authedSessions(), Limiter: denyAllLimiter{}}

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/generate-script", strings.NewReader(`{}`)))
	rec := httptest.NewRecorder()

	handler.Generate(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
