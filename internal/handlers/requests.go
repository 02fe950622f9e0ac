package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ugcstudio/backend/internal/logging"
	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/requests"
)

// RequestHandler serves the client-facing ad and editing request endpoints.
// Every operation resolves the session cookie to an identity first; the
// engine never sees raw tokens.
type RequestHandler struct {
	Engine    LifecycleEngine
	Sessions  SessionManager
	JWTSecret string
}

type createAdRequest struct {
	ServiceType    string     `json:"serviceType"`
	SelectedScript string     `json:"selectedScript"`
	FormData       adFormData `json:"formData"`
}

type adFormData struct {
	BrandName          string   `json:"brandName"`
	ProductName        string   `json:"productName"`
	ProductDescription string   `json:"productDescription"`
	TargetAudience     string   `json:"targetAudience"`
	VideoDuration      string   `json:"videoDuration"`
	SelectedTones      []string `json:"selectedTones"`
	WebsiteLink        *string  `json:"websiteLink"`
	ReferenceLink      *string  `json:"referenceLink"`
	Avatar             *string  `json:"avatar"`
	ProductImage       *string  `json:"productImage"`
}

type createEditingRequest struct {
	FormData editingFormData `json:"formData"`
}

type editingFormData struct {
	ProjectName    string  `json:"projectName"`
	RawFootage     string  `json:"rawFootage"`
	EditingStyle   string  `json:"editingStyle"`
	Instructions   string  `json:"instructions"`
	ReferenceLinks *string `json:"referenceLinks"`
	DesiredLength  string  `json:"desiredLength"`
	CustomLength   *string `json:"customLength"`
}

// Ads handles GET and POST /api/v1/requests/ads.
func (h RequestHandler) Ads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r, models.KindAd)
	case http.MethodPost:
		h.createAd(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Editing handles GET and POST /api/v1/requests/editing.
func (h RequestHandler) Editing(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r, models.KindEditing)
	case http.MethodPost:
		h.createEditing(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Detail handles GET /api/v1/requests/{kind}/{id}. Owners may read their own
// requests; admin identities may read any.
func (h RequestHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromRequest(r, h.Sessions, h.JWTSecret)
	if !ok {
		respondUnauthorized(ctx, w)
		return
	}

	kind, ok := kindFromPath(r)
	if !ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown request kind"})
		return
	}

	request, err := h.Engine.Get(ctx, identity, kind, r.PathValue("id"))
	if err != nil {
		respondEngineError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toRequestResponse(request))
}

func (h RequestHandler) list(w http.ResponseWriter, r *http.Request, kind models.RequestKind) {
	ctx := r.Context()

	identity, ok := identityFromRequest(r, h.Sessions, h.JWTSecret)
	if !ok {
		respondUnauthorized(ctx, w)
		return
	}

	rows, err := h.Engine.ListForUser(ctx, identity, kind)
	if err != nil {
		respondEngineError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toRequestResponses(rows))
}

func (h RequestHandler) createAd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromRequest(r, h.Sessions, h.JWTSecret)
	if !ok {
		respondUnauthorized(ctx, w)
		return
	}

	var req createAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid ad payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payload := requests.AdPayload{
		ServiceType:    req.ServiceType,
		BrandName:      req.FormData.BrandName,
		ProductName:    req.FormData.ProductName,
		Description:    req.FormData.ProductDescription,
		TargetAudience: req.FormData.TargetAudience,
		VideoDuration:  req.FormData.VideoDuration,
		SelectedTones:  req.FormData.SelectedTones,
		Script:         req.SelectedScript,
		WebsiteLink:    req.FormData.WebsiteLink,
		ReferenceLink:  req.FormData.ReferenceLink,
		Avatar:         req.FormData.Avatar,
		ProductImage:   req.FormData.ProductImage,
	}

	created, err := h.Engine.Create(ctx, identity, payload)
	if err != nil {
		respondEngineError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toRequestResponse(created))
}

func (h RequestHandler) createEditing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromRequest(r, h.Sessions, h.JWTSecret)
	if !ok {
		respondUnauthorized(ctx, w)
		return
	}

	var req createEditingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid editing payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	payload := requests.EditingPayload{
		ProjectName:    req.FormData.ProjectName,
		RawFootageURL:  req.FormData.RawFootage,
		EditingStyle:   req.FormData.EditingStyle,
		Instructions:   req.FormData.Instructions,
		ReferenceLinks: req.FormData.ReferenceLinks,
		DesiredLength:  req.FormData.DesiredLength,
		CustomLength:   req.FormData.CustomLength,
	}

	created, err := h.Engine.Create(ctx, identity, payload)
	if err != nil {
		respondEngineError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toRequestResponse(created))
}
