package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ugcstudio/backend/internal/auth"
	"github.com/ugcstudio/backend/internal/logging"
	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/requests"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session-token"

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondUnauthorized(ctx context.Context, w http.ResponseWriter) {
	respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
}

// identityFromRequest resolves the session cookie to a caller identity,
// falling back to the bearer JWT issued at signup/login for clients that
// cannot carry cookies. Absent, unknown, and expired credentials are
// indistinguishable to the caller.
func identityFromRequest(r *http.Request, sessions SessionManager, jwtSecret string) (models.Identity, bool) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if identity, err := sessions.Resolve(r.Context(), cookie.Value); err == nil {
			return identity, true
		}
	}

	return identityFromBearer(r, jwtSecret)
}

func identityFromBearer(r *http.Request, jwtSecret string) (models.Identity, bool) {
	if jwtSecret == "" {
		return models.Identity{}, false
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return models.Identity{}, false
	}

	claims, err := auth.ParseJWT(jwtSecret, token)
	if err != nil {
		return models.Identity{}, false
	}

	return models.Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, true
}

// respondEngineError maps lifecycle errors to HTTP responses. Validation
// failures carry field detail; denials stay generic.
func respondEngineError(ctx context.Context, w http.ResponseWriter, err error) {
	if ve, ok := requests.IsValidation(err); ok {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]any{"error": ve.Fields})
		return
	}

	switch {
	case errors.Is(err, requests.ErrUnauthenticated):
		respondUnauthorized(ctx, w)
	case errors.Is(err, requests.ErrUnauthorized):
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
	case errors.Is(err, requests.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, requests.ErrInsufficientCredits):
		respondJSON(ctx, w, http.StatusPaymentRequired, map[string]string{"error": "insufficient credits"})
	default:
		logging.FromContext(ctx).Error("internal error", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}

// requestResponse is the wire shape for a request row. Variant fields are
// flat, with only the populated variant's fields carrying values.
type requestResponse struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	UserID           string    `json:"userId"`
	UserEmail        string    `json:"userEmail,omitempty"`
	Status           string    `json:"status"`
	Progress         int       `json:"progress"`
	EstimatedReady   time.Time `json:"estimatedReady"`
	CompletedFileURL *string   `json:"completedFileUrl"`
	CreditsUsed      int       `json:"creditsUsed"`
	CreatedAt        time.Time `json:"createdAt"`

	ServiceType    string   `json:"serviceType,omitempty"`
	BrandName      string   `json:"brandName,omitempty"`
	ProductName    string   `json:"productName,omitempty"`
	Description    string   `json:"description,omitempty"`
	TargetAudience string   `json:"targetAudience,omitempty"`
	VideoDuration  string   `json:"videoDuration,omitempty"`
	SelectedTones  []string `json:"selectedTones,omitempty"`
	Script         string   `json:"script,omitempty"`
	WebsiteLink    *string  `json:"websiteLink,omitempty"`
	ReferenceLink  *string  `json:"referenceLink,omitempty"`
	Avatar         *string  `json:"avatar,omitempty"`
	ProductImage   *string  `json:"productImage,omitempty"`

	ProjectName    string  `json:"projectName,omitempty"`
	RawFootageURL  string  `json:"rawFootageUrl,omitempty"`
	EditingStyle   string  `json:"editingStyle,omitempty"`
	Instructions   string  `json:"instructions,omitempty"`
	ReferenceLinks *string `json:"referenceLinks,omitempty"`
	DesiredLength  string  `json:"desiredLength,omitempty"`
	CustomLength   *string `json:"customLength,omitempty"`
}

func toRequestResponse(request models.Request) requestResponse {
	resp := requestResponse{
		ID:               request.ID,
		Kind:             string(request.Kind),
		UserID:           request.UserID,
		UserEmail:        request.OwnerEmail,
		Status:           request.Status,
		Progress:         request.Progress,
		EstimatedReady:   request.EstimatedReady,
		CompletedFileURL: request.CompletedFileURL,
		CreditsUsed:      request.CreditsUsed,
		CreatedAt:        request.CreatedAt,
	}

	if ad := request.Ad; ad != nil {
		resp.ServiceType = ad.ServiceType
		resp.BrandName = ad.BrandName
		resp.ProductName = ad.ProductName
		resp.Description = ad.Description
		resp.TargetAudience = ad.TargetAudience
		resp.VideoDuration = ad.VideoDuration
		resp.SelectedTones = ad.SelectedTones
		resp.Script = ad.Script
		resp.WebsiteLink = ad.WebsiteLink
		resp.ReferenceLink = ad.ReferenceLink
		resp.Avatar = ad.Avatar
		resp.ProductImage = ad.ProductImage
	}

	if editing := request.Editing; editing != nil {
		resp.ProjectName = editing.ProjectName
		resp.RawFootageURL = editing.RawFootageURL
		resp.EditingStyle = editing.EditingStyle
		resp.Instructions = editing.Instructions
		resp.ReferenceLinks = editing.ReferenceLinks
		resp.DesiredLength = editing.DesiredLength
		resp.CustomLength = editing.CustomLength
	}

	return resp
}

func toRequestResponses(rows []models.Request) []requestResponse {
	responses := make([]requestResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, toRequestResponse(row))
	}
	return responses
}
