package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ugcstudio/backend/internal/logging"
	"github.com/ugcstudio/backend/internal/scripts"
)

// ScriptHandler proxies ad script generation to the upstream LLM provider.
type ScriptHandler struct {
	Generator ScriptGenerator
	Sessions  SessionManager
	JWTSecret string
	Limiter   RateLimiter
}

type generateScriptRequest struct {
	ProductName        string   `json:"product_name"`
	ProductDescription string   `json:"product_description"`
	TimeInSeconds      float64  `json:"time_in_seconds"`
	SelectedTones      []string `json:"selected_tones"`
}

// Generate handles POST /api/v1/generate-script.
func (h ScriptHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if _, ok := identityFromRequest(r, h.Sessions, h.JWTSecret); !ok {
		respondUnauthorized(ctx, w)
		return
	}
	if !allowRequest(h.Limiter, r, "generate-script") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
		return
	}

	var req generateScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	results, err := h.Generator.Generate(ctx, scripts.Params{
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		TimeInSeconds:      int(req.TimeInSeconds),
		SelectedTones:      req.SelectedTones,
	})
	if err != nil {
		if errors.Is(err, scripts.ErrInvalidParams) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"message": "Missing required fields"})
			return
		}
		logging.FromContext(ctx).Error("generate scripts", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"message": "Failed to generate scripts"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"scripts": results})
}
