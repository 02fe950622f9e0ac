package handlers

import (
	"net/http"
	"time"

	"github.com/ugcstudio/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{
		Users:      deps.Users,
		Sessions:   deps.Sessions,
		Limiter:    deps.AuthLimiter,
		JWTSecret:  deps.JWTSecret,
		SessionTTL: deps.SessionTTL,
		Production: deps.Production,
	}
	reqs := RequestHandler{Engine: deps.Engine, Sessions: deps.Sessions, JWTSecret: deps.JWTSecret}
	uploads := UploadHandler{Media: deps.Media, Sessions: deps.Sessions, JWTSecret: deps.JWTSecret}
	scripts := ScriptHandler{Generator: deps.Scripts, Sessions: deps.Sessions, JWTSecret: deps.JWTSecret, Limiter: deps.ScriptLimiter}
	admin := AdminHandler{Workflow: deps.Admin}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/requests/ads", reqs.Ads)
	mux.HandleFunc("/api/v1/requests/editing", reqs.Editing)
	mux.HandleFunc("GET /api/v1/requests/{kind}/{id}", reqs.Detail)
	mux.HandleFunc("/api/v1/uploads", uploads.Upload)
	mux.HandleFunc("/api/v1/generate-script", scripts.Generate)

	gate := middleware.AdminBasicAuth(deps.AdminUsername, deps.AdminPassword)
	mux.Handle("/api/v1/admin/ads", gate(http.HandlerFunc(admin.ListAds)))
	mux.Handle("/api/v1/admin/editing", gate(http.HandlerFunc(admin.ListEditing)))
	mux.Handle("/api/v1/admin/stats", gate(http.HandlerFunc(admin.Stats)))
	mux.Handle("/api/v1/admin/users", gate(http.HandlerFunc(admin.Users)))
	mux.Handle("/api/v1/admin/requests/{kind}/{id}/files", gate(http.HandlerFunc(admin.CandidateFiles)))
	mux.Handle("/api/v1/admin/requests/{kind}/{id}/complete", gate(http.HandlerFunc(admin.Complete)))
	mux.Handle("/api/v1/admin/upload", gate(http.HandlerFunc(admin.Upload)))
	mux.Handle("/api/v1/admin/upload-final", gate(http.HandlerFunc(admin.UploadFinal)))

	if deps.UploadRoot != "" {
		mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadRoot))))
	}
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Engine   LifecycleEngine
	Admin    FulfillmentWorkflow
	Scripts  ScriptGenerator
	Media    MediaSaver

	AuthLimiter   RateLimiter
	ScriptLimiter RateLimiter

	JWTSecret  string
	SessionTTL time.Duration
	Production bool

	AdminUsername string
	AdminPassword string

	// UploadRoot, when set, serves stored files directly from disk. Left
	// empty when an object store fronts the uploads instead.
	UploadRoot string
}
