package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ugcstudio/backend/internal/admin"
	"github.com/ugcstudio/backend/internal/auth"
	"github.com/ugcstudio/backend/internal/config"
	"github.com/ugcstudio/backend/internal/db"
	"github.com/ugcstudio/backend/internal/handlers"
	"github.com/ugcstudio/backend/internal/middleware"
	"github.com/ugcstudio/backend/internal/repositories"
	"github.com/ugcstudio/backend/internal/requests"
	"github.com/ugcstudio/backend/internal/scripts"
	"github.com/ugcstudio/backend/internal/storage"
)

// components carries the wired collaborators serve needs beyond the HTTP
// dependency struct, chiefly the pieces the progress tickers run against.
type components struct {
	deps     handlers.Dependencies
	engine   *requests.Engine
	requests *repositories.PostgresRequestRepository
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers and the background tickers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (components, error) {
	userRepo := repositories.NewPostgresUserRepository(pool)
	requestRepo := repositories.NewPostgresRequestRepository(pool)
	uploadRepo := repositories.NewPostgresFileUploadRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	files, publicBase, uploadRoot, err := buildStorage(ctx, cfg)
	if err != nil {
		return components{}, err
	}

	engine := requests.NewEngine(requestRepo)
	engine.HoldForFulfillment = cfg.HoldForFulfillment

	workflow := admin.NewWorkflow(requestRepo, uploadRepo, files, publicBase)
	generator := scripts.NewGenerator(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL, cfg.ScriptTimeout)

	deps := handlers.Dependencies{
		Users:    userRepo,
		Sessions: auth.NewManager(cfg.SessionTTL, sessionStore, userRepo),
		Engine:   engine,
		Admin:    workflow,
		Scripts:  generator,
		Media:    files,

		AuthLimiter:   middleware.NewIPRateLimiter(10, time.Minute, 10, 10*time.Minute),
		ScriptLimiter: middleware.NewIPRateLimiter(5, time.Minute, 5, 10*time.Minute),

		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
		Production: cfg.Production(),

		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,

		UploadRoot: uploadRoot,
	}

	return components{deps: deps, engine: engine, requests: requestRepo}, nil
}

func buildStorage(ctx context.Context, cfg config.Config) (storage.Store, string, string, error) {
	switch cfg.StorageDriver {
	case "local", "":
		store, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", "", fmt.Errorf("init local storage: %w", err)
		}
		return store, cfg.PublicBaseURL, store.Root(), nil
	case "s3":
		store, err := storage.NewS3Store(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, "", "", fmt.Errorf("init object storage: %w", err)
		}
		publicBase := cfg.ObjectStore.PublicBaseURL
		if publicBase == "" {
			publicBase = cfg.PublicBaseURL
		}
		return store, publicBase, "", nil
	default:
		return nil, "", "", fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
