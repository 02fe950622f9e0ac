package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ugcstudio/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependenciesLocalStorage(t *testing.T) {
	cfg := config.Config{
		SessionTTL:    time.Hour,
		JWTSecret:     "test-secret",
		StorageDriver: "local",
		UploadDir:     filepath.Join(t.TempDir(), "uploads"),
		PublicBaseURL: "/uploads",
	}

	wired, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deps := wired.deps
	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Engine == nil {
		t.Fatal("expected lifecycle engine to be configured")
	}
	if deps.Admin == nil {
		t.Fatal("expected fulfillment workflow to be configured")
	}
	if deps.Scripts == nil {
		t.Fatal("expected script generator to be configured")
	}
	if deps.Media == nil {
		t.Fatal("expected media storage to be configured")
	}
	if deps.UploadRoot == "" {
		t.Fatal("expected local driver to expose an upload root")
	}
	if wired.engine == nil || wired.requests == nil {
		t.Fatal("expected ticker collaborators to be configured")
	}
}

func TestBuildDependenciesS3Storage(t *testing.T) {
	cfg := config.Config{
		SessionTTL:    time.Hour,
		StorageDriver: "s3",
		PublicBaseURL: "/uploads",
		ObjectStore: config.ObjectStoreConfig{
			Bucket:   "test-bucket",
			Endpoint: "http://localhost:9000",
			Region:   "us-east-1",
		},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	wired, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wired.deps.UploadRoot != "" {
		t.Fatal("s3 driver must not mount a local upload root")
	}
}

func TestBuildDependenciesUnknownDriver(t *testing.T) {
	cfg := config.Config{StorageDriver: "ftp"}

	if _, err := buildDependencies(context.Background(), fakePool{}, cfg); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}
