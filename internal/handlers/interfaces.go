package handlers

import (
	"context"
	"io"

	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/requests"
	"github.com/ugcstudio/backend/internal/scripts"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, resolves, and revokes session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.Session, error)
	Resolve(ctx context.Context, token string) (models.Identity, error)
	Revoke(ctx context.Context, token string)
}

// LifecycleEngine captures the request lifecycle operations used by the
// client-facing handlers.
type LifecycleEngine interface {
	Create(ctx context.Context, identity models.Identity, payload requests.Payload) (models.Request, error)
	Get(ctx context.Context, identity models.Identity, kind models.RequestKind, id string) (models.Request, error)
	ListForUser(ctx context.Context, identity models.Identity, kind models.RequestKind) ([]models.Request, error)
}

// FulfillmentWorkflow captures the operator-facing operations used by the
// admin handlers.
type FulfillmentWorkflow interface {
	ListOutstanding(ctx context.Context, kind models.RequestKind) ([]models.Request, error)
	Stats(ctx context.Context) (models.Stats, error)
	UserRollups(ctx context.Context) ([]models.UserRollup, error)
	ListCandidateFiles(ctx context.Context, kind models.RequestKind, requestID string) ([]string, error)
	CompleteWithSelection(ctx context.Context, kind models.RequestKind, requestID, filename string) (models.Request, error)
	FinalizeUpload(ctx context.Context, kind models.RequestKind, requestID, filename string, content io.Reader) (models.Request, error)
	RecordUpload(ctx context.Context, kind models.RequestKind, requestID, userID, filename string, content io.Reader) (string, error)
}

// ScriptGenerator produces ad scripts through the upstream chat-completion API.
type ScriptGenerator interface {
	Generate(ctx context.Context, params scripts.Params) ([]scripts.Script, error)
}

// MediaSaver stores client-side media uploads (avatars, product images, raw
// footage) and returns their public URLs.
type MediaSaver interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
