package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ugcstudio/backend/internal/models"
	"github.com/ugcstudio/backend/internal/repositories"
)

const readyAfter = 7 * 24 * time.Hour

// Store captures the persistence operations the lifecycle engine requires.
type Store interface {
	CreateWithDebit(ctx context.Context, request models.Request) error
	FindByID(ctx context.Context, kind models.RequestKind, id string) (models.Request, error)
	ListByUser(ctx context.Context, kind models.RequestKind, userID string) ([]models.Request, error)
	UpdateProgress(ctx context.Context, request models.Request) error
}

// Payload is a variant-specific creation payload. Implementations validate
// their own required fields and populate the variant details on the request.
type Payload interface {
	Kind() models.RequestKind
	validate() map[string]string
	apply(*models.Request)
}

// Engine governs the request lifecycle: creation with an atomic credit debit,
// ticker-driven progress advancement, and identity-scoped reads.
type Engine struct {
	store Store

	// HoldForFulfillment caps ticker-driven progress at 99% so only operator
	// fulfillment moves a request to COMPLETED.
	HoldForFulfillment bool

	NowFunc func() time.Time
}

// NewEngine constructs a lifecycle engine over the provided store.
func NewEngine(store Store) *Engine {
	if store == nil {
		panic("requests: store must not be nil")
	}
	return &Engine{store: store}
}

// Create validates the payload, computes the ready estimate, and atomically
// debits the owner's credits while inserting the new PENDING request.
func (e *Engine) Create(ctx context.Context, identity models.Identity, payload Payload) (models.Request, error) {
	if identity.UserID == "" {
		return models.Request{}, ErrUnauthenticated
	}

	policy, ok := PolicyFor(payload.Kind())
	if !ok {
		return models.Request{}, fmt.Errorf("unknown request kind %q", payload.Kind())
	}

	if fields := payload.validate(); len(fields) > 0 {
		return models.Request{}, &ValidationError{Fields: fields}
	}

	now := e.now()
	request := models.Request{
		ID:             uuid.NewString(),
		Kind:           policy.Kind,
		UserID:         identity.UserID,
		Status:         models.StatusPending,
		Progress:       0,
		EstimatedReady: now.Add(readyAfter),
		CreditsUsed:    policy.Cost,
		CreatedAt:      now,
	}
	payload.apply(&request)

	if err := e.store.CreateWithDebit(ctx, request); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return models.Request{}, ErrNotFound
		case errors.Is(err, repositories.ErrInsufficientCredits):
			return models.Request{}, ErrInsufficientCredits
		default:
			return models.Request{}, fmt.Errorf("create request: %w", err)
		}
	}

	return request, nil
}

// AdvanceProgress applies one ticker step: progress increases by the kind's
// step clamped at 100, status moves to PROCESSING mid-flight and COMPLETED at
// 100. Editing requests reaching 100 through this path receive a placeholder
// file URL; ad requests do not.
func (e *Engine) AdvanceProgress(ctx context.Context, request models.Request) (models.Request, error) {
	policy, ok := PolicyFor(request.Kind)
	if !ok {
		return models.Request{}, fmt.Errorf("unknown request kind %q", request.Kind)
	}

	progress := request.Progress + policy.ProgressStep
	if progress > 100 {
		progress = 100
	}
	if e.HoldForFulfillment && progress >= 100 {
		progress = 99
	}

	updated := request
	updated.Progress = progress
	switch {
	case progress >= 100:
		updated.Status = models.StatusCompleted
		if policy.PlaceholderURL != nil && updated.CompletedFileURL == nil {
			url := policy.PlaceholderURL(request.ID)
			updated.CompletedFileURL = &url
		}
	case progress > 0:
		updated.Status = models.StatusProcessing
	}

	// A held request parked at 99 would otherwise be rewritten every pass,
	// bumping the version without changing anything.
	if updated.Progress == request.Progress &&
		updated.Status == request.Status &&
		updated.CompletedFileURL == request.CompletedFileURL {
		return request, nil
	}

	if err := e.store.UpdateProgress(ctx, updated); err != nil {
		return models.Request{}, err
	}

	updated.Version = request.Version + 1
	return updated, nil
}

// Get returns a single request. Owners read their own rows; admin identities
// may read any. The denial for a foreign row is generic so callers cannot
// probe which check failed.
func (e *Engine) Get(ctx context.Context, identity models.Identity, kind models.RequestKind, id string) (models.Request, error) {
	if identity.UserID == "" {
		return models.Request{}, ErrUnauthenticated
	}

	request, err := e.store.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Request{}, ErrNotFound
		}
		return models.Request{}, fmt.Errorf("find request: %w", err)
	}

	if request.UserID != identity.UserID && !identity.IsAdmin() {
		return models.Request{}, ErrUnauthorized
	}

	return request, nil
}

// ListForUser returns the caller's own requests of the given kind, newest
// first. Authorization is identity-based: the listing is always scoped to the
// resolved user id, never to caller-supplied input.
func (e *Engine) ListForUser(ctx context.Context, identity models.Identity, kind models.RequestKind) ([]models.Request, error) {
	if identity.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return e.store.ListByUser(ctx, kind, identity.UserID)
}

func (e *Engine) now() time.Time {
	if e.NowFunc != nil {
		return e.NowFunc()
	}
	return time.Now().UTC()
}

// AdPayload carries the fields accepted when creating a UGC ad request.
type AdPayload struct {
	ServiceType    string
	BrandName      string
	ProductName    string
	Description    string
	TargetAudience string
	VideoDuration  string
	SelectedTones  []string
	Script         string
	WebsiteLink    *string
	ReferenceLink  *string
	Avatar         *string
	ProductImage   *string
}

// Kind identifies the variant this payload creates.
func (AdPayload) Kind() models.RequestKind { return models.KindAd }

func (p AdPayload) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(p.ServiceType) == "" {
		fields["serviceType"] = "service type is required"
	}
	if strings.TrimSpace(p.BrandName) == "" {
		fields["brandName"] = "brand name is required"
	}
	if strings.TrimSpace(p.ProductName) == "" {
		fields["productName"] = "product name is required"
	}
	if strings.TrimSpace(p.Script) == "" {
		fields["script"] = "a selected script is required"
	}
	if len(p.SelectedTones) != 3 {
		fields["selectedTones"] = "exactly 3 tones must be selected"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (p AdPayload) apply(request *models.Request) {
	duration := p.VideoDuration
	if duration == "" {
		duration = "30"
	}
	request.Ad = &models.AdDetails{
		ServiceType:    p.ServiceType,
		BrandName:      p.BrandName,
		ProductName:    p.ProductName,
		Description:    p.Description,
		TargetAudience: p.TargetAudience,
		VideoDuration:  duration,
		SelectedTones:  p.SelectedTones,
		Script:         p.Script,
		WebsiteLink:    p.WebsiteLink,
		ReferenceLink:  p.ReferenceLink,
		Avatar:         p.Avatar,
		ProductImage:   p.ProductImage,
	}
}

// EditingPayload carries the fields accepted when creating an editing request.
type EditingPayload struct {
	ProjectName    string
	RawFootageURL  string
	EditingStyle   string
	Instructions   string
	ReferenceLinks *string
	DesiredLength  string
	CustomLength   *string
}

// Kind identifies the variant this payload creates.
func (EditingPayload) Kind() models.RequestKind { return models.KindEditing }

func (p EditingPayload) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(p.ProjectName) == "" {
		fields["projectName"] = "project name is required"
	}
	if strings.TrimSpace(p.RawFootageURL) == "" {
		fields["rawFootage"] = "raw footage is required"
	}
	if strings.TrimSpace(p.EditingStyle) == "" {
		fields["editingStyle"] = "editing style is required"
	}
	if p.DesiredLength == "custom" && (p.CustomLength == nil || strings.TrimSpace(*p.CustomLength) == "") {
		fields["customLength"] = "custom length is required when desired length is custom"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (p EditingPayload) apply(request *models.Request) {
	request.Editing = &models.EditingDetails{
		ProjectName:    p.ProjectName,
		RawFootageURL:  p.RawFootageURL,
		EditingStyle:   p.EditingStyle,
		Instructions:   p.Instructions,
		ReferenceLinks: p.ReferenceLinks,
		DesiredLength:  p.DesiredLength,
		CustomLength:   p.CustomLength,
	}
}
