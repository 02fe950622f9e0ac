package models

import "time"

// Role identifies the authorization level of an account.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account within the UGC Studio platform.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Credits      int
	CreatedAt    time.Time
}

// Identity is the resolved caller passed into lifecycle and workflow
// operations. Business logic never re-derives it from cookies.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// RequestKind discriminates the two request variants.
type RequestKind string

const (
	KindAd      RequestKind = "ad"
	KindEditing RequestKind = "editing"
)

// Valid reports whether the kind is one of the known variants.
func (k RequestKind) Valid() bool {
	return k == KindAd || k == KindEditing
}

// StorageSegment returns the path segment used for uploads of this kind.
func (k RequestKind) StorageSegment() string {
	if k == KindAd {
		return "ads"
	}
	return string(k)
}

// Request lifecycle states.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Request is an ad or editing job tracked through the progress lifecycle.
// The Kind field discriminates which variant-specific fields are populated.
type Request struct {
	ID               string
	Kind             RequestKind
	UserID           string
	Status           string
	Progress         int
	EstimatedReady   time.Time
	CompletedFileURL *string
	CreditsUsed      int
	Version          int64
	CreatedAt        time.Time

	// Denormalized for admin listings; empty elsewhere.
	OwnerEmail string

	Ad      *AdDetails
	Editing *EditingDetails
}

// AdDetails holds the fields specific to UGC ad requests.
type AdDetails struct {
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

// EditingDetails holds the fields specific to video editing requests.
type EditingDetails struct {
	ProjectName    string
	RawFootageURL  string
	EditingStyle   string
	Instructions   string
	ReferenceLinks *string
	DesiredLength  string
	CustomLength   *string
}

// Session maps an opaque token to a user with an expiry. Expired sessions are
// treated as absent rather than actively reaped.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// FileUpload is the audit record written for every raw upload. Rows are only
// ever inserted, never mutated.
type FileUpload struct {
	ID        string
	Filename  string
	Path      string
	RequestID string
	UserID    string
	Kind      RequestKind
	CreatedAt time.Time
}

// Stats aggregates request counts for the admin dashboard.
type Stats struct {
	TotalRequests     int
	CompletedRequests int
	PendingRequests   int
}

// UserRollup summarizes a user's request activity across both variants.
type UserRollup struct {
	ID                string
	Name              string
	Email             string
	TotalRequests     int
	CompletedRequests int
	LastRequest       *time.Time
}
