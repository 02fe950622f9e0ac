package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ugcstudio/backend/internal/db"
	"github.com/ugcstudio/backend/internal/models"
)

// PostgresRequestRepository provides PostgreSQL-backed persistence for ad and
// editing requests. Both variants share one table discriminated by kind.
type PostgresRequestRepository struct {
	pool db.Pool
}

// NewPostgresRequestRepository constructs a request repository backed by PostgreSQL.
func NewPostgresRequestRepository(pool db.Pool) *PostgresRequestRepository {
	return &PostgresRequestRepository{pool: pool}
}

const requestColumns = `
    id, kind, user_id, status, progress, estimated_ready, completed_file_url,
    credits_used, version, created_at,
    service_type, brand_name, product_name, description, target_audience,
    video_duration, selected_tones, script, website_link, reference_link,
    avatar, product_image,
    project_name, raw_footage_url, editing_style, instructions,
    reference_links, desired_length, custom_length`

// CreateWithDebit atomically debits the owner's credit balance and inserts the
// request. Either both writes persist or neither does. The debit is guarded so
// the balance never goes below zero.
func (r *PostgresRequestRepository) CreateWithDebit(ctx context.Context, request models.Request) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin debit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
        UPDATE users
        SET credits = credits - $2
        WHERE id = $1 AND credits >= $2
    `, request.UserID, request.CreditsUsed)
	if err != nil {
		return fmt.Errorf("debit credits: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, request.UserID).Scan(&exists); err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInsufficientCredits
	}

	ad, editing := variantColumns(request)

	_, err = tx.Exec(ctx, `
        INSERT INTO requests (
            id, kind, user_id, status, progress, estimated_ready,
            completed_file_url, credits_used, version, created_at,
            service_type, brand_name, product_name, description,
            target_audience, video_duration, selected_tones, script,
            website_link, reference_link, avatar, product_image,
            project_name, raw_footage_url, editing_style, instructions,
            reference_links, desired_length, custom_length
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
            $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22,
            $23, $24, $25, $26, $27, $28, $29
        )
    `, request.ID, request.Kind, request.UserID, request.Status, request.Progress,
		request.EstimatedReady, request.CompletedFileURL, request.CreditsUsed,
		request.Version, request.CreatedAt,
		ad.ServiceType, ad.BrandName, ad.ProductName, ad.Description,
		ad.TargetAudience, ad.VideoDuration, ad.SelectedTones, ad.Script,
		ad.WebsiteLink, ad.ReferenceLink, ad.Avatar, ad.ProductImage,
		editing.ProjectName, editing.RawFootageURL, editing.EditingStyle,
		editing.Instructions, editing.ReferenceLinks, editing.DesiredLength,
		editing.CustomLength)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit debit transaction: %w", err)
	}

	return nil
}

// FindByID fetches a request of the given kind by identifier.
func (r *PostgresRequestRepository) FindByID(ctx context.Context, kind models.RequestKind, id string) (models.Request, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Request{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+requestColumns+`
        FROM requests
        WHERE id = $1 AND kind = $2
    `, id, kind)

	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Request{}, ErrNotFound
		}
		return models.Request{}, fmt.Errorf("select request: %w", err)
	}
	return request, nil
}

// ListByUser returns the user's requests of the given kind, newest first.
func (r *PostgresRequestRepository) ListByUser(ctx context.Context, kind models.RequestKind, userID string) ([]models.Request, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+requestColumns+`
        FROM requests
        WHERE kind = $1 AND user_id = $2
        ORDER BY created_at DESC
    `, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("query requests by user: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ListByStatus returns requests of the given kind whose status is in the set.
// The ticker uses this to select rows eligible for progress advancement.
func (r *PostgresRequestRepository) ListByStatus(ctx context.Context, kind models.RequestKind, statuses []string) ([]models.Request, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+requestColumns+`
        FROM requests
        WHERE kind = $1 AND status = ANY($2)
        ORDER BY created_at
    `, kind, statuses)
	if err != nil {
		return nil, fmt.Errorf("query requests by status: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ListAll returns every request of the given kind with the owner's email
// denormalized for the admin listing, newest first.
func (r *PostgresRequestRepository) ListAll(ctx context.Context, kind models.RequestKind) ([]models.Request, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT r.id, r.kind, r.user_id, r.status, r.progress, r.estimated_ready,
               r.completed_file_url, r.credits_used, r.version, r.created_at,
               r.service_type, r.brand_name, r.product_name, r.description,
               r.target_audience, r.video_duration, r.selected_tones, r.script,
               r.website_link, r.reference_link, r.avatar, r.product_image,
               r.project_name, r.raw_footage_url, r.editing_style,
               r.instructions, r.reference_links, r.desired_length,
               r.custom_length, u.email
        FROM requests r
        JOIN users u ON u.id = r.user_id
        WHERE r.kind = $1
        ORDER BY r.created_at DESC
    `, kind)
	if err != nil {
		return nil, fmt.Errorf("query all requests: %w", err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		request, err := scanRequestInto(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

// UpdateProgress applies a progress/status update guarded by the row version.
// A concurrent writer bumping the version first yields ErrVersionConflict so
// ticker and fulfillment writes serialize per request.
func (r *PostgresRequestRepository) UpdateProgress(ctx context.Context, request models.Request) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE requests
        SET progress = $4, status = $5, completed_file_url = $6, version = version + 1
        WHERE id = $1 AND kind = $2 AND version = $3
    `, request.ID, request.Kind, request.Version, request.Progress, request.Status, request.CompletedFileURL)
	if err != nil {
		return fmt.Errorf("update request progress: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1 AND kind = $2)`, request.ID, request.Kind).Scan(&exists); err != nil {
			return fmt.Errorf("check request exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	return nil
}

// Complete marks a request fulfilled with the operator-supplied file URL. The
// version bump invalidates any in-flight ticker update on the same row.
func (r *PostgresRequestRepository) Complete(ctx context.Context, kind models.RequestKind, id, fileURL string) (models.Request, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Request{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE requests
        SET status = $3, progress = 100, completed_file_url = $4, version = version + 1
        WHERE id = $1 AND kind = $2
        RETURNING `+requestColumns+`
    `, id, kind, models.StatusCompleted, fileURL)

	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Request{}, ErrNotFound
		}
		return models.Request{}, fmt.Errorf("complete request: %w", err)
	}
	return request, nil
}

// Stats returns aggregate counts across both request kinds.
func (r *PostgresRequestRepository) Stats(ctx context.Context) (models.Stats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var stats models.Stats
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = $1)
        FROM requests
    `, models.StatusCompleted)
	if err := row.Scan(&stats.TotalRequests, &stats.CompletedRequests); err != nil {
		return models.Stats{}, fmt.Errorf("select request stats: %w", err)
	}

	stats.PendingRequests = stats.TotalRequests - stats.CompletedRequests
	return stats, nil
}

// UserRollups returns per-user request totals across both kinds.
func (r *PostgresRequestRepository) UserRollups(ctx context.Context) ([]models.UserRollup, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT u.id, u.name, u.email,
               COUNT(r.id),
               COUNT(r.id) FILTER (WHERE r.status = $1),
               MAX(r.created_at)
        FROM users u
        LEFT JOIN requests r ON r.user_id = u.id
        GROUP BY u.id, u.name, u.email
        ORDER BY u.created_at
    `, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("query user rollups: %w", err)
	}
	defer rows.Close()

	var rollups []models.UserRollup
	for rows.Next() {
		var (
			rollup models.UserRollup
			last   *time.Time
		)
		if err := rows.Scan(&rollup.ID, &rollup.Name, &rollup.Email, &rollup.TotalRequests, &rollup.CompletedRequests, &last); err != nil {
			return nil, fmt.Errorf("scan user rollup: %w", err)
		}
		if rollup.Name == "" {
			rollup.Name = "Unknown"
		}
		rollup.LastRequest = last
		rollups = append(rollups, rollup)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rollups: %w", err)
	}

	return rollups, nil
}

// variantColumns flattens the populated variant onto the shared column set.
// The absent variant binds zero values. A nil tone slice must become an empty
// slice here: pgx encodes nil as SQL NULL, which the NOT NULL array column
// rejects on editing-kind inserts.
func variantColumns(request models.Request) (models.AdDetails, models.EditingDetails) {
	var (
		ad      models.AdDetails
		editing models.EditingDetails
	)
	if request.Ad != nil {
		ad = *request.Ad
	}
	if request.Editing != nil {
		editing = *request.Editing
	}
	if ad.SelectedTones == nil {
		ad.SelectedTones = []string{}
	}
	return ad, editing
}

func collectRequests(rows pgx.Rows) ([]models.Request, error) {
	var requests []models.Request
	for rows.Next() {
		request, err := scanRequestInto(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

func scanRequest(row pgx.Row) (models.Request, error) {
	return scanRequestInto(row, false)
}

func scanRequestInto(row pgx.Row, withOwner bool) (models.Request, error) {
	var (
		request models.Request
		ad      models.AdDetails
		editing models.EditingDetails
	)

	dest := []any{
		&request.ID, &request.Kind, &request.UserID, &request.Status,
		&request.Progress, &request.EstimatedReady, &request.CompletedFileURL,
		&request.CreditsUsed, &request.Version, &request.CreatedAt,
		&ad.ServiceType, &ad.BrandName, &ad.ProductName, &ad.Description,
		&ad.TargetAudience, &ad.VideoDuration, &ad.SelectedTones, &ad.Script,
		&ad.WebsiteLink, &ad.ReferenceLink, &ad.Avatar, &ad.ProductImage,
		&editing.ProjectName, &editing.RawFootageURL, &editing.EditingStyle,
		&editing.Instructions, &editing.ReferenceLinks, &editing.DesiredLength,
		&editing.CustomLength,
	}
	if withOwner {
		dest = append(dest, &request.OwnerEmail)
	}

	if err := row.Scan(dest...); err != nil {
		return models.Request{}, err
	}

	switch request.Kind {
	case models.KindAd:
		request.Ad = &ad
	case models.KindEditing:
		request.Editing = &editing
	}

	return request, nil
}
