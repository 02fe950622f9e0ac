package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ugcstudio/backend/internal/db"
	"github.com/ugcstudio/backend/internal/models"
)

// PostgresFileUploadRepository records upload audit rows in PostgreSQL.
type PostgresFileUploadRepository struct {
	pool db.Pool
}

// NewPostgresFileUploadRepository constructs a file upload repository backed by PostgreSQL.
func NewPostgresFileUploadRepository(pool db.Pool) *PostgresFileUploadRepository {
	return &PostgresFileUploadRepository{pool: pool}
}

// Create persists an upload audit record.
func (r *PostgresFileUploadRepository) Create(ctx context.Context, upload models.FileUpload) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO file_uploads (id, filename, path, request_id, user_id, kind, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, upload.ID, upload.Filename, upload.Path, upload.RequestID, upload.UserID, upload.Kind, upload.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert file upload: %w", err)
	}

	return nil
}

// ListByRequest returns the audit rows recorded for a request, oldest first.
func (r *PostgresFileUploadRepository) ListByRequest(ctx context.Context, requestID string) ([]models.FileUpload, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, filename, path, request_id, user_id, kind, created_at
        FROM file_uploads
        WHERE request_id = $1
        ORDER BY created_at
    `, requestID)
	if err != nil {
		return nil, fmt.Errorf("query file uploads: %w", err)
	}
	defer rows.Close()

	var uploads []models.FileUpload
	for rows.Next() {
		var upload models.FileUpload
		if err := rows.Scan(&upload.ID, &upload.Filename, &upload.Path, &upload.RequestID, &upload.UserID, &upload.Kind, &upload.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan file upload: %w", err)
		}
		uploads = append(uploads, upload)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file uploads: %w", err)
	}

	return uploads, nil
}
