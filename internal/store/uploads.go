package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UploadRecord is the bookkeeping row written for each accepted upload.
// The sticky token itself is never persisted; it travels with the client.
type UploadRecord struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	StoredName  string    `json:"stored_name"`
	Storage     string    `json:"storage"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	TokenScope  string    `json:"token_scope"`
	CreatedAt   time.Time `json:"created_at"`
}

// InsertUpload records an accepted upload.
func (s *Store) InsertUpload(ctx context.Context, rec UploadRecord) error {
	query := s.rebind(`INSERT INTO _uploads
		(id, filename, stored_name, storage, content_type, size, token_scope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	// Timestamps travel as RFC3339 text; sqlite has no native timestamp type.
	_, err := s.DB.ExecContext(ctx, query,
		rec.ID, rec.Filename, rec.StoredName, rec.Storage,
		rec.ContentType, rec.Size, rec.TokenScope, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert _uploads: %w", err)
	}
	return nil
}

// GetUpload fetches a single record by id, or ErrNotFound.
func (s *Store) GetUpload(ctx context.Context, id string) (*UploadRecord, error) {
	query := s.rebind(`SELECT id, filename, stored_name, storage, content_type, size, token_scope, created_at
		FROM _uploads WHERE id = $1`)
	var rec UploadRecord
	var created string
	err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Filename, &rec.StoredName, &rec.Storage,
		&rec.ContentType, &rec.Size, &rec.TokenScope, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get _uploads: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &rec, nil
}

// ListUploads returns all records, newest first.
func (s *Store) ListUploads(ctx context.Context) ([]UploadRecord, error) {
	query := `SELECT id, filename, stored_name, storage, content_type, size, token_scope, created_at
		FROM _uploads ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list _uploads: %w", err)
	}
	defer rows.Close()

	records := []UploadRecord{}
	for rows.Next() {
		var rec UploadRecord
		var created string
		if err := rows.Scan(
			&rec.ID, &rec.Filename, &rec.StoredName, &rec.Storage,
			&rec.ContentType, &rec.Size, &rec.TokenScope, &created); err != nil {
			return nil, fmt.Errorf("scan _uploads: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}
