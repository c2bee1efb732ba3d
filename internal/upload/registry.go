// Package upload tracks uploaded CSV originals and bounds how many of
// them may be ingested at once.
//
// The blob store holds the bytes; the registry holds the metadata the
// blob id alone cannot carry, most importantly the original filename
// that ingested records are tagged with.
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no uploaded file matches the given id.
var ErrNotFound = errors.New("file not found")

// File is one uploaded CSV original. ID doubles as the blob store key.
type File struct {
	ID         string    `json:"fileId"`
	Name       string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Registry persists file metadata. Postgres implementation below; tests
// use an in-memory fake.
type Registry interface {
	Create(ctx context.Context, f File) error

	// Get returns ErrNotFound when no file matches.
	Get(ctx context.Context, id string) (File, error)

	// Delete removes the metadata row. Deleting a missing file returns
	// ErrNotFound so callers can 404 cleanly.
	Delete(ctx context.Context, id string) error
}

// PostgresRegistry persists file metadata in the uploaded_files table
// (see schema.sql).
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry wires a registry over the shared pool.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// Create implements Registry.
func (r *PostgresRegistry) Create(ctx context.Context, f File) error {
	const q = `
		INSERT INTO uploaded_files (id, name, size, uploaded_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, q, f.ID, f.Name, f.Size, f.UploadedAt); err != nil {
		return fmt.Errorf("insert file %s: %w", f.ID, err)
	}
	return nil
}

// Get implements Registry.
func (r *PostgresRegistry) Get(ctx context.Context, id string) (File, error) {
	const q = `
		SELECT id, name, size, uploaded_at
		FROM uploaded_files WHERE id = $1`

	var f File
	err := r.pool.QueryRow(ctx, q, id).Scan(&f.ID, &f.Name, &f.Size, &f.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, fmt.Errorf("scan file %s: %w", id, err)
	}
	return f, nil
}

// Delete implements Registry.
func (r *PostgresRegistry) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM uploaded_files WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
