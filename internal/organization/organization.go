// Package organization implements CRUD for organization records.
package organization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an organization id resolves to nothing.
var ErrNotFound = errors.New("organization not found")

// Organization is a company record. CSVFilename records the most recently
// ingested file for the organization, if any.
type Organization struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	Location    string    `json:"location"`
	OrgType     string    `json:"orgType"`
	TeamSize    string    `json:"teamSize"`
	Website     string    `json:"website"`
	CSVFilename string    `json:"csvFilename,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateParams carries the fields a new organization needs. Every field
// is mandatory.
type CreateParams struct {
	CompanyName string `json:"companyName"`
	Location    string `json:"location"`
	OrgType     string `json:"orgType"`
	TeamSize    string `json:"teamSize"`
	Website     string `json:"website"`
}

// Store persists organizations. Postgres implementation below; tests use
// an in-memory fake.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Organization, error)
	Get(ctx context.Context, id string) (Organization, error)
	Delete(ctx context.Context, id string) error

	// SetCSVFilename records the latest ingested file on the org.
	SetCSVFilename(ctx context.Context, id, filename string) error
}

// Validate checks the required fields.
func (p CreateParams) Validate() error {
	for name, v := range map[string]string{
		"companyName": p.CompanyName,
		"location":    p.Location,
		"orgType":     p.OrgType,
		"teamSize":    p.TeamSize,
		"website":     p.Website,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}

// PostgresStore persists organizations in the organizations table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires a store over the shared pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, p CreateParams) (Organization, error) {
	if err := p.Validate(); err != nil {
		return Organization{}, err
	}

	const q = `
		INSERT INTO organizations (company_name, location, org_type, team_size, website)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	org := Organization{
		CompanyName: p.CompanyName,
		Location:    p.Location,
		OrgType:     p.OrgType,
		TeamSize:    p.TeamSize,
		Website:     p.Website,
	}
	err := s.pool.QueryRow(ctx, q, p.CompanyName, p.Location, p.OrgType, p.TeamSize, p.Website).
		Scan(&org.ID, &org.CreatedAt)
	if err != nil {
		return Organization{}, fmt.Errorf("insert organization: %w", err)
	}
	return org, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (Organization, error) {
	const q = `
		SELECT id, company_name, location, org_type, team_size, website,
		       COALESCE(csv_filename, ''), created_at
		FROM organizations WHERE id = $1`

	var org Organization
	err := s.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.CompanyName, &org.Location,
		&org.OrgType, &org.TeamSize, &org.Website, &org.CSVFilename, &org.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, ErrNotFound
	}
	if err != nil {
		return Organization{}, fmt.Errorf("select organization: %w", err)
	}
	return org, nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCSVFilename implements Store.
func (s *PostgresStore) SetCSVFilename(ctx context.Context, id, filename string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE organizations SET csv_filename = $2 WHERE id = $1`, id, filename)
	if err != nil {
		return fmt.Errorf("update organization csv filename: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
