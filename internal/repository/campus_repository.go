package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupoint-id/edupoint-api/internal/models"
)

// CampusRepository provides persistence for campuses.
type CampusRepository struct {
	db *sqlx.DB
}

// NewCampusRepository creates a new campus repository.
func NewCampusRepository(db *sqlx.DB) *CampusRepository {
	return &CampusRepository{db: db}
}

// List returns all campuses ordered by code.
func (r *CampusRepository) List(ctx context.Context) ([]models.Campus, error) {
	const query = `SELECT id, code, name, address, active, created_at, updated_at FROM campuses ORDER BY code ASC`
	var campuses []models.Campus
	if err := r.db.SelectContext(ctx, &campuses, query); err != nil {
		return nil, fmt.Errorf("list campuses: %w", err)
	}
	return campuses, nil
}

// FindByID loads a campus by id.
func (r *CampusRepository) FindByID(ctx context.Context, id string) (*models.Campus, error) {
	const query = `SELECT id, code, name, address, active, created_at, updated_at FROM campuses WHERE id = $1`
	var campus models.Campus
	if err := r.db.GetContext(ctx, &campus, query, id); err != nil {
		return nil, err
	}
	return &campus, nil
}

// Create stores a new campus.
func (r *CampusRepository) Create(ctx context.Context, campus *models.Campus) error {
	if campus.ID == "" {
		campus.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if campus.CreatedAt.IsZero() {
		campus.CreatedAt = now
	}
	campus.UpdatedAt = now

	const query = `INSERT INTO campuses (id, code, name, address, active, created_at, updated_at) VALUES (:id, :code, :name, :address, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, campus); err != nil {
		return fmt.Errorf("create campus: %w", err)
	}
	return nil
}

// Update modifies a campus record.
func (r *CampusRepository) Update(ctx context.Context, campus *models.Campus) error {
	campus.UpdatedAt = time.Now().UTC()
	const query = `UPDATE campuses SET code = :code, name = :name, address = :address, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, campus); err != nil {
		return fmt.Errorf("update campus: %w", err)
	}
	return nil
}

// Delete removes a campus by id.
func (r *CampusRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM campuses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete campus: %w", err)
	}
	return nil
}
