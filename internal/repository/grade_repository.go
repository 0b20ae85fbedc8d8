package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupoint-id/edupoint-api/internal/models"
)

// GradeRepository provides persistence for grade entries.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grade entries with optional filtering and pagination.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, int, error) {
	base := "FROM grades WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, student_id, classroom_id, subject, term, assessment, score, weight, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var grades []models.GradeEntry
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}

	return grades, total, nil
}

// FindByID loads a grade entry by id.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.GradeEntry, error) {
	const query = `SELECT id, student_id, classroom_id, subject, term, assessment, score, weight, created_at, updated_at FROM grades WHERE id = $1`
	var grade models.GradeEntry
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create stores a new grade entry.
func (r *GradeRepository) Create(ctx context.Context, grade *models.GradeEntry) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now

	const query = `INSERT INTO grades (id, student_id, classroom_id, subject, term, assessment, score, weight, created_at, updated_at) VALUES (:id, :student_id, :classroom_id, :subject, :term, :assessment, :score, :weight, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update modifies a grade entry.
func (r *GradeRepository) Update(ctx context.Context, grade *models.GradeEntry) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET student_id = :student_id, classroom_id = :classroom_id, subject = :subject, term = :term, assessment = :assessment, score = :score, weight = :weight, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade entry by id.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}

// ClassroomRecap computes weighted averages per student and subject.
func (r *GradeRepository) ClassroomRecap(ctx context.Context, classroomID, term string) ([]models.StudentGradeRecap, error) {
	const query = `SELECT g.student_id, s.full_name AS student_name, g.subject,
        COUNT(*) AS entries,
        CASE WHEN SUM(g.weight) > 0 THEN SUM(g.score * g.weight) / SUM(g.weight) ELSE 0 END AS average
        FROM grades g
        JOIN students s ON s.id = g.student_id
        WHERE g.classroom_id = $1 AND g.term = $2
        GROUP BY g.student_id, s.full_name, g.subject
        ORDER BY s.full_name ASC, g.subject ASC`
	var recap []models.StudentGradeRecap
	if err := r.db.SelectContext(ctx, &recap, query, classroomID, term); err != nil {
		return nil, fmt.Errorf("classroom grade recap: %w", err)
	}
	return recap, nil
}
