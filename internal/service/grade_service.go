package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, int, error)
	FindByID(ctx context.Context, id string) (*models.GradeEntry, error)
	Create(ctx context.Context, grade *models.GradeEntry) error
	Update(ctx context.Context, grade *models.GradeEntry) error
	Delete(ctx context.Context, id string) error
	ClassroomRecap(ctx context.Context, classroomID, term string) ([]models.StudentGradeRecap, error)
}

// GradeRequest describes payload for recording a grade.
type GradeRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	ClassroomID string  `json:"classroom_id" validate:"required"`
	Subject     string  `json:"subject" validate:"required"`
	Term        string  `json:"term" validate:"required"`
	Assessment  string  `json:"assessment" validate:"required"`
	Score       float64 `json:"score" validate:"min=0,max=100"`
	Weight      float64 `json:"weight" validate:"gt=0"`
}

// GradeService coordinates grading workflows.
type GradeService struct {
	repo      gradeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService instantiates GradeService.
func NewGradeService(repo gradeRepository, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, validator: validate, logger: logger}
}

// List returns grade entries with pagination metadata.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, *models.Pagination, error) {
	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return grades, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create records a new grade entry.
func (s *GradeService) Create(ctx context.Context, req GradeRequest) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	grade := models.GradeEntry{
		StudentID:   req.StudentID,
		ClassroomID: req.ClassroomID,
		Subject:     req.Subject,
		Term:        req.Term,
		Assessment:  req.Assessment,
		Score:       req.Score,
		Weight:      req.Weight,
	}
	if err := s.repo.Create(ctx, &grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	return &grade, nil
}

// Update modifies an existing grade entry.
func (s *GradeService) Update(ctx context.Context, id string, req GradeRequest) (*models.GradeEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	existing.StudentID = req.StudentID
	existing.ClassroomID = req.ClassroomID
	existing.Subject = req.Subject
	existing.Term = req.Term
	existing.Assessment = req.Assessment
	existing.Score = req.Score
	existing.Weight = req.Weight
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return existing, nil
}

// Delete removes a grade entry.
func (s *GradeService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}

// ClassroomRecap returns weighted averages per student and subject.
func (s *GradeService) ClassroomRecap(ctx context.Context, classroomID, term string) ([]models.StudentGradeRecap, error) {
	if classroomID == "" || term == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classroom id and term are required")
	}
	recap, err := s.repo.ClassroomRecap(ctx, classroomID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build grade recap")
	}
	return recap, nil
}
