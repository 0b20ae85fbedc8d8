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

type classroomRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Roster(ctx context.Context, classroomID string) ([]models.RosterEntry, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Update(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id string) error
}

// ClassroomRequest describes payload for creating or updating a classroom.
type ClassroomRequest struct {
	CampusID        string  `json:"campus_id" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	HomeroomTeacher *string `json:"homeroom_teacher"`
	Active          *bool   `json:"active"`
}

// ClassroomService coordinates classroom and roster reads.
type ClassroomService struct {
	repo      classroomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassroomService instantiates ClassroomService.
func NewClassroomService(repo classroomRepository, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{repo: repo, validator: validate, logger: logger}
}

// List returns classrooms with pagination metadata.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	classrooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classrooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one classroom.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	classroom, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	return classroom, nil
}

// Roster returns the classroom's enrolled students.
func (s *ClassroomService) Roster(ctx context.Context, id string) ([]models.RosterEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	roster, err := s.repo.Roster(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// Create inserts a new classroom.
func (s *ClassroomService) Create(ctx context.Context, req ClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom := models.Classroom{CampusID: req.CampusID, Name: req.Name, HomeroomTeacher: req.HomeroomTeacher, Active: true}
	if req.Active != nil {
		classroom.Active = *req.Active
	}
	if err := s.repo.Create(ctx, &classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return &classroom, nil
}

// Update modifies an existing classroom.
func (s *ClassroomService) Update(ctx context.Context, id string, req ClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.CampusID = req.CampusID
	existing.Name = req.Name
	existing.HomeroomTeacher = req.HomeroomTeacher
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update classroom")
	}
	return existing, nil
}

// Delete removes a classroom.
func (s *ClassroomService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete classroom")
	}
	return nil
}
