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

type campusRepository interface {
	List(ctx context.Context) ([]models.Campus, error)
	FindByID(ctx context.Context, id string) (*models.Campus, error)
	Create(ctx context.Context, campus *models.Campus) error
	Update(ctx context.Context, campus *models.Campus) error
	Delete(ctx context.Context, id string) error
}

// CampusRequest describes payload for creating or updating a campus.
type CampusRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Active  *bool  `json:"active"`
}

// CampusService coordinates campus management.
type CampusService struct {
	repo      campusRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCampusService instantiates CampusService.
func NewCampusService(repo campusRepository, validate *validator.Validate, logger *zap.Logger) *CampusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampusService{repo: repo, validator: validate, logger: logger}
}

// List returns all campuses.
func (s *CampusService) List(ctx context.Context) ([]models.Campus, error) {
	campuses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campuses")
	}
	return campuses, nil
}

// Get loads one campus.
func (s *CampusService) Get(ctx context.Context, id string) (*models.Campus, error) {
	campus, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campus not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campus")
	}
	return campus, nil
}

// Create inserts a new campus.
func (s *CampusService) Create(ctx context.Context, req CampusRequest) (*models.Campus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campus payload")
	}
	campus := models.Campus{Code: req.Code, Name: req.Name, Address: req.Address, Active: true}
	if req.Active != nil {
		campus.Active = *req.Active
	}
	if err := s.repo.Create(ctx, &campus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campus")
	}
	return &campus, nil
}

// Update modifies an existing campus.
func (s *CampusService) Update(ctx context.Context, id string, req CampusRequest) (*models.Campus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campus payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Code = req.Code
	existing.Name = req.Name
	existing.Address = req.Address
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campus")
	}
	return existing, nil
}

// Delete removes a campus.
func (s *CampusService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete campus")
	}
	return nil
}
