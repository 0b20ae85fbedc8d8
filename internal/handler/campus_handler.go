package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupoint-id/edupoint-api/internal/service"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
	"github.com/edupoint-id/edupoint-api/pkg/response"
)

// CampusHandler exposes campus endpoints.
type CampusHandler struct {
	campuses *service.CampusService
}

// NewCampusHandler constructs CampusHandler.
func NewCampusHandler(campuses *service.CampusService) *CampusHandler {
	return &CampusHandler{campuses: campuses}
}

// List returns all campuses.
func (h *CampusHandler) List(c *gin.Context) {
	campuses, err := h.campuses.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campuses, nil)
}

// Get returns one campus.
func (h *CampusHandler) Get(c *gin.Context) {
	campus, err := h.campuses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campus, nil)
}

// Create registers a campus.
func (h *CampusHandler) Create(c *gin.Context) {
	var req service.CampusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	campus, err := h.campuses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campus)
}

// Update modifies a campus.
func (h *CampusHandler) Update(c *gin.Context) {
	var req service.CampusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	campus, err := h.campuses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, campus, nil)
}

// Delete removes a campus.
func (h *CampusHandler) Delete(c *gin.Context) {
	if err := h.campuses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
