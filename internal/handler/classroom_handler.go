package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/internal/service"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
	"github.com/edupoint-id/edupoint-api/pkg/response"
)

// ClassroomHandler exposes classroom and roster endpoints.
type ClassroomHandler struct {
	classrooms *service.ClassroomService
}

// NewClassroomHandler constructs ClassroomHandler.
func NewClassroomHandler(classrooms *service.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{classrooms: classrooms}
}

// List returns classrooms filtered by campus, search, and active state.
func (h *ClassroomHandler) List(c *gin.Context) {
	var filter models.ClassroomFilter
	filter.CampusID = c.Query("campusId")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active = parseBoolQuery(c.Query("active"))
	filter.Page, filter.PageSize = parsePageQuery(c)

	classrooms, pagination, err := h.classrooms.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, pagination)
}

// Get returns one classroom.
func (h *ClassroomHandler) Get(c *gin.Context) {
	classroom, err := h.classrooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom, nil)
}

// Roster returns the classroom's enrolled students.
func (h *ClassroomHandler) Roster(c *gin.Context) {
	roster, err := h.classrooms.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Create registers a classroom.
func (h *ClassroomHandler) Create(c *gin.Context) {
	var req service.ClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.classrooms.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classroom)
}

// Update modifies a classroom.
func (h *ClassroomHandler) Update(c *gin.Context) {
	var req service.ClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	classroom, err := h.classrooms.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classroom, nil)
}

// Delete removes a classroom.
func (h *ClassroomHandler) Delete(c *gin.Context) {
	if err := h.classrooms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
