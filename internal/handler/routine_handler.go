package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alpha10/acs-api/internal/middleware"
	"github.com/alpha10/acs-api/internal/service"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
	"github.com/alpha10/acs-api/pkg/response"
)

// RoutineHandler exposes weekly routine endpoints.
type RoutineHandler struct {
	routines *service.RoutineService
}

// NewRoutineHandler constructs RoutineHandler.
func NewRoutineHandler(routines *service.RoutineService) *RoutineHandler {
	return &RoutineHandler{routines: routines}
}

// Create godoc
// @Summary Publish a routine slot
// @Tags Routines
// @Accept json
// @Produce json
// @Param payload body service.CreateRoutineRequest true "Routine payload"
// @Success 201 {object} response.Envelope
// @Router /routines [post]
func (h *RoutineHandler) Create(c *gin.Context) {
	ident := middleware.IdentityFromContext(c)
	if ident == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	routine, err := h.routines.Create(c.Request.Context(), req, ident.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, routine)
}

// List godoc
// @Summary List routine slots
// @Tags Routines
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /routines [get]
func (h *RoutineHandler) List(c *gin.Context) {
	routines, err := h.routines.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routines, nil)
}

// Delete godoc
// @Summary Delete a routine slot
// @Tags Routines
// @Produce json
// @Param id path string true "Routine ID"
// @Success 204
// @Router /routines/{id} [delete]
func (h *RoutineHandler) Delete(c *gin.Context) {
	if err := h.routines.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
