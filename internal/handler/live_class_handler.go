package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alpha10/acs-api/internal/middleware"
	"github.com/alpha10/acs-api/internal/service"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
	"github.com/alpha10/acs-api/pkg/response"
)

// LiveClassHandler exposes live session endpoints.
type LiveClassHandler struct {
	liveClasses *service.LiveClassService
	directory   *service.DirectoryService
}

// NewLiveClassHandler constructs LiveClassHandler.
func NewLiveClassHandler(liveClasses *service.LiveClassService, directory *service.DirectoryService) *LiveClassHandler {
	return &LiveClassHandler{liveClasses: liveClasses, directory: directory}
}

// Create godoc
// @Summary Schedule a live class
// @Tags LiveClasses
// @Accept json
// @Produce json
// @Param payload body service.CreateLiveClassRequest true "Live class payload"
// @Success 201 {object} response.Envelope
// @Router /live-classes [post]
func (h *LiveClassHandler) Create(c *gin.Context) {
	ident := middleware.IdentityFromContext(c)
	if ident == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateLiveClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	teacherName := ident.Email
	if user, err := h.directory.Get(c.Request.Context(), ident.Email); err == nil {
		teacherName = user.Name
	}

	lc, err := h.liveClasses.Create(c.Request.Context(), req, teacherName, ident.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lc)
}

// List godoc
// @Summary List live classes
// @Tags LiveClasses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /live-classes [get]
func (h *LiveClassHandler) List(c *gin.Context) {
	lcs, err := h.liveClasses.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lcs, nil)
}

// Mine godoc
// @Summary List live classes owned by the calling teacher
// @Tags LiveClasses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /live-classes/mine [get]
func (h *LiveClassHandler) Mine(c *gin.Context) {
	ident := middleware.IdentityFromContext(c)
	if ident == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	lcs, err := h.liveClasses.ListByTeacher(c.Request.Context(), ident.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lcs, nil)
}

// Get godoc
// @Summary Get a single live class
// @Tags LiveClasses
// @Produce json
// @Param id path string true "Live class ID"
// @Success 200 {object} response.Envelope
// @Router /live-classes/{id} [get]
func (h *LiveClassHandler) Get(c *gin.Context) {
	lc, err := h.liveClasses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lc, nil)
}

// Delete godoc
// @Summary Delete a live class
// @Tags LiveClasses
// @Produce json
// @Param id path string true "Live class ID"
// @Success 204
// @Router /live-classes/{id} [delete]
func (h *LiveClassHandler) Delete(c *gin.Context) {
	if err := h.liveClasses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
