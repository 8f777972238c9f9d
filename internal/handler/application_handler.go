package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alpha10/acs-api/internal/middleware"
	"github.com/alpha10/acs-api/internal/models"
	"github.com/alpha10/acs-api/internal/service"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
	"github.com/alpha10/acs-api/pkg/response"
)

// ApplicationHandler exposes teacher application endpoints.
type ApplicationHandler struct {
	applications *service.ApplicationService
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Submit godoc
// @Summary Submit a teacher application
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body service.SubmitApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req service.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	app, err := h.applications.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// List godoc
// @Summary List applications by status
// @Tags Applications
// @Produce json
// @Param status query string false "Status (default pending)"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	status := models.ApplicationStatus(c.DefaultQuery("status", string(models.ApplicationPending)))
	apps, err := h.applications.ListByStatus(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, nil)
}

// Get godoc
// @Summary Get a single application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.applications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Review godoc
// @Summary Approve or reject a pending application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body service.ReviewApplicationRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [patch]
func (h *ApplicationHandler) Review(c *gin.Context) {
	ident := middleware.IdentityFromContext(c)
	if ident == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ReviewApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	app, err := h.applications.Review(c.Request.Context(), c.Param("id"), req, ident.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Delete godoc
// @Summary Delete an application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *ApplicationHandler) Delete(c *gin.Context) {
	if err := h.applications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
