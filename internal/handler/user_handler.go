package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alpha10/acs-api/internal/middleware"
	"github.com/alpha10/acs-api/internal/models"
	"github.com/alpha10/acs-api/internal/service"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
	"github.com/alpha10/acs-api/pkg/response"
)

// UserHandler exposes directory endpoints.
type UserHandler struct {
	directory *service.DirectoryService
	accounts  *service.AccountService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(directory *service.DirectoryService, accounts *service.AccountService) *UserHandler {
	return &UserHandler{directory: directory, accounts: accounts}
}

type registerPayload struct {
	Name string `json:"name"`
}

// Register godoc
// @Summary Touch-register the calling identity
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body registerPayload false "Display name"
// @Success 200 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Register(c *gin.Context) {
	ident := middleware.IdentityFromContext(c)
	if ident == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload registerPayload
	_ = c.ShouldBindJSON(&payload)
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = ident.Email
	}

	result, err := h.directory.Register(c.Request.Context(), service.RegisterRequest{
		Email: ident.Email,
		Name:  name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RoleOf godoc
// @Summary Resolve the effective role for an email
// @Tags Users
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.Envelope
// @Router /users/role/{email} [get]
func (h *UserHandler) RoleOf(c *gin.Context) {
	email := c.Param("email")
	role, err := h.directory.RoleOf(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"email": email, "role": role}, nil)
}

// List godoc
// @Summary List directory records
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role"
// @Param search query string false "Search by email or name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	if raw := c.Query("role"); raw != "" {
		role := models.Role(raw)
		filter.Role = &role
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	users, pagination, err := h.directory.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Search godoc
// @Summary Search directory records by email substring
// @Tags Users
// @Produce json
// @Param q query string true "Email substring"
// @Success 200 {object} response.Envelope
// @Router /users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	pattern := strings.TrimSpace(c.Query("q"))
	users, err := h.directory.Search(c.Request.Context(), pattern)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// SetRole godoc
// @Summary Overwrite the role for an email
// @Tags Users
// @Accept json
// @Produce json
// @Param email path string true "Email"
// @Param payload body service.SetRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Router /users/role/{email} [patch]
func (h *UserHandler) SetRole(c *gin.Context) {
	var req service.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.directory.SetRole(c.Request.Context(), c.Param("email"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a directory record by id
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 204
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.directory.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Purge godoc
// @Summary Delete the identity provider account and directory record
// @Tags Users
// @Produce json
// @Param email path string true "Email"
// @Success 200 {object} response.Envelope
// @Router /users/accounts/{email} [delete]
func (h *UserHandler) Purge(c *gin.Context) {
	result, err := h.accounts.Purge(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
