package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
	"github.com/SAP-F-2025/notification-service/internal/services"
	"github.com/SAP-F-2025/notification-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
	userRepo    repositories.UserRepository
}

func NewUserHandler(userService services.UserService, userRepo repositories.UserRepository, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
		userRepo:    userRepo,
	}
}

// GetMe returns the caller's profile
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	if user, err := GetUserFromContext(c); err == nil {
		c.JSON(http.StatusOK, user)
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	h.respondUser(c, userID)
}

// GetUser retrieves a user by ID
// @Summary Get user by ID
// @Description Get user information by ID
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		h.respondError(c, http.StatusBadRequest, "bad_request", "User ID is required", nil)
		return
	}

	callerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	// Students may only read their own contact details.
	if role, _ := GetUserRoleFromContext(c); callerID != userID && role != models.RoleTeacher && role != models.RoleAdmin {
		h.respondError(c, http.StatusForbidden, "forbidden", "Not allowed to view this user", nil)
		return
	}

	h.LogRequest(c, "Getting user", "target_user_id", userID)
	h.respondUser(c, userID)
}

func (h *UserHandler) respondUser(c *gin.Context, userID string) {
	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Description Get a paginated list of users to pick recipients from
// @Tags users
// @Accept json
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (student, teacher, parent, admin)"
// @Success 200 {object} map[string]interface{} "User list response"
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	filters, ok := h.parseUserFilters(c)
	if !ok {
		return
	}

	var (
		users []*models.User
		total int64
		err   error
	)
	if filters.Query != "" {
		users, total, err = h.userRepo.Search(c.Request.Context(), filters.Query, filters)
	} else {
		users, total, err = h.userRepo.List(c.Request.Context(), filters)
	}
	if err != nil {
		h.LogError(c, err, "Failed to list users")
		h.respondError(c, http.StatusInternalServerError, "internal_error", "Failed to list users", nil)
		return
	}

	page := (filters.Offset / max(filters.Limit, 1)) + 1

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"page":  page,
		"size":  filters.Limit,
	})
}

// CreateUser adds a user to the local directory
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body validator.CreateUserRequest true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 501 {object} ErrorResponse "Directory is read-only"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	h.LogRequest(c, "Creating user", "email", req.Email)

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ===== HELPER METHODS =====

func (h *UserHandler) parseUserFilters(c *gin.Context) (repositories.UserFilters, bool) {
	page := 1
	size := 10

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
			size = s
		}
	}

	filters := repositories.UserFilters{
		Limit:  size,
		Offset: (page - 1) * size,
		Query:  c.Query("q"),
	}

	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		if !role.IsValid() {
			h.respondError(c, http.StatusBadRequest, "bad_request", "Invalid role filter", raw)
			return filters, false
		}
		filters.Role = &role
	}

	return filters, true
}
