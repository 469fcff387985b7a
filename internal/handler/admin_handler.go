package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bizadmin-service/internal/service"
	"bizadmin-service/pkg/logger"
	"bizadmin-service/prometheus"
)

func pathID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// CreateUser is the admin provisioning path: no organization or role is
// created alongside the user.
func (h *Handler) CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRBACOperation("create_user")

	var req struct {
		Email          string `json:"email"`
		Password       string `json:"password"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		OrganizationID *uint  `json:"organization_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user creation request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	user, err := h.auth.CreateUser(c.Request().Context(), service.CreateUserInput{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		log.Error("User creation failed", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("user_creation_failed")
		return respondError(c, err)
	}

	log.Info("User created", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, user)
}

// ListUsers returns all users with role assignments attached.
func (h *Handler) ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	users, err := h.auth.ListUsers(c.Request().Context())
	if err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateRole creates a custom role.
func (h *Handler) CreateRole(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRBACOperation("create_role")

	var req struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse role creation request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	role, err := h.auth.CreateRole(c.Request().Context(), req.Code, req.Name, req.Description)
	if err != nil {
		log.Error("Role creation failed", zap.String("code", req.Code), zap.Error(err))
		prometheus.RecordAuthError("role_creation_failed")
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, role)
}

// ListRoles returns all roles with their permissions attached.
func (h *Handler) ListRoles(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	roles, err := h.auth.ListRoles(c.Request().Context())
	if err != nil {
		log.Error("Failed to list roles", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, roles)
}

// DeleteRole removes a custom role. Protected roles are rejected.
func (h *Handler) DeleteRole(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRBACOperation("delete_role")

	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.auth.DeleteRole(c.Request().Context(), id); err != nil {
		log.Error("Role deletion failed", zap.Uint("role_id", id), zap.Error(err))
		prometheus.RecordAuthError("role_deletion_failed")
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Role deleted successfully"})
}

// CreatePermission adds a capability to the catalog.
func (h *Handler) CreatePermission(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRBACOperation("create_permission")

	var req struct {
		Code        string `json:"code"`
		Description string `json:"description,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse permission creation request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	perm, err := h.auth.CreatePermission(c.Request().Context(), req.Code, req.Description)
	if err != nil {
		log.Error("Permission creation failed", zap.String("code", req.Code), zap.Error(err))
		prometheus.RecordAuthError("permission_creation_failed")
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, perm)
}

// ListPermissions returns the permission catalog.
func (h *Handler) ListPermissions(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	perms, err := h.auth.ListPermissions(c.Request().Context())
	if err != nil {
		log.Error("Failed to list permissions", zap.Error(err))
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, perms)
}

// AssignRole binds a role to a user within an organization. Re-assigning the
// same triple is idempotent and returns the existing assignment.
func (h *Handler) AssignRole(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRBACOperation("assign_role")

	var req struct {
		UserID         uint `json:"user_id"`
		RoleID         uint `json:"role_id"`
		OrganizationID uint `json:"organization_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse role assignment request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.UserID == 0 || req.RoleID == 0 || req.OrganizationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id, role_id and organization_id are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	assignment, err := h.auth.AssignRole(c.Request().Context(), req.UserID, req.RoleID, req.OrganizationID)
	if err != nil {
		log.Error("Role assignment failed",
			zap.Uint("user_id", req.UserID),
			zap.Uint("role_id", req.RoleID),
			zap.Error(err))
		prometheus.RecordAuthError("role_assignment_failed")
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, assignment)
}

// RemoveRoleAssignment deletes one (user, role, organization) binding.
func (h *Handler) RemoveRoleAssignment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRBACOperation("remove_role")

	userID, ok1 := pathID(c, "user_id")
	roleID, ok2 := pathID(c, "role_id")
	orgID, ok3 := pathID(c, "organization_id")
	if !ok1 || !ok2 || !ok3 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid path parameters"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.auth.RemoveRoleAssignment(c.Request().Context(), userID, roleID, orgID); err != nil {
		log.Error("Role removal failed", zap.Uint("user_id", userID), zap.Error(err))
		prometheus.RecordAuthError("role_removal_failed")
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Role assignment removed"})
}

// AddPermissionToRole grants a permission to a role, idempotently.
func (h *Handler) AddPermissionToRole(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRBACOperation("add_permission")

	roleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role ID"})
	}

	var req struct {
		PermissionID uint `json:"permission_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse permission grant request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.PermissionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "permission_id is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	rp, err := h.auth.AddPermissionToRole(c.Request().Context(), roleID, req.PermissionID)
	if err != nil {
		log.Error("Permission grant failed",
			zap.Uint("role_id", roleID),
			zap.Uint("permission_id", req.PermissionID),
			zap.Error(err))
		prometheus.RecordAuthError("permission_grant_failed")
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rp)
}
