package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bizadmin-service/internal/model"
	"bizadmin-service/internal/service"
	"bizadmin-service/pkg/logger"
	"bizadmin-service/prometheus"
)

// Suspend moves a user or organization into the trash.
func (h *Handler) Suspend(c echo.Context) error {
	log := logger.FromContext(c)

	entityType := c.Param("type")
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entity ID"})
	}

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	// Body is optional; ignore bind errors for an empty payload.
	_ = c.Bind(&req)

	prometheus.RecordLifecycleOperation("suspend", entityType)
	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.trash.Suspend(c.Request().Context(), entityType, id, actorID(c), req.Reason); err != nil {
		log.Error("Suspend failed",
			zap.String("entity_type", entityType),
			zap.Uint("entity_id", id),
			zap.Error(err))
		prometheus.RecordAuthError("suspend_failed")
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Entity suspended"})
}

// ListSuspended returns the trash contents for one entity type.
func (h *Handler) ListSuspended(c echo.Context) error {
	log := logger.FromContext(c)
	entityType := c.Param("type")

	defer prometheus.TrackDBOperation("query")(time.Now())
	switch {
	case equalsEntityType(entityType, model.EntityUser):
		users, err := h.trash.SuspendedUsers(c.Request().Context())
		if err != nil {
			log.Error("Failed to list suspended users", zap.Error(err))
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, users)
	case equalsEntityType(entityType, model.EntityOrganization):
		orgs, err := h.trash.SuspendedOrganizations(c.Request().Context())
		if err != nil {
			log.Error("Failed to list suspended organizations", zap.Error(err))
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, orgs)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown entity type"})
	}
}

// Restore transitions a suspended entity back to active.
func (h *Handler) Restore(c echo.Context) error {
	log := logger.FromContext(c)

	entityType := c.Param("type")
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entity ID"})
	}

	prometheus.RecordLifecycleOperation("restore", entityType)
	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := h.trash.Restore(c.Request().Context(), entityType, id, actorID(c)); err != nil {
		log.Error("Restore failed",
			zap.String("entity_type", entityType),
			zap.Uint("entity_id", id),
			zap.Error(err))
		prometheus.RecordAuthError("restore_failed")
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Entity restored"})
}

// PermanentlyDelete irreversibly removes a suspended entity. The confirm
// flag must be set in the request body.
func (h *Handler) PermanentlyDelete(c echo.Context) error {
	log := logger.FromContext(c)

	entityType := c.Param("type")
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entity ID"})
	}

	var req struct {
		Confirm bool   `json:"confirm"`
		Reason  string `json:"reason,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse deletion request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	prometheus.RecordLifecycleOperation("permanent_delete", entityType)
	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.trash.PermanentlyDelete(c.Request().Context(), entityType, id, req.Confirm, actorID(c), req.Reason); err != nil {
		log.Error("Permanent deletion failed",
			zap.String("entity_type", entityType),
			zap.Uint("entity_id", id),
			zap.Error(err))
		prometheus.RecordAuthError("permanent_delete_failed")
		return respondError(c, err)
	}

	log.Info("Entity permanently deleted",
		zap.String("entity_type", entityType),
		zap.Uint("entity_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Entity permanently deleted"})
}

// auditEntryView is an audit entry with the actor resolved to a display
// name ("System" for system-initiated actions).
type auditEntryView struct {
	model.AuditLogEntry
	Actor string `json:"actor"`
}

// AuditLog returns the full lifecycle history, newest first.
func (h *Handler) AuditLog(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	entries, err := h.trash.AuditLog(c.Request().Context())
	if err != nil {
		log.Error("Failed to list audit log", zap.Error(err))
		return respondError(c, err)
	}

	out := make([]auditEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryView{AuditLogEntry: e, Actor: service.ActorName(e.ActorID)})
	}
	return c.JSON(http.StatusOK, out)
}

func equalsEntityType(param, entityType string) bool {
	return strings.EqualFold(param, entityType)
}
