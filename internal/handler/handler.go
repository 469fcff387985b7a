package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"bizadmin-service/internal/service"
)

// Handler exposes the authorization and lifecycle services over HTTP.
type Handler struct {
	auth  *service.AuthService
	trash *service.TrashService
}

func New(auth *service.AuthService, trash *service.TrashService) *Handler {
	return &Handler{auth: auth, trash: trash}
}

// respondError maps service errors to HTTP statuses. The error message is
// passed through so the frontend can display the reason.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotConfirmed):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrProtectedRole):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotEligible):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNotSuspended):
		status = http.StatusConflict
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// actorID returns the authenticated user's id, or nil for unauthenticated
// (system-initiated) calls.
func actorID(c echo.Context) *uint {
	if id, ok := c.Get("user_id").(uint); ok {
		return &id
	}
	return nil
}
