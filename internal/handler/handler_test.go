package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bizadmin-service/internal/handler"
	"bizadmin-service/internal/middleware"
	"bizadmin-service/internal/service"
	"bizadmin-service/internal/store/memstore"
	"bizadmin-service/pkg/config"
	"bizadmin-service/pkg/jwtutil"
)

// newTestServer wires the full HTTP surface against the in-memory store,
// mirroring the route table in cmd/main.go.
func newTestServer(t *testing.T) (*echo.Echo, *memstore.Store) {
	t.Helper()

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	store := memstore.New()
	authSvc := service.NewAuthService(store, zap.NewNop())
	trashSvc := service.NewTrashService(store, zap.NewNop(), service.DefaultRetentionDays)
	h := handler.New(authSvc, trashSvc)

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("logger", zap.NewNop())
			return next(c)
		}
	})

	e.GET("/health", h.HealthCheck)

	auth := e.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/register", h.Register)

	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	users := api.Group("/users")
	users.POST("", h.CreateUser)
	users.GET("", h.ListUsers)
	users.POST("/change-password", h.ChangePassword)

	roles := api.Group("/roles")
	roles.POST("", h.CreateRole)
	roles.GET("", h.ListRoles)
	roles.DELETE("/:id", h.DeleteRole)
	roles.POST("/:id/permissions", h.AddPermissionToRole)

	permissions := api.Group("/permissions")
	permissions.POST("", h.CreatePermission)
	permissions.GET("", h.ListPermissions)

	assignments := api.Group("/assignments")
	assignments.POST("", h.AssignRole)
	assignments.DELETE("/:organization_id/:user_id/:role_id", h.RemoveRoleAssignment)

	trash := api.Group("/trash")
	trash.GET("/:type", h.ListSuspended)
	trash.POST("/:type/:id/suspend", h.Suspend)
	trash.POST("/:type/:id/restore", h.Restore)
	trash.DELETE("/:type/:id", h.PermanentlyDelete)
	trash.GET("/audit/log", h.AuditLog)

	return e, store
}

func doJSON(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const registerBody = `{"email":"owner@acme.test","password":"secret123","first_name":"Ada","last_name":"Lovelace","organization_name":"Acme Inc"}`

// registerAndLogin provisions a tenant and returns a valid bearer token.
func registerAndLogin(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/auth/login", "", `{"email":"owner@acme.test","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestRegisterEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "owner@acme.test", user["email"])
	assert.NotContains(t, rec.Body.String(), "secret123", "password must never appear in a response")

	// Same email again maps to 409.
	rec = doJSON(e, http.MethodPost, "/auth/register", "", registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing organization name maps to 400.
	rec = doJSON(e, http.MethodPost, "/auth/register", "", `{"email":"x@y.z","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/login", "", `{"email":"owner@acme.test","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "OWNER", user["role"])

	rec = doJSON(e, http.MethodPost, "/auth/login", "", `{"email":"owner@acme.test","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/users", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsersEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e)

	rec := doJSON(e, http.MethodGet, "/api/users", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "owner@acme.test", users[0]["email"])
}

func TestChangePasswordEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e)

	rec := doJSON(e, http.MethodPost, "/api/users/change-password", token,
		`{"current_password":"wrong","new_password":"next"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/users/change-password", token,
		`{"current_password":"secret123","new_password":"next"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/auth/login", "", `{"email":"owner@acme.test","password":"next"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleAndPermissionEndpoints(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e)

	rec := doJSON(e, http.MethodPost, "/api/roles", token, `{"code":"SALES","name":"Sales"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	roleID := decodeBody(t, rec)["id"].(float64)

	// Duplicate code maps to 409.
	rec = doJSON(e, http.MethodPost, "/api/roles", token, `{"code":"SALES","name":"Other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/permissions", token, `{"code":"orders:create"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	permID := decodeBody(t, rec)["id"].(float64)

	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/api/roles/%d/permissions", int(roleID)), token,
		fmt.Sprintf(`{"permission_id":%d}`, int(permID)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodGet, "/api/roles", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	require.Len(t, roles, 2) // OWNER from registration plus SALES

	// Deleting the protected OWNER role maps to 403.
	for _, r := range roles {
		if r["code"] == "OWNER" {
			rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/roles/%d", int(r["id"].(float64))), token, "")
			assert.Equal(t, http.StatusForbidden, rec.Code)
		}
	}

	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/roles/%d", int(roleID)), token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssignRoleEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e)

	rec := doJSON(e, http.MethodGet, "/api/users", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	userID := int(users[0]["id"].(float64))
	orgID := int(users[0]["organization_id"].(float64))

	rec = doJSON(e, http.MethodPost, "/api/roles", token, `{"code":"SALES","name":"Sales"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	roleID := int(decodeBody(t, rec)["id"].(float64))

	rec = doJSON(e, http.MethodPost, "/api/assignments", token,
		fmt.Sprintf(`{"user_id":%d,"role_id":%d,"organization_id":%d}`, userID, roleID, orgID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Unknown user maps to 404, missing fields to 400.
	rec = doJSON(e, http.MethodPost, "/api/assignments", token,
		fmt.Sprintf(`{"user_id":999,"role_id":%d,"organization_id":%d}`, roleID, orgID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(e, http.MethodPost, "/api/assignments", token, `{"user_id":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodDelete,
		fmt.Sprintf("/api/assignments/%d/%d/%d", orgID, userID, roleID), token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(e, http.MethodDelete,
		fmt.Sprintf("/api/assignments/%d/%d/%d", orgID, userID, roleID), token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrashLifecycleEndpoints(t *testing.T) {
	e, _ := newTestServer(t)
	token := registerAndLogin(t, e)

	rec := doJSON(e, http.MethodGet, "/api/users", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	userID := int(users[0]["id"].(float64))

	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/api/trash/user/%d/suspend", userID), token,
		`{"reason":"offboarding"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Suspending again maps to 409.
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/api/trash/user/%d/suspend", userID), token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/trash/user", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var suspended []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suspended))
	require.Len(t, suspended, 1)

	rec = doJSON(e, http.MethodGet, "/api/trash/widget", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Deleting without the confirm flag maps to 400.
	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/trash/user/%d", userID), token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Deleting inside the retention window maps to 403.
	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/trash/user/%d", userID), token, `{"confirm":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/api/trash/user/%d/restore", userID), token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Restoring an active entity maps to 409.
	rec = doJSON(e, http.MethodPost, fmt.Sprintf("/api/trash/user/%d/restore", userID), token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/trash/audit/log", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "RESTORE", entries[0]["action"])
	assert.Equal(t, "SUSPEND", entries[1]["action"])

	// Every audited action carries the authenticated actor, resolved to a
	// display name.
	require.NotNil(t, entries[0]["actor_id"])
	assert.Equal(t, float64(userID), entries[0]["actor_id"])
	assert.Equal(t, fmt.Sprintf("user:%d", userID), entries[0]["actor"])
}
