package service

import (
	"context"

	"bizadmin-service/internal/model"
)

// Store describes the persistence operations the services depend on. The
// implementation must translate storage-level unique violations to
// ErrConflict and missing rows to ErrNotFound, so the services can implement
// their idempotency contracts without knowing the storage engine.
type Store interface {
	// Transact runs fn against a transactional view of the store. If fn
	// returns an error the transaction is rolled back.
	Transact(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, u *model.User) error
	SaveUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id uint) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListUsersByStatus(ctx context.Context, status string) ([]model.User, error)
	// DeleteUser removes the user and its role assignments.
	DeleteUser(ctx context.Context, id uint) error

	CreateOrganization(ctx context.Context, org *model.Organization) error
	SaveOrganization(ctx context.Context, org *model.Organization) error
	OrganizationByID(ctx context.Context, id uint) (*model.Organization, error)
	ListOrganizationsByStatus(ctx context.Context, status string) ([]model.Organization, error)
	DeleteOrganization(ctx context.Context, id uint) error

	CreateRole(ctx context.Context, role *model.Role) error
	RoleByID(ctx context.Context, id uint) (*model.Role, error)
	RoleByCode(ctx context.Context, code string) (*model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	DeleteRole(ctx context.Context, id uint) error

	CreatePermission(ctx context.Context, perm *model.Permission) error
	PermissionByID(ctx context.Context, id uint) (*model.Permission, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)

	CreateRolePermission(ctx context.Context, rp *model.RolePermission) error
	RolePermission(ctx context.Context, roleID, permissionID uint) (*model.RolePermission, error)

	CreateUserRole(ctx context.Context, ur *model.UserRole) error
	UserRole(ctx context.Context, userID, roleID, organizationID uint) (*model.UserRole, error)
	DeleteUserRole(ctx context.Context, userID, roleID, organizationID uint) error

	AppendAuditEntry(ctx context.Context, entry *model.AuditLogEntry) error
	// ListAuditEntries returns the full history, newest first.
	ListAuditEntries(ctx context.Context) ([]model.AuditLogEntry, error)
}
