// Package memstore is an in-memory implementation of service.Store. It
// enforces the same uniqueness constraints the SQL schema declares, which
// makes it a faithful stand-in for tests and local development without a
// database.
package memstore

import (
	"context"
	"sync"
	"time"

	"bizadmin-service/internal/model"
	"bizadmin-service/internal/service"
)

type Store struct {
	mu        sync.Mutex
	users     map[uint]*model.User
	orgs      map[uint]*model.Organization
	roles     map[uint]*model.Role
	perms     map[uint]*model.Permission
	rolePerms map[uint]*model.RolePermission
	userRoles map[uint]*model.UserRole
	audit     []model.AuditLogEntry
	nextID    uint
}

func New() *Store {
	return &Store{
		users:     make(map[uint]*model.User),
		orgs:      make(map[uint]*model.Organization),
		roles:     make(map[uint]*model.Role),
		perms:     make(map[uint]*model.Permission),
		rolePerms: make(map[uint]*model.RolePermission),
		userRoles: make(map[uint]*model.UserRole),
	}
}

func (m *Store) id() uint {
	m.nextID++
	return m.nextID
}

// Transact has no rollback support; callers that must fail do so before
// mutating, which is how the services are written.
func (m *Store) Transact(ctx context.Context, fn func(service.Store) error) error {
	return fn(m)
}

func (m *Store) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return service.ErrConflict
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Store) SaveUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return service.ErrNotFound
	}
	cp := *u
	cp.Roles = nil
	m.users[u.ID] = &cp
	return nil
}

func (m *Store) UserByID(ctx context.Context, id uint) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Store) userRolesFor(userID uint) []model.UserRole {
	var out []model.UserRole
	for _, ur := range m.userRoles {
		if ur.UserID == userID {
			cp := *ur
			if role, ok := m.roles[ur.RoleID]; ok {
				cp.Role = *role
			}
			out = append(out, cp)
		}
	}
	return out
}

func (m *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			cp.Roles = m.userRolesFor(u.ID)
			return &cp, nil
		}
	}
	return nil, service.ErrNotFound
}

func (m *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		cp := *u
		cp.Roles = m.userRolesFor(u.ID)
		out = append(out, cp)
	}
	return out, nil
}

func (m *Store) ListUsersByStatus(ctx context.Context, status string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.Status == status {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *Store) DeleteUser(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return service.ErrNotFound
	}
	delete(m.users, id)
	for urID, ur := range m.userRoles {
		if ur.UserID == id {
			delete(m.userRoles, urID)
		}
	}
	return nil
}

func (m *Store) CreateOrganization(ctx context.Context, org *model.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orgs {
		if existing.Slug == org.Slug {
			return service.ErrConflict
		}
	}
	org.ID = m.id()
	org.CreatedAt = time.Now()
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *Store) SaveOrganization(ctx context.Context, org *model.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[org.ID]; !ok {
		return service.ErrNotFound
	}
	cp := *org
	m.orgs[org.ID] = &cp
	return nil
}

func (m *Store) OrganizationByID(ctx context.Context, id uint) (*model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (m *Store) ListOrganizationsByStatus(ctx context.Context, status string) ([]model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Organization
	for _, org := range m.orgs {
		if org.Status == status {
			out = append(out, *org)
		}
	}
	return out, nil
}

func (m *Store) DeleteOrganization(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[id]; !ok {
		return service.ErrNotFound
	}
	delete(m.orgs, id)
	for urID, ur := range m.userRoles {
		if ur.OrganizationID == id {
			delete(m.userRoles, urID)
		}
	}
	return nil
}

func (m *Store) CreateRole(ctx context.Context, role *model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.roles {
		if existing.Code == role.Code {
			return service.ErrConflict
		}
	}
	role.ID = m.id()
	role.CreatedAt = time.Now()
	cp := *role
	m.roles[role.ID] = &cp
	return nil
}

func (m *Store) RoleByID(ctx context.Context, id uint) (*model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (m *Store) RoleByCode(ctx context.Context, code string) (*model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, role := range m.roles {
		if role.Code == code {
			cp := *role
			return &cp, nil
		}
	}
	return nil, service.ErrNotFound
}

func (m *Store) ListRoles(ctx context.Context) ([]model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Role
	for _, role := range m.roles {
		cp := *role
		for _, rp := range m.rolePerms {
			if rp.RoleID == role.ID {
				rpc := *rp
				if perm, ok := m.perms[rp.PermissionID]; ok {
					rpc.Permission = *perm
				}
				cp.Permissions = append(cp.Permissions, rpc)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *Store) DeleteRole(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return service.ErrNotFound
	}
	delete(m.roles, id)
	for rpID, rp := range m.rolePerms {
		if rp.RoleID == id {
			delete(m.rolePerms, rpID)
		}
	}
	for urID, ur := range m.userRoles {
		if ur.RoleID == id {
			delete(m.userRoles, urID)
		}
	}
	return nil
}

func (m *Store) CreatePermission(ctx context.Context, perm *model.Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.perms {
		if existing.Code == perm.Code {
			return service.ErrConflict
		}
	}
	perm.ID = m.id()
	perm.CreatedAt = time.Now()
	cp := *perm
	m.perms[perm.ID] = &cp
	return nil
}

func (m *Store) PermissionByID(ctx context.Context, id uint) (*model.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	perm, ok := m.perms[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *perm
	return &cp, nil
}

func (m *Store) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Permission
	for _, perm := range m.perms {
		out = append(out, *perm)
	}
	return out, nil
}

func (m *Store) CreateRolePermission(ctx context.Context, rp *model.RolePermission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rolePerms {
		if existing.RoleID == rp.RoleID && existing.PermissionID == rp.PermissionID {
			return service.ErrConflict
		}
	}
	rp.ID = m.id()
	rp.CreatedAt = time.Now()
	cp := *rp
	m.rolePerms[rp.ID] = &cp
	return nil
}

func (m *Store) RolePermission(ctx context.Context, roleID, permissionID uint) (*model.RolePermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rp := range m.rolePerms {
		if rp.RoleID == roleID && rp.PermissionID == permissionID {
			cp := *rp
			return &cp, nil
		}
	}
	return nil, service.ErrNotFound
}

func (m *Store) CreateUserRole(ctx context.Context, ur *model.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.userRoles {
		if existing.UserID == ur.UserID && existing.RoleID == ur.RoleID && existing.OrganizationID == ur.OrganizationID {
			return service.ErrConflict
		}
	}
	ur.ID = m.id()
	ur.CreatedAt = time.Now()
	cp := *ur
	m.userRoles[ur.ID] = &cp
	return nil
}

func (m *Store) UserRole(ctx context.Context, userID, roleID, organizationID uint) (*model.UserRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ur := range m.userRoles {
		if ur.UserID == userID && ur.RoleID == roleID && ur.OrganizationID == organizationID {
			cp := *ur
			return &cp, nil
		}
	}
	return nil, service.ErrNotFound
}

func (m *Store) DeleteUserRole(ctx context.Context, userID, roleID, organizationID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ur := range m.userRoles {
		if ur.UserID == userID && ur.RoleID == roleID && ur.OrganizationID == organizationID {
			delete(m.userRoles, id)
			return nil
		}
	}
	return service.ErrNotFound
}

func (m *Store) AppendAuditEntry(ctx context.Context, entry *model.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.id()
	entry.CreatedAt = time.Now()
	// Prepend so the log reads newest first, matching the SQL ordering.
	m.audit = append([]model.AuditLogEntry{*entry}, m.audit...)
	return nil
}

func (m *Store) ListAuditEntries(ctx context.Context) ([]model.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AuditLogEntry, len(m.audit))
	copy(out, m.audit)
	return out, nil
}

var _ service.Store = (*Store)(nil)
