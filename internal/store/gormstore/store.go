// Package gormstore implements the service.Store interface on top of gorm.
// The database must be opened with TranslateError enabled so unique
// violations surface as gorm.ErrDuplicatedKey.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bizadmin-service/internal/model"
	"bizadmin-service/internal/service"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// translate maps gorm errors onto the service sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return service.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return service.ErrConflict
	default:
		return err
	}
}

func (s *Store) Transact(ctx context.Context, fn func(service.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) SaveUser(ctx context.Context, u *model.User) error {
	return translate(s.db.WithContext(ctx).Save(u).Error)
}

func (s *Store) UserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Roles.Role").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Preload("Roles.Role").
		Order("id").
		Find(&users).Error
	return users, translate(err)
}

func (s *Store) ListUsersByStatus(ctx context.Context, status string) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("suspended_at DESC").
		Find(&users).Error
	return users, translate(err)
}

func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
		return translate(err)
	}
	res := s.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Store) CreateOrganization(ctx context.Context, org *model.Organization) error {
	return translate(s.db.WithContext(ctx).Create(org).Error)
}

func (s *Store) SaveOrganization(ctx context.Context, org *model.Organization) error {
	return translate(s.db.WithContext(ctx).Save(org).Error)
}

func (s *Store) OrganizationByID(ctx context.Context, id uint) (*model.Organization, error) {
	var org model.Organization
	if err := s.db.WithContext(ctx).First(&org, id).Error; err != nil {
		return nil, translate(err)
	}
	return &org, nil
}

func (s *Store) ListOrganizationsByStatus(ctx context.Context, status string) ([]model.Organization, error) {
	var orgs []model.Organization
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("suspended_at DESC").
		Find(&orgs).Error
	return orgs, translate(err)
}

func (s *Store) DeleteOrganization(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Where("organization_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
		return translate(err)
	}
	res := s.db.WithContext(ctx).Delete(&model.Organization{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Store) CreateRole(ctx context.Context, role *model.Role) error {
	return translate(s.db.WithContext(ctx).Create(role).Error)
}

func (s *Store) RoleByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := s.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (s *Store) RoleByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions.Permission").
		Order("id").
		Find(&roles).Error
	return roles, translate(err)
}

func (s *Store) DeleteRole(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Where("role_id = ?", id).Delete(&model.RolePermission{}).Error; err != nil {
		return translate(err)
	}
	if err := s.db.WithContext(ctx).Where("role_id = ?", id).Delete(&model.UserRole{}).Error; err != nil {
		return translate(err)
	}
	res := s.db.WithContext(ctx).Delete(&model.Role{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return translate(s.db.WithContext(ctx).Create(perm).Error)
}

func (s *Store) PermissionByID(ctx context.Context, id uint) (*model.Permission, error) {
	var perm model.Permission
	if err := s.db.WithContext(ctx).First(&perm, id).Error; err != nil {
		return nil, translate(err)
	}
	return &perm, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	err := s.db.WithContext(ctx).Order("id").Find(&perms).Error
	return perms, translate(err)
}

func (s *Store) CreateRolePermission(ctx context.Context, rp *model.RolePermission) error {
	return translate(s.db.WithContext(ctx).Create(rp).Error)
}

func (s *Store) RolePermission(ctx context.Context, roleID, permissionID uint) (*model.RolePermission, error) {
	var rp model.RolePermission
	err := s.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		First(&rp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rp, nil
}

func (s *Store) CreateUserRole(ctx context.Context, ur *model.UserRole) error {
	return translate(s.db.WithContext(ctx).Create(ur).Error)
}

func (s *Store) UserRole(ctx context.Context, userID, roleID, organizationID uint) (*model.UserRole, error) {
	var ur model.UserRole
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ? AND organization_id = ?", userID, roleID, organizationID).
		First(&ur).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ur, nil
}

func (s *Store) DeleteUserRole(ctx context.Context, userID, roleID, organizationID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ? AND organization_id = ?", userID, roleID, organizationID).
		Delete(&model.UserRole{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Store) AppendAuditEntry(ctx context.Context, entry *model.AuditLogEntry) error {
	return translate(s.db.WithContext(ctx).Create(entry).Error)
}

func (s *Store) ListAuditEntries(ctx context.Context) ([]model.AuditLogEntry, error) {
	var entries []model.AuditLogEntry
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&entries).Error
	return entries, translate(err)
}

var _ service.Store = (*Store)(nil)

// Migrate creates or updates the schema for every entity the store manages.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Organization{},
		&model.Role{},
		&model.Permission{},
		&model.RolePermission{},
		&model.UserRole{},
		&model.AuditLogEntry{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
