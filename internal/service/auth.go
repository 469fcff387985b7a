package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"bizadmin-service/internal/model"
)

// ownerRoleDescription is the fixed description used when the OWNER role is
// bootstrapped during the first registration.
const ownerRoleDescription = "Organization owner with full access"

// AuthService implements registration, admin provisioning and the
// role/permission catalog. All mutable state lives in the Store; the service
// only enforces invariants.
type AuthService struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewAuthService(store Store, log *zap.Logger) *AuthService {
	return &AuthService{store: store, log: log, now: time.Now}
}

// RegisterInput carries the self-service registration payload.
type RegisterInput struct {
	Email            string
	Password         string
	FirstName        string
	LastName         string
	OrganizationName string
}

// Register creates the tenant root: one organization, one user bound to it,
// and an OWNER role assignment. The OWNER role itself is created at most once
// system-wide. Fails with ErrConflict if the email is already registered.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	orgName := strings.TrimSpace(in.OrganizationName)
	if orgName == "" {
		return nil, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}

	// Pre-check is an optimization; the unique index on email is the actual
	// safety net under concurrent registrations.
	if _, err := s.store.UserByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *model.User
	err = s.store.Transact(ctx, func(tx Store) error {
		org := &model.Organization{
			Name:   orgName,
			Slug:   slugify(orgName, s.now()),
			Status: model.StatusActive,
		}
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}

		u := &model.User{
			Email:          in.Email,
			Password:       string(hash),
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			OrganizationID: &org.ID,
			Status:         model.StatusActive,
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			if errors.Is(err, ErrConflict) {
				return fmt.Errorf("%w: email already registered", ErrConflict)
			}
			return err
		}

		owner, err := s.ensureRole(ctx, tx, model.RoleOwner, "Owner", ownerRoleDescription)
		if err != nil {
			return err
		}

		if err := tx.CreateUserRole(ctx, &model.UserRole{
			UserID:         u.ID,
			RoleID:         owner.ID,
			OrganizationID: org.ID,
		}); err != nil {
			return err
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.String("email", user.Email),
		zap.Uint("organization_id", *user.OrganizationID))
	return user, nil
}

// ensureRole is a get-or-create against the role code unique index. A
// concurrent first registration can win the insert; in that case the
// conflict is swallowed and the winner's row is re-read.
func (s *AuthService) ensureRole(ctx context.Context, tx Store, code, name, description string) (*model.Role, error) {
	role, err := tx.RoleByCode(ctx, code)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	role = &model.Role{Code: code, Name: name, Description: description, Protected: model.IsSystemRole(code)}
	if err := tx.CreateRole(ctx, role); err != nil {
		if errors.Is(err, ErrConflict) {
			return tx.RoleByCode(ctx, code)
		}
		return nil, err
	}
	return role, nil
}

// CreateUserInput carries the admin provisioning payload. OrganizationID is
// optional; no organization or role assignment is created on this path.
type CreateUserInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	OrganizationID *uint
}

// CreateUser provisions a user without touching organizations or roles.
// Fails with ErrConflict if the email is already registered.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	if _, err := s.store.UserByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if in.OrganizationID != nil {
		if _, err := s.store.OrganizationByID(ctx, *in.OrganizationID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: organization %d", ErrNotFound, *in.OrganizationID)
			}
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:          in.Email,
		Password:       string(hash),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		OrganizationID: in.OrganizationID,
		Status:         model.StatusActive,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	s.log.Info("user created", zap.String("email", user.Email))
	return user, nil
}

// Authenticate verifies credentials and returns the user together with the
// code of the role the user holds in its default organization ("" if none).
// Suspended users cannot authenticate. All failures are reported as
// ErrInvalidCredentials so callers cannot probe for registered emails.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.store.UserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if user.Status != model.StatusActive {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	roleCode := ""
	if user.OrganizationID != nil {
		for _, ur := range user.Roles {
			if ur.OrganizationID == *user.OrganizationID {
				roleCode = ur.Role.Code
				break
			}
		}
	}
	return user, roleCode, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hash)
	if err := s.store.SaveUser(ctx, user); err != nil {
		return err
	}
	s.log.Info("password changed", zap.Uint("user_id", userID))
	return nil
}

// ListUsers returns all users with their role assignments eagerly attached.
func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}

// CreateRole creates a role. Codes are stored as given; no case
// normalization is applied. A role created under a system code
// (OWNER/ADMIN/MEMBER) carries the Protected flag and may not be deleted.
// Fails with ErrConflict on a duplicate code.
func (s *AuthService) CreateRole(ctx context.Context, code, name, description string) (*model.Role, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: role code is required", ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}

	role := &model.Role{Code: code, Name: name, Description: description, Protected: model.IsSystemRole(code)}
	if err := s.store.CreateRole(ctx, role); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: role code %q already exists", ErrConflict, code)
		}
		return nil, err
	}

	s.log.Info("role created", zap.String("code", role.Code))
	return role, nil
}

// ListRoles returns all roles with their permission bindings attached.
func (s *AuthService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.store.ListRoles(ctx)
}

// DeleteRole removes a custom role. System roles (OWNER, ADMIN, MEMBER)
// carry the Protected flag and are rejected with ErrProtectedRole.
func (s *AuthService) DeleteRole(ctx context.Context, roleID uint) error {
	role, err := s.store.RoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: role %d", ErrNotFound, roleID)
		}
		return err
	}
	if role.Protected {
		return fmt.Errorf("%w: %s", ErrProtectedRole, role.Code)
	}
	if err := s.store.DeleteRole(ctx, roleID); err != nil {
		return err
	}
	s.log.Info("role deleted", zap.String("code", role.Code))
	return nil
}

// CreatePermission adds a capability to the catalog. Fails with ErrConflict
// on a duplicate code.
func (s *AuthService) CreatePermission(ctx context.Context, code, description string) (*model.Permission, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: permission code is required", ErrInvalidInput)
	}

	perm := &model.Permission{Code: code, Description: description}
	if err := s.store.CreatePermission(ctx, perm); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("%w: permission code %q already exists", ErrConflict, code)
		}
		return nil, err
	}

	s.log.Info("permission created", zap.String("code", perm.Code))
	return perm, nil
}

func (s *AuthService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return s.store.ListPermissions(ctx)
}

// AssignRole binds a role to a user within an organization. The operation is
// additive and idempotent on the exact triple: an existing assignment is
// returned unchanged, other roles the user holds in the organization are not
// touched. Fails with ErrNotFound for an unknown user or role.
func (s *AuthService) AssignRole(ctx context.Context, userID, roleID, organizationID uint) (*model.UserRole, error) {
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	if _, err := s.store.RoleByID(ctx, roleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: role %d", ErrNotFound, roleID)
		}
		return nil, err
	}

	if existing, err := s.store.UserRole(ctx, userID, roleID, organizationID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ur := &model.UserRole{UserID: userID, RoleID: roleID, OrganizationID: organizationID}
	if err := s.store.CreateUserRole(ctx, ur); err != nil {
		// A concurrent identical assignment won the insert. The unique index
		// rejected ours; return the winner's row.
		if errors.Is(err, ErrConflict) {
			return s.store.UserRole(ctx, userID, roleID, organizationID)
		}
		return nil, err
	}

	s.log.Info("role assigned",
		zap.Uint("user_id", userID),
		zap.Uint("role_id", roleID),
		zap.Uint("organization_id", organizationID))
	return ur, nil
}

// RemoveRoleAssignment deletes one assignment row. Callers wanting
// replace-on-assign semantics remove the old role first.
func (s *AuthService) RemoveRoleAssignment(ctx context.Context, userID, roleID, organizationID uint) error {
	if err := s.store.DeleteUserRole(ctx, userID, roleID, organizationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: assignment", ErrNotFound)
		}
		return err
	}
	s.log.Info("role assignment removed",
		zap.Uint("user_id", userID),
		zap.Uint("role_id", roleID),
		zap.Uint("organization_id", organizationID))
	return nil
}

// AddPermissionToRole grants a permission to a role, idempotently on the
// pair. Fails with ErrNotFound for an unknown role or permission.
func (s *AuthService) AddPermissionToRole(ctx context.Context, roleID, permissionID uint) (*model.RolePermission, error) {
	if _, err := s.store.RoleByID(ctx, roleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: role %d", ErrNotFound, roleID)
		}
		return nil, err
	}
	if _, err := s.store.PermissionByID(ctx, permissionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: permission %d", ErrNotFound, permissionID)
		}
		return nil, err
	}

	if existing, err := s.store.RolePermission(ctx, roleID, permissionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	rp := &model.RolePermission{RoleID: roleID, PermissionID: permissionID}
	if err := s.store.CreateRolePermission(ctx, rp); err != nil {
		if errors.Is(err, ErrConflict) {
			return s.store.RolePermission(ctx, roleID, permissionID)
		}
		return nil, err
	}

	s.log.Info("permission granted to role",
		zap.Uint("role_id", roleID),
		zap.Uint("permission_id", permissionID))
	return rp, nil
}
