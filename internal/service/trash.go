package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"bizadmin-service/internal/model"
)

// DefaultRetentionDays is the grace period a suspended entity spends in the
// trash before permanent deletion becomes possible.
const DefaultRetentionDays = 30

// TrashService manages the suspend -> restore | permanently-delete lifecycle
// for users and organizations, recording every successful transition in the
// append-only audit log. Rejected operations are never audited.
type TrashService struct {
	store         Store
	log           *zap.Logger
	retentionDays int
	now           func() time.Time
}

func NewTrashService(store Store, log *zap.Logger, retentionDays int) *TrashService {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &TrashService{store: store, log: log, retentionDays: retentionDays, now: time.Now}
}

func normalizeEntityType(entityType string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(entityType)) {
	case model.EntityUser:
		return model.EntityUser, nil
	case model.EntityOrganization:
		return model.EntityOrganization, nil
	default:
		return "", fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, entityType)
	}
}

// Suspend transitions an ACTIVE entity to SUSPENDED and records a SUSPEND
// audit entry. Suspending an already suspended entity fails with ErrConflict.
func (s *TrashService) Suspend(ctx context.Context, entityType string, id uint, actorID *uint, reason string) error {
	entityType, err := normalizeEntityType(entityType)
	if err != nil {
		return err
	}

	suspendedAt := s.now()
	return s.store.Transact(ctx, func(tx Store) error {
		switch entityType {
		case model.EntityUser:
			user, err := tx.UserByID(ctx, id)
			if err != nil {
				return err
			}
			if user.Status != model.StatusActive {
				return fmt.Errorf("%w: user %d is not active", ErrConflict, id)
			}
			user.Status = model.StatusSuspended
			user.SuspendedAt = &suspendedAt
			if err := tx.SaveUser(ctx, user); err != nil {
				return err
			}
		case model.EntityOrganization:
			org, err := tx.OrganizationByID(ctx, id)
			if err != nil {
				return err
			}
			if org.Status != model.StatusActive {
				return fmt.Errorf("%w: organization %d is not active", ErrConflict, id)
			}
			org.Status = model.StatusSuspended
			org.SuspendedAt = &suspendedAt
			if err := tx.SaveOrganization(ctx, org); err != nil {
				return err
			}
		}

		if err := tx.AppendAuditEntry(ctx, &model.AuditLogEntry{
			Action:     model.AuditSuspend,
			EntityType: entityType,
			EntityID:   id,
			ActorID:    actorID,
			Reason:     reason,
		}); err != nil {
			return err
		}

		s.log.Info("entity suspended",
			zap.String("entity_type", entityType),
			zap.Uint("entity_id", id))
		return nil
	})
}

// SuspendedUsers returns all users currently in the trash.
func (s *TrashService) SuspendedUsers(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsersByStatus(ctx, model.StatusSuspended)
}

// SuspendedOrganizations returns all organizations currently in the trash.
func (s *TrashService) SuspendedOrganizations(ctx context.Context) ([]model.Organization, error) {
	return s.store.ListOrganizationsByStatus(ctx, model.StatusSuspended)
}

// Restore transitions a SUSPENDED entity back to ACTIVE, clears its
// suspension timestamp and records a RESTORE audit entry. Restoring an
// entity that is not suspended fails with ErrNotSuspended.
func (s *TrashService) Restore(ctx context.Context, entityType string, id uint, actorID *uint) error {
	entityType, err := normalizeEntityType(entityType)
	if err != nil {
		return err
	}

	return s.store.Transact(ctx, func(tx Store) error {
		switch entityType {
		case model.EntityUser:
			user, err := tx.UserByID(ctx, id)
			if err != nil {
				return err
			}
			if user.Status != model.StatusSuspended {
				return fmt.Errorf("%w: user %d", ErrNotSuspended, id)
			}
			user.Status = model.StatusActive
			user.SuspendedAt = nil
			if err := tx.SaveUser(ctx, user); err != nil {
				return err
			}
		case model.EntityOrganization:
			org, err := tx.OrganizationByID(ctx, id)
			if err != nil {
				return err
			}
			if org.Status != model.StatusSuspended {
				return fmt.Errorf("%w: organization %d", ErrNotSuspended, id)
			}
			org.Status = model.StatusActive
			org.SuspendedAt = nil
			if err := tx.SaveOrganization(ctx, org); err != nil {
				return err
			}
		}

		if err := tx.AppendAuditEntry(ctx, &model.AuditLogEntry{
			Action:     model.AuditRestore,
			EntityType: entityType,
			EntityID:   id,
			ActorID:    actorID,
		}); err != nil {
			return err
		}

		s.log.Info("entity restored",
			zap.String("entity_type", entityType),
			zap.Uint("entity_id", id))
		return nil
	})
}

// EligibleForPermanentDeletion reports whether the retention window has
// elapsed since suspension. Elapsed time is counted in days with a ceiling;
// exactly 30 days is eligible, 29 days is not.
func (s *TrashService) EligibleForPermanentDeletion(suspendedAt time.Time) bool {
	elapsed := s.now().Sub(suspendedAt)
	days := int(math.Ceil(elapsed.Hours() / 24))
	return days >= s.retentionDays
}

// PermanentlyDelete irreversibly removes a suspended entity once the
// retention window has elapsed. The confirm flag must be true; without it
// the call is rejected before anything is looked up. Only a successful
// deletion produces a PERMANENT_DELETE audit entry.
func (s *TrashService) PermanentlyDelete(ctx context.Context, entityType string, id uint, confirm bool, actorID *uint, reason string) error {
	if !confirm {
		return ErrNotConfirmed
	}
	entityType, err := normalizeEntityType(entityType)
	if err != nil {
		return err
	}

	return s.store.Transact(ctx, func(tx Store) error {
		var suspendedAt *time.Time
		switch entityType {
		case model.EntityUser:
			user, err := tx.UserByID(ctx, id)
			if err != nil {
				return err
			}
			if user.Status != model.StatusSuspended {
				return fmt.Errorf("%w: user %d is not suspended", ErrNotEligible, id)
			}
			suspendedAt = user.SuspendedAt
		case model.EntityOrganization:
			org, err := tx.OrganizationByID(ctx, id)
			if err != nil {
				return err
			}
			if org.Status != model.StatusSuspended {
				return fmt.Errorf("%w: organization %d is not suspended", ErrNotEligible, id)
			}
			suspendedAt = org.SuspendedAt
		}
		if suspendedAt == nil || !s.EligibleForPermanentDeletion(*suspendedAt) {
			return fmt.Errorf("%w: retention window of %d days has not elapsed", ErrNotEligible, s.retentionDays)
		}

		switch entityType {
		case model.EntityUser:
			if err := tx.DeleteUser(ctx, id); err != nil {
				return err
			}
		case model.EntityOrganization:
			if err := tx.DeleteOrganization(ctx, id); err != nil {
				return err
			}
		}

		if err := tx.AppendAuditEntry(ctx, &model.AuditLogEntry{
			Action:     model.AuditPermanentDelete,
			EntityType: entityType,
			EntityID:   id,
			ActorID:    actorID,
			Reason:     reason,
		}); err != nil {
			return err
		}

		s.log.Info("entity permanently deleted",
			zap.String("entity_type", entityType),
			zap.Uint("entity_id", id))
		return nil
	})
}

// AuditLog returns the full append-only history, newest first.
func (s *TrashService) AuditLog(ctx context.Context) ([]model.AuditLogEntry, error) {
	return s.store.ListAuditEntries(ctx)
}

// ActorName resolves the display name for an audit actor; a nil actor id
// means the action was system-initiated.
func ActorName(actorID *uint) string {
	if actorID == nil {
		return "System"
	}
	return fmt.Sprintf("user:%d", *actorID)
}
