package gormstore

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bizadmin-service/internal/model"
	"bizadmin-service/internal/service"
)

// newMockStore opens gorm over a sqlmock connection with the same options
// the production database uses, minus the default per-statement transaction
// so expectations stay readable.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestUserByID(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "email", "status"}).
		AddRow(1, "owner@acme.test", model.StatusActive)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1`).WillReturnRows(rows)

	user, err := store.UserByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, "owner@acme.test", user.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.UserByID(context.Background(), 42)
	require.ErrorIs(t, err, service.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := store.CreateUser(context.Background(), &model.User{Email: "owner@acme.test"})
	require.ErrorIs(t, err, service.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersByStatus(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "email", "status"}).
		AddRow(3, "a@acme.test", model.StatusSuspended).
		AddRow(1, "b@acme.test", model.StatusSuspended)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE status = \$1 ORDER BY suspended_at DESC`).
		WithArgs(model.StatusSuspended).
		WillReturnRows(rows)

	users, err := store.ListUsersByStatus(context.Background(), model.StatusSuspended)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, uint(3), users[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserRemovesAssignments(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "user_roles" WHERE user_id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "users" WHERE "users"\."id" = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.DeleteUser(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "user_roles" WHERE user_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "users" WHERE "users"\."id" = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteUser(context.Background(), 99)
	require.ErrorIs(t, err, service.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserRoleNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "user_roles" WHERE user_id = \$1 AND role_id = \$2 AND organization_id = \$3`).
		WithArgs(1, 2, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteUserRole(context.Background(), 1, 2, 3)
	require.ErrorIs(t, err, service.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleByCodeNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	// First parameterizes the limit, so the query carries two args.
	mock.ExpectQuery(`SELECT \* FROM "roles" WHERE code = \$1`).
		WithArgs("OWNER", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.RoleByCode(context.Background(), "OWNER")
	require.ErrorIs(t, err, service.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactCommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "user_roles" WHERE user_id = \$1 AND role_id = \$2 AND organization_id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Transact(context.Background(), func(tx service.Store) error {
		return tx.DeleteUserRole(context.Background(), 1, 2, 3)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.Transact(context.Background(), func(service.Store) error { return boom })
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
