package repository

import (
	"context"
	"regexp"
	"testing"

	"foodshare/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestUserCreate_DuplicateEmailRejected(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)

	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.User{
		Username: "alice", Email: "alice@example.com", Password: "x",
	}))

	err := repo.Create(ctx, &models.User{
		Username: "alice2", Email: "alice@example.com", Password: "x",
	})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func TestUserGetByEmail_MissingIsNotAnError(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)

	user, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestUserGetByEmail_DBErrorWrapped(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewUserRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnError(gorm.ErrInvalidDB)

	_, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeInternal, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
