package repository

import (
	"testing"
	"time"

	"MoisHub/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRows(id int64, username string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "account_type",
		"author_level", "author_xp", "reviewer_level", "reviewer_xp",
		"total_tracks", "total_reviews", "smule_verified", "smule_url",
		"created_at", "updated_at",
	}).AddRow(id, username, username+"@test.dev", "hash", model.AccountTypeBoth,
		1, 0, 1, 0, 0, 0, false, nil, now, now)
}

func TestCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLUserRepository(db)

	mock.ExpectPrepare("INSERT INTO users").
		ExpectExec().
		WithArgs("alice", "alice@test.dev", "hash", model.AccountTypeBoth).
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.CreateUser(&model.User{
		Username:     "alice",
		Email:        "alice@test.dev",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLUserRepository(db)

	mock.ExpectPrepare("INSERT INTO users").
		ExpectExec().
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err = repo.CreateUser(&model.User{
		Username:     "alice",
		Email:        "alice@test.dev",
		PasswordHash: "hash",
		AccountType:  model.AccountTypeAuthor,
	})
	assert.ErrorIs(t, err, ErrDuplicateUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(userRows(7, "alice"))

	user, err := repo.GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, 1, user.AuthorLevel)
}

func TestGetUserByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetUserByID(999)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGrantUploadReward(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WithArgs(model.UploadXPReward, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.GrantUploadReward(7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantReviewReward(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLUserRepository(db)

	mock.ExpectExec("UPDATE users").
		WithArgs(model.ReviewXPReward, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.GrantReviewReward(7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
