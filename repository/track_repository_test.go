package repository

import (
	"context"
	"testing"
	"time"

	"MoisHub/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackColumnNames() []string {
	return []string{
		"id", "author_id", "title", "description", "tags", "track_type",
		"original_title", "file_url", "file_size", "cover_url", "lyrics", "status",
		"plays_count", "reviews_count", "created_at", "updated_at",
		"username", "author_level",
	}
}

func addTrackRow(rows *sqlmock.Rows, id, authorID int64, title, status string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, authorID, title, nil, "#pop", model.TrackTypeOriginal,
		nil, "http://cdn.test/audio/1/x.mp3", int64(1024), nil, nil, status,
		int64(0), int64(0), now, now, "alice", 1)
}

func TestCreateTrack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLTrackRepository(db)

	mock.ExpectExec("INSERT INTO tracks").
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := repo.CreateTrack(context.Background(), &model.Track{
		AuthorID:  7,
		Title:     "First Song",
		TrackType: model.TrackTypeOriginal,
		FileURL:   "http://cdn.test/audio/7/x.mp3",
		FileSize:  1024,
		Status:    model.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTrackByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLTrackRepository(db)

	rows := addTrackRow(sqlmock.NewRows(trackColumnNames()), 11, 7, "First Song", model.StatusApproved)
	mock.ExpectQuery("SELECT (.+) FROM tracks t JOIN users u").
		WithArgs(int64(11)).
		WillReturnRows(rows)

	track, err := repo.GetTrackByID(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.Equal(t, "First Song", track.Title)
	assert.Equal(t, "alice", track.AuthorName)
	assert.Equal(t, model.StatusApproved, track.Status)
}

func TestGetTrackByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLTrackRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM tracks t JOIN users u").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows(trackColumnNames()))

	track, err := repo.GetTrackByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, track)
}

func TestListApprovedWithTag(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLTrackRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(model.StatusApproved, "% #pop %").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := addTrackRow(sqlmock.NewRows(trackColumnNames()), 11, 7, "First Song", model.StatusApproved)
	mock.ExpectQuery("SELECT (.+) FROM tracks t JOIN users u").
		WithArgs(model.StatusApproved, "% #pop %", 20, 0).
		WillReturnRows(rows)

	tracks, total, err := repo.ListApproved(context.Background(), 1, 20, "#pop")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tracks, 1)
	assert.Equal(t, "First Song", tracks[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLTrackRepository(db)

	mock.ExpectExec("UPDATE tracks SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), 11, model.StatusApproved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLTrackRepository(db)

	mock.ExpectExec("UPDATE tracks SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), 999, model.StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTrackNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLTrackRepository(db)

	mock.ExpectExec("DELETE FROM tracks").
		WithArgs(int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteTrack(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddReviewsCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLTrackRepository(db)

	mock.ExpectExec("UPDATE tracks SET reviews_count").
		WithArgs(-1, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddReviewsCount(context.Background(), 11, -1))
	assert.NoError(t, mock.ExpectationsWereMet())
}
