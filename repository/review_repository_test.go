package repository

import (
	"context"
	"testing"
	"time"

	"MoisHub/model"

	"github.com/DATA-DOG/go-sqlmock"
	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newReviewRepoMock 把 GORM 挂在 sqlmock 连接上，跳过版本握手
func newReviewRepoMock(t *testing.T) (ReviewRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewGormReviewRepository(gdb), mock
}

func TestCreateReviewDuplicate(t *testing.T) {
	repo, mock := newReviewRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `reviews`").
		WillReturnError(&driver.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := repo.CreateReview(context.Background(), &model.Review{
		TrackID:    11,
		ReviewerID: 7,
		Rating:     4,
		Comment:    "A solid cover with great phrasing throughout.",
	})
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeInsertsWhenAbsent(t *testing.T) {
	repo, mock := newReviewRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `review_likes`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `review_likes`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `reviews` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM `reviews`").
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(1))

	liked, count, err := repo.ToggleLike(context.Background(), 9, 7)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeDeletesWhenPresent(t *testing.T) {
	repo, mock := newReviewRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `review_likes`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 计数回落时不会低于0
	mock.ExpectExec("UPDATE `reviews` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM `reviews`").
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(0))

	liked, count, err := repo.ToggleLike(context.Background(), 9, 7)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 连续两次切换回到初始状态
func TestToggleLikeIsItsOwnInverse(t *testing.T) {
	repo, mock := newReviewRepoMock(t)

	// 第一次：插入并加一
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `review_likes`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `review_likes`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `reviews` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM `reviews`").
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(4))

	// 第二次：删除并减一
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `review_likes`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `reviews` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM `reviews`").
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(3))

	liked, count, err := repo.ToggleLike(context.Background(), 9, 7)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(4), count)

	liked, count, err = repo.ToggleLike(context.Background(), 9, 7)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 并发下另一次切换已插入同一记录：1062 视为已点赞，计数不再调整
func TestToggleLikeConcurrentInsertTreatedAsLiked(t *testing.T) {
	repo, mock := newReviewRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `review_likes`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `review_likes`").
		WillReturnError(&driver.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM `reviews`").
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(5))

	liked, count, err := repo.ToggleLike(context.Background(), 9, 7)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(5), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReviewNotOwner(t *testing.T) {
	repo, mock := newReviewRepoMock(t)

	mock.ExpectQuery("SELECT (.+) FROM `reviews`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "track_id", "reviewer_id", "rating", "comment", "likes_count", "created_at"}).
			AddRow(9, 11, 5, 4, "comment body long enough here", 0, time.Now()))

	_, err := repo.DeleteReview(context.Background(), 9, 7)
	assert.ErrorIs(t, err, ErrNotOwner)
}

// 曲目删除时评论和点赞一并清理
func TestDeleteByTrackRemovesReviewsAndLikes(t *testing.T) {
	repo, mock := newReviewRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `review_likes` WHERE review_id IN").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM `reviews` WHERE track_id").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByTrack(context.Background(), 11))
	assert.NoError(t, mock.ExpectationsWereMet())
}
