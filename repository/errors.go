package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Sentinel errors surfaced to handlers, which map them to HTTP statuses.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateUser   = errors.New("username or email already exists")
	ErrDuplicateReview = errors.New("reviewer already reviewed this track")
	ErrNotOwner        = errors.New("requester does not own this record")
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations.
const mysqlDuplicateEntry = 1062

// isDuplicateEntry reports whether err is a unique constraint violation.
func isDuplicateEntry(err error) bool {
	var merr *mysql.MySQLError
	return errors.As(err, &merr) && merr.Number == mysqlDuplicateEntry
}
