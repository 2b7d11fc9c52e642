package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// AdminRepository answers admin privilege checks.
type AdminRepository interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

type mysqlAdminRepository struct {
	db *sql.DB
}

// NewMySQLAdminRepository creates a new mysqlAdminRepository.
func NewMySQLAdminRepository(db *sql.DB) AdminRepository {
	return &mysqlAdminRepository{db: db}
}

// IsAdmin reports whether the user is present in the admins table.
func (r *mysqlAdminRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM admins WHERE user_id = ?`, userID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check admin status for user %d: %w", userID, err)
	}
	return true, nil
}
