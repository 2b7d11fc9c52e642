package repository

import (
	"database/sql"
	"fmt"

	"MoisHub/model"
)

// UserRepository defines the interface for user and profile data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	UpdateAccountType(userID int64, accountType string) error
	UpdateSmuleProfile(userID int64, smuleURL string, verified bool) error
	GrantUploadReward(userID int64) error
	GrantReviewReward(userID int64) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, account_type,
	author_level, author_xp, reviewer_level, reviewer_xp,
	total_tracks, total_reviews, smule_verified, smule_url,
	created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.AccountType,
		&user.AuthorLevel, &user.AuthorXP, &user.ReviewerLevel, &user.ReviewerXP,
		&user.TotalTracks, &user.TotalReviews, &user.SmuleVerified, &user.SmuleURL,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, account_type) VALUES (?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	accountType := user.AccountType
	if accountType == "" {
		accountType = model.AccountTypeBoth
	}

	res, err := stmt.Exec(user.Username, user.Email, user.PasswordHash, accountType)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRow(query, id))
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanUser(r.db.QueryRow(query, username))
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRow(query, email))
}

// UpdateAccountType changes which sides of the platform the user acts on.
func (r *mysqlUserRepository) UpdateAccountType(userID int64, accountType string) error {
	query := `UPDATE users SET account_type = ? WHERE id = ?`
	_, err := r.db.Exec(query, accountType, userID)
	if err != nil {
		return fmt.Errorf("failed to update account type for user %d: %w", userID, err)
	}
	return nil
}

// UpdateSmuleProfile stores the linked Smule profile URL and verification flag.
func (r *mysqlUserRepository) UpdateSmuleProfile(userID int64, smuleURL string, verified bool) error {
	var urlValue sql.NullString
	if smuleURL != "" {
		urlValue = sql.NullString{String: smuleURL, Valid: true}
	}

	query := `UPDATE users SET smule_url = ?, smule_verified = ? WHERE id = ?`
	_, err := r.db.Exec(query, urlValue, verified, userID)
	if err != nil {
		return fmt.Errorf("failed to update smule profile for user %d: %w", userID, err)
	}
	return nil
}

// GrantUploadReward atomically bumps the author counters after a successful
// track creation: +1 track, +10 XP, level recomputed from the new XP.
// MySQL applies SET assignments left to right, so author_level sees the
// already incremented author_xp.
func (r *mysqlUserRepository) GrantUploadReward(userID int64) error {
	query := `UPDATE users
		SET total_tracks = total_tracks + 1,
		    author_xp = author_xp + ?,
		    author_level = FLOOR(author_xp / 100) + 1
		WHERE id = ?`
	_, err := r.db.Exec(query, model.UploadXPReward, userID)
	if err != nil {
		return fmt.Errorf("failed to grant upload reward to user %d: %w", userID, err)
	}
	return nil
}

// GrantReviewReward atomically bumps the reviewer counters after a
// successful review insert: +1 review, +5 XP, level recomputed.
func (r *mysqlUserRepository) GrantReviewReward(userID int64) error {
	query := `UPDATE users
		SET total_reviews = total_reviews + 1,
		    reviewer_xp = reviewer_xp + ?,
		    reviewer_level = FLOOR(reviewer_xp / 100) + 1
		WHERE id = ?`
	_, err := r.db.Exec(query, model.ReviewXPReward, userID)
	if err != nil {
		return fmt.Errorf("failed to grant review reward to user %d: %w", userID, err)
	}
	return nil
}
