package db

import (
	"database/sql"
	"fmt"
	"log"

	"MoisHub/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
// The review module tables are managed separately via GORM AutoMigrate.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createTracksTable(); err != nil {
		return err
	}
	if err := createAdminsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		account_type ENUM('author', 'reviewer', 'both') NOT NULL DEFAULT 'both',
		author_level INT NOT NULL DEFAULT 1,
		author_xp INT NOT NULL DEFAULT 0,
		reviewer_level INT NOT NULL DEFAULT 1,
		reviewer_xp INT NOT NULL DEFAULT 0,
		total_tracks INT NOT NULL DEFAULT 0,
		total_reviews INT NOT NULL DEFAULT 0,
		smule_verified TINYINT(1) NOT NULL DEFAULT 0,
		smule_url VARCHAR(512),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

func createTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id INT AUTO_INCREMENT PRIMARY KEY,
		author_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		tags VARCHAR(512) NOT NULL DEFAULT '',
		track_type ENUM('original', 'cover') NOT NULL DEFAULT 'original',
		original_title VARCHAR(255),
		file_url VARCHAR(767) NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		cover_url VARCHAR(767),
		lyrics TEXT,
		status ENUM('pending', 'approved', 'rejected') NOT NULL DEFAULT 'pending',
		plays_count BIGINT NOT NULL DEFAULT 0,
		reviews_count BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_tracks_status (status),
		INDEX idx_tracks_author (author_id),
		CONSTRAINT fk_track_author FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}
	log.Println("Tracks table initialized successfully (or already exists).")
	return nil
}

func createAdminsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS admins (
		user_id INT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_admin_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create admins table: %w", err)
	}
	log.Println("Admins table initialized successfully (or already exists).")
	return nil
}
