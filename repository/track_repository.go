package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MoisHub/model"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(ctx context.Context, track *model.Track) (int64, error)
	GetTrackByID(ctx context.Context, id int64) (*model.Track, error)
	ListApproved(ctx context.Context, page, pageSize int, tag string) ([]*model.Track, int64, error)
	ListByAuthor(ctx context.Context, authorID int64, includeHidden bool) ([]*model.Track, error)
	ListByStatus(ctx context.Context, status string) ([]*model.Track, error)
	UpdateStatus(ctx context.Context, trackID int64, status string) error
	DeleteTrack(ctx context.Context, trackID int64) error
	IncrementPlays(ctx context.Context, trackID int64) error
	AddReviewsCount(ctx context.Context, trackID int64, delta int) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	db *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

const trackColumns = `t.id, t.author_id, t.title, t.description, t.tags, t.track_type,
	t.original_title, t.file_url, t.file_size, t.cover_url, t.lyrics, t.status,
	t.plays_count, t.reviews_count, t.created_at, t.updated_at,
	u.username, u.author_level`

const trackJoin = ` FROM tracks t JOIN users u ON u.id = t.author_id `

func scanTrack(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Track, error) {
	track := &model.Track{}
	err := scanner.Scan(&track.ID, &track.AuthorID, &track.Title, &track.Description, &track.Tags,
		&track.TrackType, &track.OriginalTitle, &track.FileURL, &track.FileSize, &track.CoverURL,
		&track.Lyrics, &track.Status, &track.PlaysCount, &track.ReviewsCount,
		&track.CreatedAt, &track.UpdatedAt, &track.AuthorName, &track.AuthorLevelRef)
	if err != nil {
		return nil, err
	}
	return track, nil
}

// CreateTrack adds a new track to the database. The caller decides the
// status; the upload pipeline always inserts pending.
func (r *mysqlTrackRepository) CreateTrack(ctx context.Context, track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (author_id, title, description, tags, track_type, original_title,
		file_url, file_size, cover_url, lyrics, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		track.AuthorID, track.Title, track.Description, track.Tags, track.TrackType,
		track.OriginalTitle, track.FileURL, track.FileSize, track.CoverURL, track.Lyrics,
		track.Status, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	return id, nil
}

// GetTrackByID retrieves a track with its author profile joined.
func (r *mysqlTrackRepository) GetTrackByID(ctx context.Context, id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + trackJoin + `WHERE t.id = ?`
	track, err := scanTrack(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return track, nil
}

// ListApproved returns one page of the public feed, newest first, with the
// total count of matching rows. A non-empty tag narrows by normalized tag.
func (r *mysqlTrackRepository) ListApproved(ctx context.Context, page, pageSize int, tag string) ([]*model.Track, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	where := `WHERE t.status = ?`
	args := []interface{}{model.StatusApproved}
	if tag != "" {
		where += ` AND CONCAT(' ', t.tags, ' ') LIKE ?`
		args = append(args, "% "+tag+" %")
	}

	var total int64
	countQuery := `SELECT COUNT(*)` + trackJoin + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count approved tracks: %w", err)
	}

	query := `SELECT ` + trackColumns + trackJoin + where +
		` ORDER BY t.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query approved tracks: %w", err)
	}
	defer rows.Close()

	tracks, err := collectTracks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tracks, total, nil
}

// ListByAuthor returns an author's tracks; hidden (pending/rejected) rows
// are included only for the owner or an admin.
func (r *mysqlTrackRepository) ListByAuthor(ctx context.Context, authorID int64, includeHidden bool) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + trackJoin + `WHERE t.author_id = ?`
	args := []interface{}{authorID}
	if !includeHidden {
		query += ` AND t.status = ?`
		args = append(args, model.StatusApproved)
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks for author %d: %w", authorID, err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

// ListByStatus returns tracks for the moderation queue; an empty status
// means all statuses.
func (r *mysqlTrackRepository) ListByStatus(ctx context.Context, status string) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + trackJoin
	args := []interface{}{}
	if status != "" {
		query += `WHERE t.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks by status %q: %w", status, err)
	}
	defer rows.Close()

	return collectTracks(rows)
}

func collectTracks(rows *sql.Rows) ([]*model.Track, error) {
	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during track rows iteration: %w", err)
	}
	return tracks, nil
}

// UpdateStatus moves a track to a new moderation status. Counters and XP
// are never touched here.
func (r *mysqlTrackRepository) UpdateStatus(ctx context.Context, trackID int64, status string) error {
	query := `UPDATE tracks SET status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), trackID)
	if err != nil {
		return fmt.Errorf("failed to update status for track %d: %w", trackID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for track %d: %w", trackID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTrack removes the track row only. The review tables carry no foreign
// key to tracks, so callers must delete the track's reviews and likes first
// (ReviewRepository.DeleteByTrack).
func (r *mysqlTrackRepository) DeleteTrack(ctx context.Context, trackID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, trackID)
	if err != nil {
		return fmt.Errorf("failed to delete track %d: %w", trackID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for track %d: %w", trackID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementPlays bumps the play counter by one.
func (r *mysqlTrackRepository) IncrementPlays(ctx context.Context, trackID int64) error {
	query := `UPDATE tracks SET plays_count = plays_count + 1 WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, trackID); err != nil {
		return fmt.Errorf("failed to increment plays for track %d: %w", trackID, err)
	}
	return nil
}

// AddReviewsCount adjusts the denormalized review counter; the floor at
// zero guards against double decrements.
func (r *mysqlTrackRepository) AddReviewsCount(ctx context.Context, trackID int64, delta int) error {
	query := `UPDATE tracks SET reviews_count = GREATEST(CAST(reviews_count AS SIGNED) + ?, 0) WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, delta, trackID); err != nil {
		return fmt.Errorf("failed to adjust reviews count for track %d: %w", trackID, err)
	}
	return nil
}
